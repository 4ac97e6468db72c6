package handler

import (
	"net/http"
	"strconv"

	"bookline-inbox/internal/services"
	"bookline-inbox/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	svc *services.MessageService
}

func NewMessageHandler(svc *services.MessageService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

func threadIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid thread id", httpdto.CodeInvalidRequest))
		return 0, false
	}
	return id, true
}

// Append serves POST /v1/threads/:id/messages.
func (h *MessageHandler) Append(c *gin.Context) {
	viewer, ok := viewerOrAbort(c)
	if !ok {
		return
	}
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}
	role, err := parseRole(c, viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	var req httpdto.AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
		return
	}

	m, err := h.svc.Append(c.Request.Context(), viewer, role, services.AppendInput{
		ThreadID:      threadID,
		Content:       req.Content,
		AttachmentKey: req.AttachmentKey,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromMessage(m)))
}

// Delete serves DELETE /v1/threads/:id/messages/:mid. Only the author
// may remove a message, and removal is a tombstone, not a hard delete.
func (h *MessageHandler) Delete(c *gin.Context) {
	viewer, ok := viewerOrAbort(c)
	if !ok {
		return
	}
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}
	role, err := parseRole(c, viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	messageID, err := strconv.ParseInt(c.Param("mid"), 10, 64)
	if err != nil || messageID <= 0 {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", httpdto.CodeInvalidRequest))
		return
	}

	if err := h.svc.DeleteMessage(c.Request.Context(), viewer, role, threadID, messageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deleted": true}))
}

// MarkRead serves POST /v1/threads/:id/read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	viewer, ok := viewerOrAbort(c)
	if !ok {
		return
	}
	threadID, ok := threadIDParam(c)
	if !ok {
		return
	}
	role, err := parseRole(c, viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.svc.MarkThreadRead(c.Request.Context(), viewer, role, threadID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"read": true}))
}

// AddReaction serves POST /v1/threads/:id/reactions.
func (h *MessageHandler) AddReaction(c *gin.Context) {
	viewer, ok := viewerOrAbort(c)
	if !ok {
		return
	}
	if _, ok := threadIDParam(c); !ok {
		return
	}
	role, err := parseRole(c, viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	var req httpdto.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
		return
	}

	if err := h.svc.AddReaction(c.Request.Context(), viewer, role, req.MessageID, req.Emoji); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"reacted": true}))
}

// RemoveReaction serves DELETE /v1/threads/:id/reactions.
func (h *MessageHandler) RemoveReaction(c *gin.Context) {
	viewer, ok := viewerOrAbort(c)
	if !ok {
		return
	}
	if _, ok := threadIDParam(c); !ok {
		return
	}

	var req httpdto.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", httpdto.CodeInvalidRequest))
		return
	}

	if err := h.svc.RemoveReaction(c.Request.Context(), viewer, req.MessageID, req.Emoji); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"reacted": false}))
}
