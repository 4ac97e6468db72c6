package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"bookline-inbox/internal/config"
	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/services"
	"bookline-inbox/internal/transport/httpdto"
	apperrors "bookline-inbox/pkg/errors"

	"github.com/gin-gonic/gin"
)

type InboxHandler struct {
	svc *services.InboxService
	cfg config.InboxConfig
}

func NewInboxHandler(svc *services.InboxService, cfg config.InboxConfig) *InboxHandler {
	return &InboxHandler{svc: svc, cfg: cfg}
}

// roleAndLimit validates query parameters before any store access.
func (h *InboxHandler) roleAndLimit(c *gin.Context, viewer services.Viewer) (message.Role, int, error) {
	role, err := parseRole(c, viewer)
	if err != nil {
		return "", 0, err
	}

	limit := h.cfg.DefaultPageSize
	if limitStr := c.Query("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			return "", 0, fmt.Errorf("invalid limit %q: %w", limitStr, apperrors.ErrInvalidInput)
		}
		if v > h.cfg.MaxPageSize {
			v = h.cfg.MaxPageSize
		}
		limit = v
	}
	return role, limit, nil
}

func (h *InboxHandler) page(c *gin.Context, namespace string, render services.PreviewRenderer) {
	viewer, ok := viewerOrAbort(c)
	if !ok {
		return
	}
	role, limit, err := h.roleAndLimit(c, viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.svc.ComposePage(c.Request.Context(), viewer.ID, role, namespace, services.PreviewOptions{
		Limit:       limit,
		CallerToken: callerToken(c),
		SkipCache:   skipCache(c),
	}, render)
	if err != nil {
		respondError(c, err)
		return
	}

	setConditionalHeaders(c, res.Token)
	if res.NotModified {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Body)
}

// Preview serves GET /v1/threads/preview, also mounted at /v1/inbox/preview.
func (h *InboxHandler) Preview(c *gin.Context) {
	h.page(c, "preview", httpdto.RenderPreviewPage)
}

// Threads serves GET /v1/threads, the unified index variant.
func (h *InboxHandler) Threads(c *gin.Context) {
	h.page(c, "threads", httpdto.RenderThreadPage)
}

// Unread serves GET /v1/inbox/unread.
func (h *InboxHandler) Unread(c *gin.Context) {
	viewer, ok := viewerOrAbort(c)
	if !ok {
		return
	}
	role, _, err := h.roleAndLimit(c, viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.svc.Unread(c.Request.Context(), viewer.ID, role, callerToken(c))
	if err != nil {
		respondError(c, err)
		return
	}

	setConditionalHeaders(c, res.Token)
	if res.NotModified {
		c.Status(http.StatusNotModified)
		return
	}
	c.JSON(http.StatusOK, httpdto.UnreadResponse{Total: res.Total})
}
