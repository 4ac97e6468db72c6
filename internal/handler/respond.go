package handler

import (
	"errors"
	"fmt"
	"net/http"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/inbox"
	"bookline-inbox/internal/services"
	"bookline-inbox/internal/transport/httpdto"
	apperrors "bookline-inbox/pkg/errors"

	"github.com/gin-gonic/gin"
)

// HeaderInboxRefresh signals "I just wrote, skip the cache" for one
// request, so the writer never sees its own write masked by a stale
// cached token.
const HeaderInboxRefresh = "X-Inbox-Refresh"

func setConditionalHeaders(c *gin.Context, token string) {
	c.Header("ETag", inbox.ETag(token))
	c.Header("Cache-Control", "no-cache, private")
	c.Header("Vary", "If-None-Match, "+HeaderInboxRefresh)
}

func callerToken(c *gin.Context) string {
	return inbox.TokenFromETag(c.GetHeader("If-None-Match"))
}

func skipCache(c *gin.Context) bool {
	return c.GetHeader(HeaderInboxRefresh) != ""
}

func viewerOrAbort(c *gin.Context) (services.Viewer, bool) {
	viewer, ok := services.ViewerFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
	}
	return viewer, ok
}

// parseRole resolves the effective role for a request: explicit query
// parameter when present, the session default otherwise. Validation
// happens before any store access.
func parseRole(c *gin.Context, viewer services.Viewer) (message.Role, error) {
	roleStr := c.Query("role")
	if roleStr == "" {
		return viewer.DefaultRole, nil
	}
	if !message.ValidRole(roleStr) {
		return "", fmt.Errorf("unknown role %q: %w", roleStr, apperrors.ErrInvalidInput)
	}
	return message.Role(roleStr), nil
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), httpdto.CodeInvalidRequest))
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", httpdto.CodeForbidden))
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", httpdto.CodeNotFound))
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("store unavailable", httpdto.CodeStoreUnavailable))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), httpdto.CodeInternalError))
	}
}
