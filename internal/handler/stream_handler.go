package handler

import (
	"io"
	"net/http"
	"time"

	"bookline-inbox/internal/config"
	"bookline-inbox/internal/services"
	"bookline-inbox/internal/transport/httpdto"
	"bookline-inbox/pkg/logger"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// StreamHandler serves GET /v1/inbox/stream: a polling push loop over
// server-sent events. Each tick re-derives the snapshot through the
// store limiter; an event is emitted only when the token changes.
type StreamHandler struct {
	svc *services.InboxService
	cfg config.InboxConfig
	log *logger.Logger
}

func NewStreamHandler(svc *services.InboxService, cfg config.InboxConfig, log *logger.Logger) *StreamHandler {
	return &StreamHandler{svc: svc, cfg: cfg, log: log}
}

func (h *StreamHandler) Stream(c *gin.Context) {
	viewer, ok := viewerOrAbort(c)
	if !ok {
		return
	}
	role, err := parseRole(c, viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	snap, token, err := h.svc.SnapshotToken(ctx, viewer.ID, role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	w := c.Writer
	if err := sse.Encode(w, sse.Event{Event: "hello", Data: httpdto.NewStreamPayload(token, snap)}); err != nil {
		return
	}
	w.Flush()

	lastToken := token
	lastEmit := time.Now()
	ticker := time.NewTicker(h.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// transport disconnect is the only termination trigger
			return
		case <-ticker.C:
		}

		snap, token, err := h.svc.SnapshotToken(ctx, viewer.ID, role)
		if err != nil {
			// transient store error on one tick: log and retry next tick
			if h.log != nil {
				h.log.Warnf("stream poll for viewer %d: %v", viewer.ID, err)
			}
			continue
		}

		if token != lastToken {
			if err := sse.Encode(w, sse.Event{Event: "update", Data: httpdto.NewStreamPayload(token, snap)}); err != nil {
				return
			}
			w.Flush()
			lastToken = token
			lastEmit = time.Now()
			continue
		}

		if time.Since(lastEmit) >= h.cfg.HeartbeatInterval {
			// comment frame defeats idle timeouts in intermediate proxies
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return
			}
			w.Flush()
			lastEmit = time.Now()
		}
	}
}
