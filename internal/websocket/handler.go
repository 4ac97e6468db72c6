package websocket

import (
	"net/http"
	"time"

	"bookline-inbox/internal/config"
	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/services"
	"bookline-inbox/internal/transport/httpdto"
	"bookline-inbox/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 10 * time.Second

// frame is the wire shape of a stream notification. It mirrors the SSE
// events served on /v1/inbox/stream so clients can switch transports
// without reparsing.
type frame struct {
	Event string                `json:"event"`
	Data  httpdto.StreamPayload `json:"data"`
}

// Handler serves GET /v1/inbox/ws: the websocket variant of the inbox
// push loop. The poll cadence, change detection and keepalive budget
// are shared with the SSE handler via config.
type Handler struct {
	svc *services.InboxService
	cfg config.InboxConfig
	log *logger.Logger
}

func NewHandler(svc *services.InboxService, cfg config.InboxConfig, log *logger.Logger) *Handler {
	return &Handler{svc: svc, cfg: cfg, log: log}
}

func (h *Handler) Stream(c *gin.Context) {
	viewer, ok := services.ViewerFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("authentication required", httpdto.CodeUnauthorized))
		return
	}
	role := viewer.DefaultRole
	if raw := c.Query("role"); raw != "" {
		if !message.ValidRole(raw) {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("unknown role", httpdto.CodeInvalidRequest))
			return
		}
		role = message.Role(raw)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Warnf("websocket upgrade for viewer %d: %v", viewer.ID, err)
		}
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	snap, token, err := h.svc.SnapshotToken(ctx, viewer.ID, role)
	if err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "snapshot unavailable"),
			time.Now().Add(writeWait))
		return
	}

	if err := h.write(conn, frame{Event: "hello", Data: httpdto.NewStreamPayload(token, snap)}); err != nil {
		return
	}

	// the read pump exists only to surface client disconnects
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	lastToken := token
	lastEmit := time.Now()
	ticker := time.NewTicker(h.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
		}

		snap, token, err := h.svc.SnapshotToken(ctx, viewer.ID, role)
		if err != nil {
			if h.log != nil {
				h.log.Warnf("websocket poll for viewer %d: %v", viewer.ID, err)
			}
			continue
		}

		if token != lastToken {
			if err := h.write(conn, frame{Event: "update", Data: httpdto.NewStreamPayload(token, snap)}); err != nil {
				return
			}
			lastToken = token
			lastEmit = time.Now()
			continue
		}

		if time.Since(lastEmit) >= h.cfg.HeartbeatInterval {
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
			lastEmit = time.Now()
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, f frame) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}
