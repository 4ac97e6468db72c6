package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookline-inbox/internal/config"
	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/inbox"
	"bookline-inbox/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamTestRouter(messages *stubMessages, cfg config.InboxConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	composer := services.NewComposer(&stubThreads{}, messages, &stubUsers{}, nil, nil)
	svc := services.NewInboxService(composer, messages, nil, inbox.NewLimiter(4), nil)
	h := NewStreamHandler(svc, cfg, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(services.WithViewerContext(
			c.Request.Context(), services.Viewer{ID: 1, DefaultRole: message.RoleClient}))
		c.Next()
	})
	r.GET("/v1/inbox/stream", h.Stream)
	return r
}

func serveStream(r *gin.Engine, d time.Duration) *httptest.ResponseRecorder {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/v1/inbox/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStreamEmitsHello(t *testing.T) {
	messages := &stubMessages{snapshot: inbox.Snapshot{MaxMessageID: 10, MaxThreadID: 2, UnreadTotal: 1, ThreadCount: 2}}
	cfg := testInboxConfig()
	cfg.PollInterval = 5 * time.Millisecond
	r := streamTestRouter(messages, cfg)

	w := serveStream(r, 30*time.Millisecond)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no", w.Header().Get("X-Accel-Buffering"))

	body := w.Body.String()
	require.Contains(t, body, "event:hello")
	assert.Contains(t, body, `"unread_total":1`)
	// unchanged snapshot must not emit updates
	assert.NotContains(t, body, "event:update")
}

func TestStreamEmitsUpdateOnChange(t *testing.T) {
	messages := &stubMessages{snapshot: inbox.Snapshot{MaxMessageID: 10, MaxThreadID: 2, UnreadTotal: 1, ThreadCount: 2}}
	cfg := testInboxConfig()
	cfg.PollInterval = 5 * time.Millisecond
	r := streamTestRouter(messages, cfg)

	go func() {
		time.Sleep(10 * time.Millisecond)
		messages.setSnapshot(inbox.Snapshot{MaxMessageID: 11, MaxThreadID: 2, UnreadTotal: 2, ThreadCount: 2})
	}()

	w := serveStream(r, 60*time.Millisecond)

	body := w.Body.String()
	assert.Contains(t, body, "event:hello")
	assert.Contains(t, body, "event:update")
	assert.Contains(t, body, `"unread_total":2`)
}

func TestStreamKeepalive(t *testing.T) {
	messages := &stubMessages{snapshot: inbox.Snapshot{MaxMessageID: 10}}
	cfg := testInboxConfig()
	cfg.PollInterval = 5 * time.Millisecond
	cfg.HeartbeatInterval = 10 * time.Millisecond
	r := streamTestRouter(messages, cfg)

	w := serveStream(r, 60*time.Millisecond)

	body := w.Body.String()
	assert.Contains(t, body, ": keepalive")
	assert.Equal(t, 1, strings.Count(body, "event:hello"))
}
