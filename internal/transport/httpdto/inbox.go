package httpdto

import (
	"encoding/json"
	"time"

	"bookline-inbox/internal/inbox"
)

type Counterparty struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type LastMessage struct {
	ID            int64     `json:"id"`
	Type          string    `json:"type"`
	Content       string    `json:"content"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type ThreadMeta struct {
	EventLocation string     `json:"event_location,omitempty"`
	EventDate     *time.Time `json:"event_date,omitempty"`
}

// PreviewItem is the compact per-thread shape of /threads/preview.
type PreviewItem struct {
	ThreadID     int64             `json:"thread_id"`
	Counterparty Counterparty      `json:"counterparty"`
	LastMessage  *LastMessage      `json:"last_message,omitempty"`
	State        string            `json:"state"`
	PreviewKey   string            `json:"preview_key,omitempty"`
	PreviewArgs  map[string]string `json:"preview_args,omitempty"`
	UnreadCount  int64             `json:"unread_count"`
	LastActivity time.Time         `json:"last_activity_at"`
}

// ThreadItem is the unified-index shape of /threads: the preview fields
// plus an explicit booking request reference and structured meta.
type ThreadItem struct {
	PreviewItem
	BookingRequestID *int64      `json:"booking_request_id"`
	Meta             *ThreadMeta `json:"meta,omitempty"`
}

// Page is the list envelope. NextCursor is reserved and currently
// always null.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
}

type UnreadResponse struct {
	Total int64 `json:"total"`
}

// StreamPayload is the body of hello and update stream events.
type StreamPayload struct {
	Token       string `json:"token"`
	MaxMsgID    int64  `json:"max_msg_id"`
	MaxBrID     int64  `json:"max_br_id"`
	UnreadTotal int64  `json:"unread_total"`
	ThreadCount int64  `json:"thread_count"`
}

func NewStreamPayload(token string, s inbox.Snapshot) StreamPayload {
	return StreamPayload{
		Token:       token,
		MaxMsgID:    s.MaxMessageID,
		MaxBrID:     s.MaxThreadID,
		UnreadTotal: s.UnreadTotal,
		ThreadCount: s.ThreadCount,
	}
}

func fromPreview(p inbox.ThreadPreview) PreviewItem {
	item := PreviewItem{
		ThreadID: p.ThreadID,
		Counterparty: Counterparty{
			ID:        p.Counterparty.ID,
			Name:      p.Counterparty.Name,
			AvatarURL: p.Counterparty.AvatarURL,
		},
		State:        string(p.State),
		PreviewKey:   p.PreviewKey,
		PreviewArgs:  p.PreviewArgs,
		UnreadCount:  p.UnreadCount,
		LastActivity: p.LastActivity,
	}
	if p.LastMessage != nil {
		item.LastMessage = &LastMessage{
			ID:            p.LastMessage.ID,
			Type:          string(p.LastMessage.Type),
			Content:       p.LastMessage.Content,
			AttachmentURL: p.LastMessage.AttachmentURL,
			CreatedAt:     p.LastMessage.CreatedAt,
		}
	}
	return item
}

func fromThread(p inbox.ThreadPreview) ThreadItem {
	item := ThreadItem{PreviewItem: fromPreview(p), BookingRequestID: p.BookingRequestID}
	if p.Meta != nil {
		item.Meta = &ThreadMeta{
			EventLocation: p.Meta.EventLocation,
			EventDate:     p.Meta.EventDate,
		}
	}
	return item
}

// RenderPreviewPage serializes previews in the /threads/preview shape.
func RenderPreviewPage(previews []inbox.ThreadPreview) ([]byte, error) {
	items := make([]PreviewItem, 0, len(previews))
	for _, p := range previews {
		items = append(items, fromPreview(p))
	}
	return json.Marshal(Page[PreviewItem]{Items: items})
}

// RenderThreadPage serializes previews in the /threads shape.
func RenderThreadPage(previews []inbox.ThreadPreview) ([]byte, error) {
	items := make([]ThreadItem, 0, len(previews))
	for _, p := range previews {
		items = append(items, fromThread(p))
	}
	return json.Marshal(Page[ThreadItem]{Items: items})
}
