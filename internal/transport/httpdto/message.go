package httpdto

import (
	"time"

	"bookline-inbox/internal/domain/message"
)

type AppendMessageRequest struct {
	Content       string `json:"content"`
	AttachmentKey string `json:"attachment_key,omitempty"`
}

type ReactionRequest struct {
	MessageID int64  `json:"message_id" binding:"required"`
	Emoji     string `json:"emoji" binding:"required"`
}

type MessageResponse struct {
	ID         int64     `json:"id"`
	ThreadID   int64     `json:"thread_id"`
	SenderID   int64     `json:"sender_id"`
	SenderRole string    `json:"sender_role"`
	Type       string    `json:"type"`
	Visibility string    `json:"visibility"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

func FromMessage(m message.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		ThreadID:   m.ThreadID,
		SenderID:   m.SenderID,
		SenderRole: string(m.SenderRole),
		Type:       string(m.Type),
		Visibility: string(m.Visibility),
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}
