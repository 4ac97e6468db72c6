package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/domain/thread"
	"bookline-inbox/internal/events"
)

// EventPublisher is satisfied by *redis.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Notifier publishes inbox events for the downstream notification
// pipeline (email/SMS/push). Every method returns its error so callers
// can log and discard it; nothing here may fail a request. Publish
// deadlines live in the publisher itself.
type Notifier struct {
	pub EventPublisher
}

func NewNotifier(pub EventPublisher) *Notifier {
	return &Notifier{pub: pub}
}

func userChannel(userID int64) string {
	return fmt.Sprintf("notify:user:%d", userID)
}

type messagePayload struct {
	ThreadID    int64        `json:"thread_id"`
	MessageID   int64        `json:"message_id"`
	SenderID    int64        `json:"sender_id"`
	Type        message.Type `json:"type"`
	UnreadTotal int64        `json:"unread_total"`
}

// MessageCreated notifies the counterpart of a new message. unreadTotal
// is the recipient's inbox-wide unread count after the write, carried so
// push consumers can set the badge without a callback.
func (n *Notifier) MessageCreated(ctx context.Context, t thread.Thread, m message.Message, unreadTotal int64) error {
	if n == nil || n.pub == nil {
		return nil
	}
	eventType := events.MessageCreated
	if m.Type != message.TypeUser {
		eventType = events.SystemMessageCreated
	}
	payload, err := json.Marshal(messagePayload{
		ThreadID:    t.ID,
		MessageID:   m.ID,
		SenderID:    m.SenderID,
		Type:        m.Type,
		UnreadTotal: unreadTotal,
	})
	if err != nil {
		return err
	}
	return n.publish(ctx, eventType, m.ID, t.Counterparty(m.SenderID), payload)
}

// ThreadRead notifies the counterpart that the viewer caught up.
func (n *Notifier) ThreadRead(ctx context.Context, t thread.Thread, viewerID int64) error {
	if n == nil || n.pub == nil {
		return nil
	}
	payload, err := json.Marshal(map[string]int64{"thread_id": t.ID, "reader_id": viewerID})
	if err != nil {
		return err
	}
	return n.publish(ctx, events.ThreadRead, t.ID, t.Counterparty(viewerID), payload)
}

func (n *Notifier) publish(ctx context.Context, eventType string, aggregateID, recipientID int64, payload json.RawMessage) error {
	env := events.Envelope{
		EventType:     eventType,
		AggregateType: "thread",
		AggregateID:   fmt.Sprintf("%d", aggregateID),
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return n.pub.Publish(ctx, userChannel(recipientID), data)
}
