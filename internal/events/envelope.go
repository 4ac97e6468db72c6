package events

import (
	"encoding/json"
	"time"
)

type Envelope struct {
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// Event type names published on message writes.
const (
	MessageCreated       = "message.created"
	SystemMessageCreated = "message.system_created"
	ThreadRead           = "thread.read"
)
