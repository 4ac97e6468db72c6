package inbox

import (
	"strings"
	"time"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/domain/thread"
	"bookline-inbox/internal/domain/user"
)

// Semantic preview keys. Clients render these with PreviewArgs instead
// of re-parsing free text.
const (
	KeyNewBookingRequest = "new_booking_request"
	KeyPaymentReceived   = "payment_received"
	KeyEventReminder     = "event_reminder"
	KeyQuoteProvided     = "quote_provided"
	KeySystemNotice      = "system_notice"
	KeyMessage           = "message"
)

// LastMessage is the visibility-masked last message of a thread as shown
// in a preview.
type LastMessage struct {
	ID            int64
	Type          message.Type
	Content       string
	AttachmentURL string
	CreatedAt     time.Time
}

// Meta carries structured event details extracted from the thread.
type Meta struct {
	EventLocation string
	EventDate     *time.Time
}

// ThreadPreview is the per-thread projection consumed by inbox list
// views. It is assembled fresh on every composition and never aliases
// store entities.
type ThreadPreview struct {
	ThreadID         int64
	BookingRequestID *int64
	Counterparty     user.Identity
	LastMessage      *LastMessage
	State            thread.DisplayState
	PreviewKey       string
	PreviewArgs      map[string]string
	UnreadCount      int64
	Meta             *Meta
	LastActivity     time.Time
}

// PreviewKeyFor derives the semantic preview key for a last message.
// System messages resolve through their idempotency key first; the
// content prefix fallback covers rows written before keys were adopted.
func PreviewKeyFor(m *message.Message) string {
	if m == nil {
		return ""
	}
	switch m.Type {
	case message.TypeQuote:
		return KeyQuoteProvided
	case message.TypeSystem:
		if m.IdempotencyKey.Valid {
			kind, _, _ := strings.Cut(m.IdempotencyKey.String, ":")
			switch kind {
			case "booking_request", "new_booking_request":
				return KeyNewBookingRequest
			case "payment", "payment_received":
				return KeyPaymentReceived
			case "reminder", "event_reminder":
				return KeyEventReminder
			case "quote", "quote_provided":
				return KeyQuoteProvided
			}
			return KeySystemNotice
		}
		if strings.HasPrefix(m.Content, "Booking details:") {
			return KeyNewBookingRequest
		}
		return KeySystemNotice
	case message.TypeUser:
		return KeyMessage
	default:
		return KeyMessage
	}
}

// PreviewArgsFor builds the structured arguments for a preview key from
// the thread's event fields.
func PreviewArgsFor(key string, t thread.Thread) map[string]string {
	switch key {
	case KeyNewBookingRequest, KeyEventReminder:
		args := map[string]string{}
		if t.EventLocation.Valid {
			args["location"] = t.EventLocation.String
		}
		if t.EventDate.Valid {
			args["date"] = t.EventDate.Time.Format(time.RFC3339)
		}
		if len(args) == 0 {
			return nil
		}
		return args
	default:
		return nil
	}
}

// MetaFor extracts structured event meta from a thread, or nil when the
// thread carries none.
func MetaFor(t thread.Thread) *Meta {
	if !t.EventLocation.Valid && !t.EventDate.Valid {
		return nil
	}
	m := &Meta{}
	if t.EventLocation.Valid {
		m.EventLocation = t.EventLocation.String
	}
	if t.EventDate.Valid {
		d := t.EventDate.Time
		m.EventDate = &d
	}
	return m
}
