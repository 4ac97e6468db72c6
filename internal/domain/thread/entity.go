package thread

import (
	"database/sql"
	"time"
)

// Status is the workflow status owned by the booking/quote component.
// This service only ever reads it; transitions happen elsewhere.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusPendingQuote     Status = "pending_quote"
	StatusPending          Status = "pending"
	StatusQuoteProvided    Status = "quote_provided"
	StatusConfirmed        Status = "confirmed"
	StatusRequestConfirmed Status = "request_confirmed"
	StatusCompleted        Status = "completed"
	StatusRequestCompleted Status = "request_completed"
	StatusCancelled        Status = "cancelled"
	StatusDeclined         Status = "declined"
	StatusWithdrawn        Status = "withdrawn"
	StatusQuoteRejected    Status = "quote_rejected"
)

// DisplayState is the five-value bucket shown in inbox list views. It is
// derived from Status on every read and never stored.
type DisplayState string

const (
	DisplayRequested DisplayState = "requested"
	DisplayQuoted    DisplayState = "quoted"
	DisplayConfirmed DisplayState = "confirmed"
	DisplayCompleted DisplayState = "completed"
	DisplayCancelled DisplayState = "cancelled"
)

// DisplayState maps the workflow status to its display bucket.
// Unknown statuses read as requested, the earliest bucket.
func (s Status) DisplayState() DisplayState {
	switch s {
	case StatusDraft, StatusPendingQuote, StatusPending:
		return DisplayRequested
	case StatusQuoteProvided:
		return DisplayQuoted
	case StatusConfirmed, StatusRequestConfirmed:
		return DisplayConfirmed
	case StatusCompleted, StatusRequestCompleted:
		return DisplayCompleted
	case StatusCancelled, StatusDeclined, StatusWithdrawn, StatusQuoteRejected:
		return DisplayCancelled
	default:
		return DisplayRequested
	}
}

// OrderType gates thread visibility: a direct order is hidden from the
// inbox until it is paid.
type OrderType string

const (
	OrderStandard    OrderType = "standard"
	OrderDirectOrder OrderType = "direct_order"
)

// Thread represents the threads table. Exactly one client and one
// provider per thread.
type Thread struct {
	ID               int64
	ClientID         int64
	ProviderID       int64
	ServiceID        sql.NullInt64
	ParentThreadID   sql.NullInt64
	BookingRequestID sql.NullInt64
	Status           Status
	OrderType        OrderType
	PaidAt           sql.NullTime
	EventLocation    sql.NullString
	EventDate        sql.NullTime
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Gated reports whether the thread's content sits behind an unmet
// precondition and must be excluded from list views entirely.
func (t Thread) Gated() bool {
	return t.OrderType == OrderDirectOrder && !t.PaidAt.Valid
}

// Counterparty returns the other party's user id for the given viewer.
func (t Thread) Counterparty(viewerID int64) int64 {
	if viewerID == t.ClientID {
		return t.ProviderID
	}
	return t.ClientID
}

// HasParty reports whether viewerID is the client or the provider.
func (t Thread) HasParty(viewerID int64) bool {
	return viewerID == t.ClientID || viewerID == t.ProviderID
}
