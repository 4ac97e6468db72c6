package message

import (
	"database/sql"
	"time"
)

// Role identifies which side of a thread a sender or viewer is on.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleClient, RoleProvider:
		return true
	}
	return false
}

// Counterpart returns the role on the other side of a thread.
func (r Role) Counterpart() Role {
	if r == RoleProvider {
		return RoleClient
	}
	return RoleProvider
}

// Type classifies message content.
type Type string

const (
	TypeUser   Type = "user"
	TypeSystem Type = "system"
	TypeQuote  Type = "quote"
)

// Visibility restricts which role may see a message.
type Visibility string

const (
	VisibilityBoth     Visibility = "both"
	VisibilityClient   Visibility = "client"
	VisibilityProvider Visibility = "provider"
)

// VisibleTo reports whether a message with this visibility may surface
// to a viewer with the given role.
func (v Visibility) VisibleTo(r Role) bool {
	switch v {
	case VisibilityBoth:
		return true
	case VisibilityClient:
		return r == RoleClient
	case VisibilityProvider:
		return r == RoleProvider
	default:
		return false
	}
}

// Message represents the messages table. Messages are append-only; the
// only mutations after insert are the read flag and soft deletion.
type Message struct {
	ID             int64
	ThreadID       int64
	SenderID       int64
	SenderRole     Role
	Type           Type
	Visibility     Visibility
	Content        string
	QuoteID        sql.NullInt64
	AttachmentKey  sql.NullString
	IdempotencyKey sql.NullString
	IsRead         bool
	CreatedAt      time.Time
	DeletedAt      sql.NullTime
}

// Reaction represents message_reactions, unique per (message, user, emoji).
type Reaction struct {
	ID        int64
	MessageID int64
	UserID    int64
	Emoji     string
	CreatedAt time.Time
}
