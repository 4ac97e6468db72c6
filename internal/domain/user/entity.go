package user

import (
	"database/sql"
	"time"
)

// User represents the users table.
type User struct {
	ID          int64
	DisplayName string
	AvatarURL   sql.NullString
	CreatedAt   time.Time
}

// ProviderProfile carries the business identity a provider presents to
// clients. Optional: plain users have no row.
type ProviderProfile struct {
	UserID       int64
	BusinessName sql.NullString
	LogoURL      sql.NullString
}

// Identity is the display identity shown as a thread counterparty.
type Identity struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ResolveIdentity builds the display identity for a user, preferring the
// business profile's name and logo over the raw user profile.
func ResolveIdentity(u User, p *ProviderProfile) Identity {
	id := Identity{ID: u.ID, Name: u.DisplayName}
	if u.AvatarURL.Valid {
		id.AvatarURL = u.AvatarURL.String
	}
	if p != nil {
		if p.BusinessName.Valid && p.BusinessName.String != "" {
			id.Name = p.BusinessName.String
		}
		if p.LogoURL.Valid && p.LogoURL.String != "" {
			id.AvatarURL = p.LogoURL.String
		}
	}
	return id
}
