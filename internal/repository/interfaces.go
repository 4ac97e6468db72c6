package repository

import (
	"context"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/domain/thread"
	"bookline-inbox/internal/domain/user"
	"bookline-inbox/internal/inbox"
)

type ThreadRepository interface {
	GetByID(ctx context.Context, id int64) (thread.Thread, error)

	// ListForViewer returns the viewer's threads ordered by most recent
	// visible-message timestamp (thread creation time when empty),
	// descending, ties broken by thread id descending. Gated threads are
	// excluded entirely.
	ListForViewer(ctx context.Context, viewerID int64, role message.Role, limit int) ([]thread.Thread, error)
}

type MessageRepository interface {
	Insert(ctx context.Context, m *message.Message) error

	// CreateOrGetSystemMessage inserts a system message keyed by
	// (threadID, key), or returns the earliest existing row unchanged.
	CreateOrGetSystemMessage(ctx context.Context, m *message.Message) (message.Message, error)

	// LastVisibleByThread returns, per thread, the newest non-deleted
	// message whose visibility includes role. One query for all threads.
	LastVisibleByThread(ctx context.Context, threadIDs []int64, role message.Role) (map[int64]message.Message, error)

	// UnreadByThread returns unread counts per thread for the viewer.
	UnreadByThread(ctx context.Context, viewerID int64, role message.Role, threadIDs []int64) (map[int64]int64, error)

	TotalUnread(ctx context.Context, viewerID int64, role message.Role) (int64, error)

	// MarkThreadRead flips the read flag on all counterpart-authored
	// messages visible to the viewer. Idempotent; returns rows flipped.
	MarkThreadRead(ctx context.Context, viewerID int64, role message.Role, threadID int64) (int64, error)

	// InboxSnapshot computes the viewer's inbox fingerprint in one
	// aggregate query.
	InboxSnapshot(ctx context.Context, viewerID int64, role message.Role) (inbox.Snapshot, error)

	// SoftDelete tombstones the sender's own message; rows outside the
	// thread, authored by someone else, or already deleted report
	// ErrNotFound.
	SoftDelete(ctx context.Context, id, threadID, senderID int64) error

	AddReaction(ctx context.Context, r *message.Reaction) error
	RemoveReaction(ctx context.Context, messageID, userID int64, emoji string) error
}

type UserRepository interface {
	// GetIdentities bulk-resolves display identities, applying
	// provider/business profile precedence over the raw user profile.
	GetIdentities(ctx context.Context, ids []int64) (map[int64]user.Identity, error)
}
