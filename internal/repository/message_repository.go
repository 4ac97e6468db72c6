package repository

import (
	"context"
	"errors"
	"fmt"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/inbox"
	apperrors "bookline-inbox/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type PostgresMessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

const messageColumns = `id, thread_id, sender_id, sender_role, type, visibility, content,
	quote_id, attachment_key, idempotency_key, is_read, created_at, deleted_at`

func scanMessage(row pgx.Row) (message.Message, error) {
	var m message.Message
	err := row.Scan(
		&m.ID, &m.ThreadID, &m.SenderID, &m.SenderRole, &m.Type, &m.Visibility, &m.Content,
		&m.QuoteID, &m.AttachmentKey, &m.IdempotencyKey, &m.IsRead, &m.CreatedAt, &m.DeletedAt,
	)
	return m, err
}

func (r *PostgresMessageRepository) Insert(ctx context.Context, m *message.Message) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO messages (thread_id, sender_id, sender_role, type, visibility, content,
			quote_id, attachment_key, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		m.ThreadID, m.SenderID, m.SenderRole, m.Type, m.Visibility, m.Content,
		m.QuoteID, m.AttachmentKey, m.IdempotencyKey,
	)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert message: %w", apperrors.ErrAlreadyExists)
		}
		return storeErr("insert message", err)
	}
	return nil
}

// CreateOrGetSystemMessage gives at-most-once semantics per
// (thread, idempotency key). A unique-violation race on insert means
// someone else won; the earliest row is re-read and returned unchanged.
func (r *PostgresMessageRepository) CreateOrGetSystemMessage(ctx context.Context, m *message.Message) (message.Message, error) {
	if !m.IdempotencyKey.Valid || m.IdempotencyKey.String == "" {
		return message.Message{}, fmt.Errorf("system message requires idempotency key: %w", apperrors.ErrInvalidInput)
	}

	existing, err := r.getSystemMessage(ctx, m.ThreadID, m.IdempotencyKey.String)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return message.Message{}, storeErr("get system message", err)
	}

	if err := r.Insert(ctx, m); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			won, rerr := r.getSystemMessage(ctx, m.ThreadID, m.IdempotencyKey.String)
			if rerr != nil {
				return message.Message{}, storeErr("reread system message", rerr)
			}
			return won, nil
		}
		return message.Message{}, err
	}
	return *m, nil
}

func (r *PostgresMessageRepository) getSystemMessage(ctx context.Context, threadID int64, key string) (message.Message, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE thread_id = $1 AND idempotency_key = $2
		ORDER BY id ASC
		LIMIT 1`, threadID, key)
	return scanMessage(row)
}

func (r *PostgresMessageRepository) LastVisibleByThread(ctx context.Context, threadIDs []int64, role message.Role) (map[int64]message.Message, error) {
	out := make(map[int64]message.Message, len(threadIDs))
	if len(threadIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ON (thread_id) `+messageColumns+`
		FROM messages
		WHERE thread_id = ANY($1)
		  AND deleted_at IS NULL
		  AND (visibility = 'both' OR visibility = $2)
		ORDER BY thread_id, created_at DESC, id DESC`,
		threadIDs, string(role))
	if err != nil {
		return nil, storeErr("last visible messages", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, storeErr("scan message", err)
		}
		out[m.ThreadID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("last visible messages", err)
	}
	return out, nil
}

func (r *PostgresMessageRepository) UnreadByThread(ctx context.Context, viewerID int64, role message.Role, threadIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(threadIDs))
	if len(threadIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT thread_id, COUNT(*)
		FROM messages
		WHERE thread_id = ANY($1)
		  AND sender_id <> $2
		  AND is_read = FALSE
		  AND deleted_at IS NULL
		  AND (visibility = 'both' OR visibility = $3)
		GROUP BY thread_id`,
		threadIDs, viewerID, string(role))
	if err != nil {
		return nil, storeErr("unread by thread", err)
	}
	defer rows.Close()

	for rows.Next() {
		var threadID, count int64
		if err := rows.Scan(&threadID, &count); err != nil {
			return nil, storeErr("scan unread count", err)
		}
		out[threadID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("unread by thread", err)
	}
	return out, nil
}

func (r *PostgresMessageRepository) TotalUnread(ctx context.Context, viewerID int64, role message.Role) (int64, error) {
	col := threadRoleColumn(role)
	var total int64
	err := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM messages m
		JOIN threads t ON t.id = m.thread_id
		WHERE t.%s = $1
		  AND m.sender_id <> $1
		  AND m.is_read = FALSE
		  AND m.deleted_at IS NULL
		  AND (m.visibility = 'both' OR m.visibility = $2)`, col),
		viewerID, string(role),
	).Scan(&total)
	if err != nil {
		return 0, storeErr("total unread", err)
	}
	return total, nil
}

func (r *PostgresMessageRepository) MarkThreadRead(ctx context.Context, viewerID int64, role message.Role, threadID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE thread_id = $1
		  AND sender_id <> $2
		  AND is_read = FALSE
		  AND deleted_at IS NULL
		  AND (visibility = 'both' OR visibility = $3)`,
		threadID, viewerID, string(role))
	if err != nil {
		return 0, storeErr("mark thread read", err)
	}
	return tag.RowsAffected(), nil
}

// InboxSnapshot runs the whole fingerprint as one statement so the four
// fields come from a single consistent read.
func (r *PostgresMessageRepository) InboxSnapshot(ctx context.Context, viewerID int64, role message.Role) (inbox.Snapshot, error) {
	col := threadRoleColumn(role)
	q := fmt.Sprintf(`
		SELECT
			COALESCE((
				SELECT MAX(m.id) FROM messages m
				JOIN threads t ON t.id = m.thread_id
				WHERE t.%[1]s = $1
				  AND m.deleted_at IS NULL
				  AND (m.visibility = 'both' OR m.visibility = $2)
			), 0) AS max_message_id,
			COALESCE((SELECT MAX(id) FROM threads WHERE %[1]s = $1), 0) AS max_thread_id,
			(
				SELECT COUNT(*) FROM messages m
				JOIN threads t ON t.id = m.thread_id
				WHERE t.%[1]s = $1
				  AND m.sender_id <> $1
				  AND m.is_read = FALSE
				  AND m.deleted_at IS NULL
				  AND (m.visibility = 'both' OR m.visibility = $2)
			) AS unread_total,
			(SELECT COUNT(*) FROM threads WHERE %[1]s = $1) AS thread_count`, col)

	var s inbox.Snapshot
	err := r.db.QueryRow(ctx, q, viewerID, string(role)).
		Scan(&s.MaxMessageID, &s.MaxThreadID, &s.UnreadTotal, &s.ThreadCount)
	if err != nil {
		return inbox.Snapshot{}, storeErr("inbox snapshot", err)
	}
	return s, nil
}

// SoftDelete tombstones a message the sender authored. Ownership is part
// of the predicate, so a foreign or already-deleted row reports ErrNotFound.
func (r *PostgresMessageRepository) SoftDelete(ctx context.Context, id, threadID, senderID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages SET deleted_at = now()
		WHERE id = $1 AND thread_id = $2 AND sender_id = $3 AND deleted_at IS NULL`,
		id, threadID, senderID)
	if err != nil {
		return storeErr("soft delete message", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("soft delete message: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (r *PostgresMessageRepository) AddReaction(ctx context.Context, reaction *message.Reaction) error {
	// Reactions are additive and unique per (message, user, emoji);
	// re-adding the same one is a no-op.
	_, err := r.db.Exec(ctx, `
		INSERT INTO message_reactions (message_id, user_id, emoji)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id, emoji) DO NOTHING`,
		reaction.MessageID, reaction.UserID, reaction.Emoji)
	if err != nil {
		return storeErr("add reaction", err)
	}
	return nil
}

func (r *PostgresMessageRepository) RemoveReaction(ctx context.Context, messageID, userID int64, emoji string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM message_reactions
		WHERE message_id = $1 AND user_id = $2 AND emoji = $3`,
		messageID, userID, emoji)
	if err != nil {
		return storeErr("remove reaction", err)
	}
	return nil
}
