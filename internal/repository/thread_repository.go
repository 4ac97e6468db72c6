package repository

import (
	"context"
	"fmt"
	"time"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/domain/thread"
)

type PostgresThreadRepository struct {
	db DBTX
}

func NewThreadRepository(db DBTX) ThreadRepository {
	return &PostgresThreadRepository{db: db}
}

const threadColumns = `id, client_id, provider_id, service_id, parent_thread_id, booking_request_id,
	status, order_type, paid_at, event_location, event_date, created_at, updated_at`

func scanThread(row interface{ Scan(dest ...any) error }) (thread.Thread, error) {
	var t thread.Thread
	err := row.Scan(
		&t.ID, &t.ClientID, &t.ProviderID, &t.ServiceID, &t.ParentThreadID, &t.BookingRequestID,
		&t.Status, &t.OrderType, &t.PaidAt, &t.EventLocation, &t.EventDate, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *PostgresThreadRepository) GetByID(ctx context.Context, id int64) (thread.Thread, error) {
	row := r.db.QueryRow(ctx, `SELECT `+threadColumns+` FROM threads WHERE id = $1`, id)
	t, err := scanThread(row)
	if err != nil {
		return thread.Thread{}, storeErr("get thread", err)
	}
	return t, nil
}

func (r *PostgresThreadRepository) ListForViewer(ctx context.Context, viewerID int64, role message.Role, limit int) ([]thread.Thread, error) {
	col := threadRoleColumn(role)
	// Ordering key: newest message visible to this role, or thread
	// creation time for threads without one. Unpaid direct orders are
	// excluded outright.
	q := fmt.Sprintf(`
		SELECT %s,
			COALESCE((
				SELECT MAX(m.created_at) FROM messages m
				WHERE m.thread_id = t.id
				  AND m.deleted_at IS NULL
				  AND (m.visibility = 'both' OR m.visibility = $2)
			), t.created_at) AS last_activity
		FROM threads t
		WHERE t.%s = $1
		  AND NOT (t.order_type = 'direct_order' AND t.paid_at IS NULL)
		ORDER BY last_activity DESC, t.id DESC
		LIMIT $3`,
		prefixedThreadColumns("t"), col)

	rows, err := r.db.Query(ctx, q, viewerID, string(role), limit)
	if err != nil {
		return nil, storeErr("list threads", err)
	}
	defer rows.Close()

	var threads []thread.Thread
	for rows.Next() {
		var t thread.Thread
		var lastActivity time.Time
		if err := rows.Scan(
			&t.ID, &t.ClientID, &t.ProviderID, &t.ServiceID, &t.ParentThreadID, &t.BookingRequestID,
			&t.Status, &t.OrderType, &t.PaidAt, &t.EventLocation, &t.EventDate, &t.CreatedAt, &t.UpdatedAt,
			&lastActivity,
		); err != nil {
			return nil, storeErr("scan thread", err)
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list threads", err)
	}
	return threads, nil
}

func prefixedThreadColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.client_id, %[1]s.provider_id, %[1]s.service_id, %[1]s.parent_thread_id,
		%[1]s.booking_request_id, %[1]s.status, %[1]s.order_type, %[1]s.paid_at, %[1]s.event_location,
		%[1]s.event_date, %[1]s.created_at, %[1]s.updated_at`, alias)
}
