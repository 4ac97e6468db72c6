package repository

import (
	"context"
	"errors"
	"fmt"

	"bookline-inbox/internal/domain/message"
	apperrors "bookline-inbox/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// storeErr wraps a driver error so callers can match ErrStoreUnavailable
// while keeping the cause in the chain.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, errors.Join(apperrors.ErrStoreUnavailable, err))
}

// threadRoleColumn maps a viewer role to the threads column holding that
// party's user id. Roles are validated at the transport boundary; an
// unknown value here is a programming error.
func threadRoleColumn(role message.Role) string {
	if role == message.RoleProvider {
		return "provider_id"
	}
	return "client_id"
}
