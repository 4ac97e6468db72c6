package apperrors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyExists    = errors.New("already exists")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
