package inbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterBlocksAtCapacity(t *testing.T) {
	l := NewLimiter(1)

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()

	release2, err := l.Acquire(context.Background())
	require.NoError(t, err)
	release2()
}

func TestLimiterReleaseIsIdempotent(t *testing.T) {
	l := NewLimiter(1)

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)

	// double release must not free a second slot
	release()
	release()

	r1, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.Error(t, err)
}

func TestLimiterCancelledContext(t *testing.T) {
	l := NewLimiter(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLimiterClampsCapacity(t *testing.T) {
	l := NewLimiter(0)
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	release()
}
