package services

import (
	"context"

	"bookline-inbox/internal/domain/message"
)

// Viewer is the authenticated identity resolved by the auth middleware.
type Viewer struct {
	ID          int64
	DefaultRole message.Role
}

type viewerCtxKey struct{}

func WithViewerContext(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, v)
}

func ViewerFromContext(ctx context.Context) (Viewer, bool) {
	v, ok := ctx.Value(viewerCtxKey{}).(Viewer)
	return v, ok
}
