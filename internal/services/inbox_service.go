package services

import (
	"context"
	"fmt"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/inbox"
	"bookline-inbox/internal/redis"
	"bookline-inbox/internal/repository"
	"bookline-inbox/pkg/logger"
)

// PreviewCacheStore is the slice of the preview cache the inbox service
// needs; *redis.PreviewCache satisfies it.
type PreviewCacheStore interface {
	Enabled() bool
	GetPreview(ctx context.Context, namespace string, viewerID int64, role message.Role, limit int) (*redis.CachedPreview, error)
	SetPreview(ctx context.Context, namespace string, viewerID int64, role message.Role, limit int, token string, body []byte) error
}

// PreviewRenderer serializes composed previews into the response body
// that gets cached and served. Different endpoints render different
// item shapes over the same projection.
type PreviewRenderer func(items []inbox.ThreadPreview) ([]byte, error)

// PreviewOptions carries per-request knobs for the preview read path.
type PreviewOptions struct {
	Limit       int
	CallerToken string // raw token parsed from If-None-Match, "" if absent
	SkipCache   bool   // caller just wrote; bypass the cache this once
}

// PreviewResult is either a not-modified signal or a body with its token.
type PreviewResult struct {
	NotModified bool
	Token       string
	Body        []byte
}

// UnreadResult mirrors PreviewResult for the unread-total endpoint.
type UnreadResult struct {
	NotModified bool
	Token       string
	Total       int64
}

// InboxService orchestrates the inbox read paths: token pre-checks,
// cache, limiter-guarded snapshot and composition.
type InboxService struct {
	composer *Composer
	messages repository.MessageRepository
	cache    PreviewCacheStore
	limiter  *inbox.Limiter
	log      *logger.Logger
}

func NewInboxService(composer *Composer, messages repository.MessageRepository, cache PreviewCacheStore, limiter *inbox.Limiter, log *logger.Logger) *InboxService {
	if limiter == nil {
		limiter = inbox.StoreLimiter()
	}
	return &InboxService{composer: composer, messages: messages, cache: cache, limiter: limiter, log: log}
}

func tokenPrefix(namespace string, role message.Role, limit int) string {
	return fmt.Sprintf("%s:%s:%d", namespace, role, limit)
}

// ComposePage serves one conditional preview request.
//
// Two pre-checks run before full composition: the cached token answers
// not-modified without touching the store at all, and the fresh
// snapshot token catches the window where the cache expired but
// nothing changed.
func (s *InboxService) ComposePage(ctx context.Context, viewerID int64, role message.Role, namespace string, opts PreviewOptions, render PreviewRenderer) (PreviewResult, error) {
	prefix := tokenPrefix(namespace, role, opts.Limit)

	var cached *redis.CachedPreview
	useCache := s.cache != nil && s.cache.Enabled() && !opts.SkipCache
	if useCache {
		var err error
		cached, err = s.cache.GetPreview(ctx, namespace, viewerID, role, opts.Limit)
		if err != nil {
			if s.log != nil {
				s.log.Warnf("preview cache read failed, recomputing: %v", err)
			}
			cached = nil
		}
		if cached != nil && opts.CallerToken != "" && cached.Token == opts.CallerToken {
			return PreviewResult{NotModified: true, Token: cached.Token}, nil
		}
	}

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return PreviewResult{}, err
	}
	defer release()

	snap, err := s.messages.InboxSnapshot(ctx, viewerID, role)
	if err != nil {
		return PreviewResult{}, err
	}
	token := inbox.DeriveToken(prefix, viewerID, snap)

	if opts.CallerToken != "" && opts.CallerToken == token {
		return PreviewResult{NotModified: true, Token: token}, nil
	}
	if cached != nil && cached.Token == token {
		return PreviewResult{Token: token, Body: cached.Body}, nil
	}

	items, err := s.composer.Compose(ctx, viewerID, role, opts.Limit)
	if err != nil {
		return PreviewResult{}, err
	}
	body, err := render(items)
	if err != nil {
		return PreviewResult{}, err
	}

	if useCache {
		if err := s.cache.SetPreview(ctx, namespace, viewerID, role, opts.Limit, token, body); err != nil && s.log != nil {
			s.log.Warnf("preview cache write failed: %v", err)
		}
	}
	return PreviewResult{Token: token, Body: body}, nil
}

// Unread serves the unread-total endpoint under the same conditional
// contract; the total rides on the snapshot, so no extra query.
func (s *InboxService) Unread(ctx context.Context, viewerID int64, role message.Role, callerToken string) (UnreadResult, error) {
	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return UnreadResult{}, err
	}
	defer release()

	snap, err := s.messages.InboxSnapshot(ctx, viewerID, role)
	if err != nil {
		return UnreadResult{}, err
	}
	token := inbox.DeriveToken("unread:"+string(role), viewerID, snap)
	if callerToken != "" && callerToken == token {
		return UnreadResult{NotModified: true, Token: token}, nil
	}
	return UnreadResult{Token: token, Total: snap.UnreadTotal}, nil
}

// SnapshotToken is the push loop's poll: one limiter-guarded aggregate
// returning the snapshot and its stream token.
func (s *InboxService) SnapshotToken(ctx context.Context, viewerID int64, role message.Role) (inbox.Snapshot, string, error) {
	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return inbox.Snapshot{}, "", err
	}
	defer release()

	snap, err := s.messages.InboxSnapshot(ctx, viewerID, role)
	if err != nil {
		return inbox.Snapshot{}, "", err
	}
	return snap, inbox.DeriveToken("stream:"+string(role), viewerID, snap), nil
}
