package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/domain/thread"
	"bookline-inbox/internal/domain/user"
	"bookline-inbox/internal/inbox"
	"bookline-inbox/internal/redis"
	apperrors "bookline-inbox/pkg/errors"
)

// memStore is an in-memory stand-in for both repositories, backed by
// plain slices and applying the same visibility and gating rules the
// SQL layer does.
type memStore struct {
	threads  []thread.Thread
	messages []message.Message
	nextID   int64

	listErr     error
	snapshotErr error

	snapshotCalls int
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (s *memStore) addThread(t thread.Thread) thread.Thread {
	if t.ID == 0 {
		t.ID = s.nextID
		s.nextID++
	} else if t.ID >= s.nextID {
		s.nextID = t.ID + 1
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().Add(-time.Hour)
	}
	s.threads = append(s.threads, t)
	return t
}

func (s *memStore) addMessage(m message.Message) message.Message {
	if m.ID == 0 {
		m.ID = s.nextID
		s.nextID++
	} else if m.ID >= s.nextID {
		s.nextID = m.ID + 1
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.messages = append(s.messages, m)
	return m
}

func (s *memStore) viewerThreads(viewerID int64, role message.Role) []thread.Thread {
	var out []thread.Thread
	for _, t := range s.threads {
		if role == message.RoleClient && t.ClientID != viewerID {
			continue
		}
		if role == message.RoleProvider && t.ProviderID != viewerID {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ThreadRepository

func (s *memStore) GetByID(_ context.Context, id int64) (thread.Thread, error) {
	for _, t := range s.threads {
		if t.ID == id {
			return t, nil
		}
	}
	return thread.Thread{}, fmt.Errorf("thread %d: %w", id, apperrors.ErrNotFound)
}

func (s *memStore) ListForViewer(_ context.Context, viewerID int64, role message.Role, limit int) ([]thread.Thread, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []thread.Thread
	activity := map[int64]time.Time{}
	for _, t := range s.viewerThreads(viewerID, role) {
		if t.Gated() {
			continue
		}
		activity[t.ID] = t.CreatedAt
		for _, m := range s.messages {
			if m.ThreadID == t.ID && !m.DeletedAt.Valid && m.Visibility.VisibleTo(role) && m.CreatedAt.After(activity[t.ID]) {
				activity[t.ID] = m.CreatedAt
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := activity[out[i].ID], activity[out[j].ID]
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MessageRepository

func (s *memStore) Insert(_ context.Context, m *message.Message) error {
	if m.IdempotencyKey.Valid {
		for _, existing := range s.messages {
			if existing.ThreadID == m.ThreadID && existing.IdempotencyKey.Valid &&
				existing.IdempotencyKey.String == m.IdempotencyKey.String {
				return fmt.Errorf("insert message: %w", apperrors.ErrAlreadyExists)
			}
		}
	}
	*m = s.addMessage(*m)
	return nil
}

func (s *memStore) CreateOrGetSystemMessage(ctx context.Context, m *message.Message) (message.Message, error) {
	if !m.IdempotencyKey.Valid || m.IdempotencyKey.String == "" {
		return message.Message{}, fmt.Errorf("system message requires idempotency key: %w", apperrors.ErrInvalidInput)
	}
	for _, existing := range s.messages {
		if existing.ThreadID == m.ThreadID && existing.IdempotencyKey.Valid &&
			existing.IdempotencyKey.String == m.IdempotencyKey.String {
			return existing, nil
		}
	}
	if err := s.Insert(ctx, m); err != nil {
		return message.Message{}, err
	}
	return *m, nil
}

func (s *memStore) LastVisibleByThread(_ context.Context, threadIDs []int64, role message.Role) (map[int64]message.Message, error) {
	wanted := map[int64]bool{}
	for _, id := range threadIDs {
		wanted[id] = true
	}
	out := map[int64]message.Message{}
	for _, m := range s.messages {
		if !wanted[m.ThreadID] || m.DeletedAt.Valid || !m.Visibility.VisibleTo(role) {
			continue
		}
		cur, ok := out[m.ThreadID]
		if !ok || m.CreatedAt.After(cur.CreatedAt) || (m.CreatedAt.Equal(cur.CreatedAt) && m.ID > cur.ID) {
			out[m.ThreadID] = m
		}
	}
	return out, nil
}

func (s *memStore) UnreadByThread(_ context.Context, viewerID int64, role message.Role, threadIDs []int64) (map[int64]int64, error) {
	wanted := map[int64]bool{}
	for _, id := range threadIDs {
		wanted[id] = true
	}
	out := map[int64]int64{}
	for _, m := range s.messages {
		if wanted[m.ThreadID] && m.SenderID != viewerID && !m.IsRead && !m.DeletedAt.Valid && m.Visibility.VisibleTo(role) {
			out[m.ThreadID]++
		}
	}
	return out, nil
}

func (s *memStore) TotalUnread(ctx context.Context, viewerID int64, role message.Role) (int64, error) {
	snap, err := s.InboxSnapshot(ctx, viewerID, role)
	if err != nil {
		return 0, err
	}
	return snap.UnreadTotal, nil
}

func (s *memStore) MarkThreadRead(_ context.Context, viewerID int64, role message.Role, threadID int64) (int64, error) {
	var flipped int64
	for i, m := range s.messages {
		if m.ThreadID == threadID && m.SenderID != viewerID && !m.IsRead && !m.DeletedAt.Valid && m.Visibility.VisibleTo(role) {
			s.messages[i].IsRead = true
			flipped++
		}
	}
	return flipped, nil
}

func (s *memStore) InboxSnapshot(_ context.Context, viewerID int64, role message.Role) (inbox.Snapshot, error) {
	s.snapshotCalls++
	if s.snapshotErr != nil {
		return inbox.Snapshot{}, s.snapshotErr
	}
	var snap inbox.Snapshot
	mine := map[int64]bool{}
	for _, t := range s.viewerThreads(viewerID, role) {
		mine[t.ID] = true
		snap.ThreadCount++
		if t.ID > snap.MaxThreadID {
			snap.MaxThreadID = t.ID
		}
	}
	for _, m := range s.messages {
		if !mine[m.ThreadID] || m.DeletedAt.Valid || !m.Visibility.VisibleTo(role) {
			continue
		}
		if m.ID > snap.MaxMessageID {
			snap.MaxMessageID = m.ID
		}
		if m.SenderID != viewerID && !m.IsRead {
			snap.UnreadTotal++
		}
	}
	return snap, nil
}

func (s *memStore) SoftDelete(_ context.Context, id, threadID, senderID int64) error {
	for i, m := range s.messages {
		if m.ID == id && m.ThreadID == threadID && m.SenderID == senderID && !m.DeletedAt.Valid {
			s.messages[i].DeletedAt.Valid = true
			s.messages[i].DeletedAt.Time = time.Now()
			return nil
		}
	}
	return fmt.Errorf("soft delete message: %w", apperrors.ErrNotFound)
}

func (s *memStore) AddReaction(_ context.Context, r *message.Reaction) error { return nil }

func (s *memStore) RemoveReaction(_ context.Context, messageID, userID int64, emoji string) error {
	return nil
}

// fakeUsers resolves identities from a fixed map.
type fakeUsers struct {
	identities map[int64]user.Identity
}

func (f *fakeUsers) GetIdentities(_ context.Context, ids []int64) (map[int64]user.Identity, error) {
	out := map[int64]user.Identity{}
	for _, id := range ids {
		if ident, ok := f.identities[id]; ok {
			out[id] = ident
		}
	}
	return out, nil
}

// fakeCache is an in-memory PreviewCacheStore with fault injection.
type fakeCache struct {
	enabled bool
	entries map[string]*redis.CachedPreview

	getErr error
	setErr error

	gets int
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{enabled: true, entries: map[string]*redis.CachedPreview{}}
}

func cacheKey(namespace string, viewerID int64, role message.Role, limit int) string {
	return fmt.Sprintf("%s:%d:%s:%d", namespace, viewerID, role, limit)
}

func (f *fakeCache) Enabled() bool { return f.enabled }

func (f *fakeCache) GetPreview(_ context.Context, namespace string, viewerID int64, role message.Role, limit int) (*redis.CachedPreview, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[cacheKey(namespace, viewerID, role, limit)], nil
}

func (f *fakeCache) SetPreview(_ context.Context, namespace string, viewerID int64, role message.Role, limit int, token string, body []byte) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[cacheKey(namespace, viewerID, role, limit)] = &redis.CachedPreview{Token: token, Body: body}
	return nil
}

// fakePublisher records published payloads. Mutex-guarded because the
// message service publishes from a detached goroutine.
type fakePublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakePublisher) published() (channels []string, payloads [][]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.channels...), append([][]byte(nil), f.payloads...)
}
