package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/domain/thread"
	"bookline-inbox/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	err error
}

func (f *fakeResolver) PresignGet(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + key, nil
}

func TestComposeMasksLastMessageByVisibility(t *testing.T) {
	store := newMemStore()
	th := store.addThread(thread.Thread{ClientID: 1, ProviderID: 2, Status: thread.StatusPending})

	base := time.Now()
	store.addMessage(message.Message{
		ThreadID: th.ID, SenderID: 1, Type: message.TypeUser,
		Visibility: message.VisibilityBoth, Content: "older but visible", CreatedAt: base,
	})
	store.addMessage(message.Message{
		ThreadID: th.ID, SenderID: 2, Type: message.TypeSystem,
		Visibility: message.VisibilityProvider, Content: "provider only", CreatedAt: base.Add(time.Minute),
	})

	composer := NewComposer(store, store, &fakeUsers{}, nil, nil)

	asClient, err := composer.Compose(context.Background(), 1, message.RoleClient, 20)
	require.NoError(t, err)
	require.Len(t, asClient, 1)
	require.NotNil(t, asClient[0].LastMessage)
	assert.Equal(t, "older but visible", asClient[0].LastMessage.Content)

	asProvider, err := composer.Compose(context.Background(), 2, message.RoleProvider, 20)
	require.NoError(t, err)
	require.NotNil(t, asProvider[0].LastMessage)
	assert.Equal(t, "provider only", asProvider[0].LastMessage.Content)
}

func TestComposeOrdersByLastActivity(t *testing.T) {
	store := newMemStore()
	base := time.Now().Add(-24 * time.Hour)

	quiet := store.addThread(thread.Thread{ClientID: 1, ProviderID: 2, CreatedAt: base.Add(2 * time.Hour)})
	busy := store.addThread(thread.Thread{ClientID: 1, ProviderID: 3, CreatedAt: base})
	store.addMessage(message.Message{
		ThreadID: busy.ID, SenderID: 3, Type: message.TypeUser,
		Visibility: message.VisibilityBoth, Content: "new", CreatedAt: base.Add(3 * time.Hour),
	})

	composer := NewComposer(store, store, &fakeUsers{}, nil, nil)
	previews, err := composer.Compose(context.Background(), 1, message.RoleClient, 20)
	require.NoError(t, err)
	require.Len(t, previews, 2)

	assert.Equal(t, busy.ID, previews[0].ThreadID)
	assert.Equal(t, quiet.ID, previews[1].ThreadID)

	// empty thread falls back to its creation time
	assert.Equal(t, quiet.CreatedAt, previews[1].LastActivity)
	assert.Nil(t, previews[1].LastMessage)
}

func TestComposeExcludesGatedThreads(t *testing.T) {
	store := newMemStore()
	store.addThread(thread.Thread{ClientID: 1, ProviderID: 2, OrderType: thread.OrderDirectOrder})
	paid := store.addThread(thread.Thread{
		ClientID: 1, ProviderID: 3, OrderType: thread.OrderDirectOrder,
		PaidAt: sql.NullTime{Time: time.Now(), Valid: true},
	})

	composer := NewComposer(store, store, &fakeUsers{}, nil, nil)
	previews, err := composer.Compose(context.Background(), 1, message.RoleClient, 20)
	require.NoError(t, err)

	require.Len(t, previews, 1)
	assert.Equal(t, paid.ID, previews[0].ThreadID)
}

func TestComposeCounterpartyIdentity(t *testing.T) {
	store := newMemStore()
	th := store.addThread(thread.Thread{ClientID: 1, ProviderID: 2})

	users := &fakeUsers{identities: map[int64]user.Identity{
		2: {ID: 2, Name: "Oslo Catering AS", AvatarURL: "https://img.example.com/logo.png"},
	}}
	composer := NewComposer(store, store, users, nil, nil)

	previews, err := composer.Compose(context.Background(), 1, message.RoleClient, 20)
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, "Oslo Catering AS", previews[0].Counterparty.Name)

	// unknown counterparty degrades to a bare id, never an error
	other := store.addThread(thread.Thread{ClientID: 1, ProviderID: 9})
	previews, err = composer.Compose(context.Background(), 1, message.RoleClient, 20)
	require.NoError(t, err)
	for _, p := range previews {
		if p.ThreadID == other.ID {
			assert.Equal(t, int64(9), p.Counterparty.ID)
			assert.Empty(t, p.Counterparty.Name)
		}
	}

	_ = th
}

func TestComposeAttachmentURL(t *testing.T) {
	store := newMemStore()
	th := store.addThread(thread.Thread{ClientID: 1, ProviderID: 2})
	store.addMessage(message.Message{
		ThreadID: th.ID, SenderID: 2, Type: message.TypeUser,
		Visibility:    message.VisibilityBoth,
		AttachmentKey: sql.NullString{String: "uploads/a.png", Valid: true},
	})

	composer := NewComposer(store, store, &fakeUsers{}, &fakeResolver{}, nil)
	previews, err := composer.Compose(context.Background(), 1, message.RoleClient, 20)
	require.NoError(t, err)
	require.NotNil(t, previews[0].LastMessage)
	assert.Equal(t, "https://cdn.example.com/uploads/a.png", previews[0].LastMessage.AttachmentURL)

	// presign failure drops the URL, not the preview
	composer = NewComposer(store, store, &fakeUsers{}, &fakeResolver{err: errors.New("s3 down")}, nil)
	previews, err = composer.Compose(context.Background(), 1, message.RoleClient, 20)
	require.NoError(t, err)
	require.NotNil(t, previews[0].LastMessage)
	assert.Empty(t, previews[0].LastMessage.AttachmentURL)
}

func TestComposeUnreadCounts(t *testing.T) {
	store := newMemStore()
	th := store.addThread(thread.Thread{ClientID: 1, ProviderID: 2})

	store.addMessage(message.Message{ThreadID: th.ID, SenderID: 2, Type: message.TypeUser, Visibility: message.VisibilityBoth, Content: "a"})
	store.addMessage(message.Message{ThreadID: th.ID, SenderID: 2, Type: message.TypeUser, Visibility: message.VisibilityBoth, Content: "b"})
	// own message never counts as unread
	store.addMessage(message.Message{ThreadID: th.ID, SenderID: 1, Type: message.TypeUser, Visibility: message.VisibilityBoth, Content: "mine"})
	// counterpart-only visibility is masked out of the viewer's count
	store.addMessage(message.Message{ThreadID: th.ID, SenderID: 2, Type: message.TypeSystem, Visibility: message.VisibilityProvider, Content: "hidden"})

	composer := NewComposer(store, store, &fakeUsers{}, nil, nil)
	previews, err := composer.Compose(context.Background(), 1, message.RoleClient, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), previews[0].UnreadCount)
}
