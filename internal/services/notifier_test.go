package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"bookline-inbox/internal/domain/message"
	"bookline-inbox/internal/domain/thread"
	"bookline-inbox/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierMessageCreated(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub)

	th := thread.Thread{ID: 3, ClientID: 1, ProviderID: 2}
	m := message.Message{ID: 42, ThreadID: 3, SenderID: 1, Type: message.TypeUser}

	require.NoError(t, n.MessageCreated(context.Background(), th, m, 7))
	require.Len(t, pub.channels, 1)

	// delivered to the counterpart of the sender
	assert.Equal(t, "notify:user:2", pub.channels[0])

	var env events.Envelope
	require.NoError(t, json.Unmarshal(pub.payloads[0], &env))
	assert.Equal(t, events.MessageCreated, env.EventType)
	assert.Equal(t, "thread", env.AggregateType)
	assert.Equal(t, "42", env.AggregateID)

	var payload struct {
		ThreadID    int64 `json:"thread_id"`
		UnreadTotal int64 `json:"unread_total"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, int64(3), payload.ThreadID)
	assert.Equal(t, int64(7), payload.UnreadTotal)
}

func TestNotifierSystemMessageEventType(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub)

	th := thread.Thread{ID: 3, ClientID: 1, ProviderID: 2}
	m := message.Message{ID: 43, ThreadID: 3, SenderID: 2, Type: message.TypeSystem}

	require.NoError(t, n.MessageCreated(context.Background(), th, m, 1))

	var env events.Envelope
	require.NoError(t, json.Unmarshal(pub.payloads[0], &env))
	assert.Equal(t, events.SystemMessageCreated, env.EventType)
	assert.Equal(t, "notify:user:1", pub.channels[0])
}

func TestNotifierThreadRead(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub)

	th := thread.Thread{ID: 9, ClientID: 1, ProviderID: 2}
	require.NoError(t, n.ThreadRead(context.Background(), th, 1))

	assert.Equal(t, "notify:user:2", pub.channels[0])

	var env events.Envelope
	require.NoError(t, json.Unmarshal(pub.payloads[0], &env))
	assert.Equal(t, events.ThreadRead, env.EventType)
}

func TestNotifierPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("redis down")}
	n := NewNotifier(pub)

	err := n.MessageCreated(context.Background(), thread.Thread{ID: 1, ClientID: 1, ProviderID: 2}, message.Message{ID: 1, SenderID: 1, Type: message.TypeUser}, 0)
	assert.Error(t, err)
}

func TestNotifierNilSafe(t *testing.T) {
	var n *Notifier
	assert.NoError(t, n.MessageCreated(context.Background(), thread.Thread{}, message.Message{}, 0))
	assert.NoError(t, n.ThreadRead(context.Background(), thread.Thread{}, 1))
}
