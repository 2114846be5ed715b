package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-api/internal/auth"
	"chat-api/internal/mocks"
	"chat-api/internal/models"
	"chat-api/internal/pubsub"
)

type testEnv struct {
	users         *mocks.UserRepositoryMock
	conversations *mocks.ConversationRepositoryMock
	messages      *mocks.MessageRepositoryMock
	bus           *pubsub.Bus
	resolver      *Resolver
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:         &mocks.UserRepositoryMock{},
		conversations: &mocks.ConversationRepositoryMock{},
		messages:      &mocks.MessageRepositoryMock{},
		bus:           pubsub.NewBus(),
	}
	env.resolver = NewResolver(env.users, env.conversations, env.messages, env.bus, nil)
	return env
}

func userCtx(userID string) context.Context {
	return auth.WithSession(context.Background(), sessionFor(userID))
}

func await[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	var zero T
	return zero
}

func expectSilence[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected event: %v", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNewSchemaParses(t *testing.T) {
	env := newTestEnv()
	if schema := NewSchema(env.resolver); schema == nil {
		t.Fatal("expected a parsed schema")
	}
}

func TestPublishMirrorsCommittedEvents(t *testing.T) {
	env := newTestEnv()
	mirror := &mocks.EventMirrorMock{}
	mirror.On("Mirror", mock.Anything, models.TopicConversationDeleted, mock.Anything).Return(nil)
	env.resolver.mirror = mirror
	env.conversations.On("Delete", mock.Anything, "conv-1").Return([]string{"alice"}, nil)

	_, err := env.resolver.DeleteConversation(userCtx("alice"), struct{ ConversationID string }{
		ConversationID: "conv-1",
	})
	require.NoError(t, err)
	mirror.AssertExpectations(t)
}
