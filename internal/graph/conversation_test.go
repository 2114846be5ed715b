package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-api/internal/apperr"
	"chat-api/internal/models"
)

func TestConversationsRequiresUser(t *testing.T) {
	env := newTestEnv()

	_, err := env.resolver.Conversations(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
	env.conversations.AssertNotCalled(t, "ListForUser", mock.Anything, mock.Anything)
}

func TestConversationsListsForCaller(t *testing.T) {
	env := newTestEnv()
	env.conversations.On("ListForUser", mock.Anything, "alice").
		Return([]models.ConversationDetail{{ID: "conv-1"}, {ID: "conv-2"}}, nil)

	got, err := env.resolver.Conversations(userCtx("alice"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "conv-1", got[0].ID())
	assert.Equal(t, "conv-2", got[1].ID())
	env.conversations.AssertExpectations(t)
}

func TestCreateConversationPublishes(t *testing.T) {
	env := newTestEnv()
	detail := conversationWith("alice", "bob")
	env.conversations.On("CreateWithFirstMessage", mock.Anything, "alice", []string{"bob"}).
		Return(detail, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := env.bus.Subscribe(ctx, models.TopicConversationCreated)

	resp, err := env.resolver.CreateConversation(userCtx("alice"), struct{ ParticipantsIds []string }{
		ParticipantsIds: []string{"bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, detail.ID, resp.ConversationID())

	ev, ok := await(t, events).(models.ConversationCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, detail.ID, ev.Conversation.ID)
	env.conversations.AssertExpectations(t)
}

func TestCreateConversationRejectsEmptyParticipants(t *testing.T) {
	env := newTestEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := env.bus.Subscribe(ctx, models.TopicConversationCreated)

	_, err := env.resolver.CreateConversation(userCtx("alice"), struct{ ParticipantsIds []string }{})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidationFailed, apperr.CodeOf(err))

	env.conversations.AssertNotCalled(t, "CreateWithFirstMessage", mock.Anything, mock.Anything, mock.Anything)
	expectSilence(t, events)
}

func TestCreateConversationFailureDoesNotPublish(t *testing.T) {
	env := newTestEnv()
	env.conversations.On("CreateWithFirstMessage", mock.Anything, "alice", []string{"bob"}).
		Return(nil, apperr.TransactionFailed("error in creating conversation"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := env.bus.Subscribe(ctx, models.TopicConversationCreated)

	_, err := env.resolver.CreateConversation(userCtx("alice"), struct{ ParticipantsIds []string }{
		ParticipantsIds: []string{"bob"},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTransactionFailed, apperr.CodeOf(err))
	expectSilence(t, events)
}

func TestMarkConversationAsRead(t *testing.T) {
	env := newTestEnv()
	env.conversations.On("MarkRead", mock.Anything, "conv-1", "alice").Return(nil)

	ok, err := env.resolver.MarkConversationAsRead(userCtx("alice"), struct {
		UserID         string
		ConversationID string
	}{UserID: "alice", ConversationID: "conv-1"})
	require.NoError(t, err)
	assert.True(t, ok)
	env.conversations.AssertExpectations(t)
}

func TestDeleteConversationPublishesSnapshot(t *testing.T) {
	env := newTestEnv()
	env.conversations.On("Delete", mock.Anything, "conv-1").
		Return([]string{"alice", "bob"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := env.bus.Subscribe(ctx, models.TopicConversationDeleted)

	ok, err := env.resolver.DeleteConversation(userCtx("alice"), struct{ ConversationID string }{
		ConversationID: "conv-1",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ev, isDeleted := await(t, events).(models.ConversationDeletedEvent)
	require.True(t, isDeleted)
	assert.Equal(t, "conv-1", ev.ConversationID)
	assert.Equal(t, []string{"alice", "bob"}, ev.ParticipantUserIDs)
}

func TestDeleteConversationNotFound(t *testing.T) {
	env := newTestEnv()
	env.conversations.On("Delete", mock.Anything, "missing").
		Return(nil, apperr.NotFound("conversation not found"))

	_, err := env.resolver.DeleteConversation(userCtx("alice"), struct{ ConversationID string }{
		ConversationID: "missing",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestUpdateParticipantsForbiddenForOutsiders(t *testing.T) {
	env := newTestEnv()
	env.conversations.On("GetDetail", mock.Anything, "conv-1").
		Return(conversationWith("alice", "bob"), nil)

	_, err := env.resolver.UpdateParticipants(userCtx("mallory"), struct {
		ConversationID string
		ParticipantIds []string
	}{ConversationID: "conv-1", ParticipantIds: []string{"mallory"}})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	env.conversations.AssertNotCalled(t, "UpdateParticipants", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateParticipantsPublishesDiff(t *testing.T) {
	env := newTestEnv()
	env.conversations.On("GetDetail", mock.Anything, "conv-1").
		Return(conversationWith("alice", "bob"), nil)
	updated := conversationWith("alice", "carol")
	env.conversations.On("UpdateParticipants", mock.Anything, "conv-1", []string{"alice", "carol"}).
		Return(updated, []string{"carol"}, []string{"bob"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := env.bus.Subscribe(ctx, models.TopicConversationUpdated)

	ok, err := env.resolver.UpdateParticipants(userCtx("alice"), struct {
		ConversationID string
		ParticipantIds []string
	}{ConversationID: "conv-1", ParticipantIds: []string{"alice", "carol"}})
	require.NoError(t, err)
	assert.True(t, ok)

	ev, isUpdated := await(t, events).(models.ConversationUpdatedEvent)
	require.True(t, isUpdated)
	assert.Equal(t, []string{"carol"}, ev.AddedUserIDs)
	assert.Equal(t, []string{"bob"}, ev.RemovedUserIDs)
	env.conversations.AssertExpectations(t)
}

func TestConversationCreatedSubscriptionFilters(t *testing.T) {
	env := newTestEnv()
	ctx, cancel := context.WithCancel(userCtx("bob"))
	defer cancel()

	out, err := env.resolver.ConversationCreated(ctx)
	require.NoError(t, err)

	env.bus.Publish(models.TopicConversationCreated,
		models.ConversationCreatedEvent{Conversation: conversationWith("alice", "carol")})
	mine := conversationWith("alice", "bob")
	env.bus.Publish(models.TopicConversationCreated,
		models.ConversationCreatedEvent{Conversation: mine})

	// Only the conversation bob belongs to comes through.
	got := await(t, out)
	assert.Equal(t, mine.ID, got.ID())
	expectSilence(t, out)
}

func TestConversationCreatedSubscriptionAllowsAnonymous(t *testing.T) {
	env := newTestEnv()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := env.resolver.ConversationCreated(ctx)
	require.NoError(t, err)

	env.bus.Publish(models.TopicConversationCreated,
		models.ConversationCreatedEvent{Conversation: conversationWith("alice", "bob")})
	expectSilence(t, out)
}

func TestConversationUpdatedSubscriptionRequiresUser(t *testing.T) {
	env := newTestEnv()

	_, err := env.resolver.ConversationUpdated(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
}

func TestConversationUpdatedReachesRemovedUser(t *testing.T) {
	env := newTestEnv()
	ctx, cancel := context.WithCancel(userCtx("bob"))
	defer cancel()

	out, err := env.resolver.ConversationUpdated(ctx)
	require.NoError(t, err)

	// Bob is gone from the participant list but is named in the removals,
	// so the event still reaches him once.
	env.bus.Publish(models.TopicConversationUpdated, models.ConversationUpdatedEvent{
		Conversation:   conversationWith("alice"),
		RemovedUserIDs: []string{"bob"},
	})

	got := await(t, out)
	assert.Equal(t, []string{"bob"}, got.RemovedUserIDs())
}

func TestConversationDeletedSubscription(t *testing.T) {
	env := newTestEnv()
	ctx, cancel := context.WithCancel(userCtx("bob"))
	defer cancel()

	out, err := env.resolver.ConversationDeleted(ctx)
	require.NoError(t, err)

	env.bus.Publish(models.TopicConversationDeleted, models.ConversationDeletedEvent{
		ConversationID:     "conv-other",
		ParticipantUserIDs: []string{"alice", "carol"},
	})
	env.bus.Publish(models.TopicConversationDeleted, models.ConversationDeletedEvent{
		ConversationID:     "conv-1",
		ParticipantUserIDs: []string{"alice", "bob"},
	})

	got := await(t, out)
	assert.Equal(t, "conv-1", got.ID())
	expectSilence(t, out)
}
