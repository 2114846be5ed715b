package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-api/internal/apperr"
	"chat-api/internal/auth"
	"chat-api/internal/models"
)

func sessionFor(userID string) *auth.Session {
	session := &auth.Session{}
	session.User.ID = userID
	return session
}

func conversationWith(userIDs ...string) models.ConversationDetail {
	detail := models.ConversationDetail{ID: "conv-1"}
	for _, id := range userIDs {
		detail.Participants = append(detail.Participants, models.ParticipantDetail{
			ID:     "p-" + id,
			UserID: id,
			User:   models.UserSummary{ID: id},
		})
	}
	return detail
}

func TestConversationCreatedVisible(t *testing.T) {
	ev := models.ConversationCreatedEvent{Conversation: conversationWith("alice", "bob")}

	assert.True(t, ConversationCreatedVisible(ev, sessionFor("bob")))
	assert.False(t, ConversationCreatedVisible(ev, sessionFor("mallory")))
	assert.False(t, ConversationCreatedVisible(ev, nil), "anonymous subscribers never match")
}

func TestConversationUpdatedVisibleParticipant(t *testing.T) {
	ev := models.ConversationUpdatedEvent{Conversation: conversationWith("alice", "bob")}

	visible, err := ConversationUpdatedVisible(ev, sessionFor("bob"))
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = ConversationUpdatedVisible(ev, sessionFor("mallory"))
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestConversationUpdatedVisibleLatestMessageSender(t *testing.T) {
	conv := conversationWith("alice", "bob")
	conv.LatestMessage = &models.MessageDetail{ID: "m-1", SenderID: "alice"}
	ev := models.ConversationUpdatedEvent{Conversation: conv}

	// The sender still matches even though the "participant who did not
	// send" branch excludes them.
	visible, err := ConversationUpdatedVisible(ev, sessionFor("alice"))
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = ConversationUpdatedVisible(ev, sessionFor("bob"))
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestConversationUpdatedVisibleRemovedUser(t *testing.T) {
	// Bob was removed: no longer in the participant list, but the event
	// still reaches him once.
	ev := models.ConversationUpdatedEvent{
		Conversation:   conversationWith("alice"),
		RemovedUserIDs: []string{"bob"},
	}

	visible, err := ConversationUpdatedVisible(ev, sessionFor("bob"))
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = ConversationUpdatedVisible(ev, sessionFor("mallory"))
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestConversationUpdatedVisibleAnonymous(t *testing.T) {
	ev := models.ConversationUpdatedEvent{Conversation: conversationWith("alice")}

	_, err := ConversationUpdatedVisible(ev, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
}

func TestConversationDeletedVisible(t *testing.T) {
	ev := models.ConversationDeletedEvent{
		ConversationID:     "conv-1",
		ParticipantUserIDs: []string{"alice", "bob"},
	}

	visible, err := ConversationDeletedVisible(ev, sessionFor("alice"))
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = ConversationDeletedVisible(ev, sessionFor("mallory"))
	require.NoError(t, err)
	assert.False(t, visible)

	_, err = ConversationDeletedVisible(ev, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
}

func TestMessageSentVisible(t *testing.T) {
	ev := models.MessageSentEvent{Message: models.MessageDetail{ID: "m-1", ConversationID: "conv-1"}}

	assert.True(t, MessageSentVisible(ev, "conv-1"))
	assert.False(t, MessageSentVisible(ev, "conv-2"))
}
