package graph

import (
	"chat-api/internal/apperr"
	"chat-api/internal/auth"
	"chat-api/internal/models"
)

// Visibility predicates deciding, per subscriber, whether an event is
// forwarded. They are pure functions over (event, session) so the mutation
// and subscription paths can be tested without a live connection.

// ConversationCreatedVisible forwards the event to the new participants. An
// anonymous subscriber simply never matches.
func ConversationCreatedVisible(ev models.ConversationCreatedEvent, session *auth.Session) bool {
	if session == nil {
		return false
	}
	return auth.IsParticipant(ev.Conversation.Participants, session.User.ID)
}

// ConversationUpdatedVisible forwards the event to current participants, to
// the sender of the latest message, and to users being removed. The removed
// user gets the one final update that tells them so.
func ConversationUpdatedVisible(ev models.ConversationUpdatedEvent, session *auth.Session) (bool, error) {
	if session == nil {
		return false, apperr.Unauthorized("not authorized")
	}
	userID := session.User.ID

	isParticipant := auth.IsParticipant(ev.Conversation.Participants, userID)
	sentLatestMessage := ev.Conversation.LatestMessage != nil &&
		ev.Conversation.LatestMessage.SenderID == userID
	isBeingRemoved := containsID(ev.RemovedUserIDs, userID)

	return (isParticipant && !sentLatestMessage) || sentLatestMessage || isBeingRemoved, nil
}

// ConversationDeletedVisible forwards the event to the pre-deletion
// participants carried in the event snapshot; the rows themselves are gone.
func ConversationDeletedVisible(ev models.ConversationDeletedEvent, session *auth.Session) (bool, error) {
	if session == nil {
		return false, apperr.Unauthorized("not authorized")
	}
	return containsID(ev.ParticipantUserIDs, session.User.ID), nil
}

// MessageSentVisible matches on the subscription's requested conversation.
// Membership was verified when the subscription was established.
func MessageSentVisible(ev models.MessageSentEvent, conversationID string) bool {
	return ev.Message.ConversationID == conversationID
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
