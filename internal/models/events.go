package models

// Bus topics for mutation outcomes.
const (
	TopicConversationCreated = "conversation.created"
	TopicConversationUpdated = "conversation.updated"
	TopicConversationDeleted = "conversation.deleted"
	TopicMessageSent         = "message.sent"
)

// ConversationCreatedEvent carries the populated conversation, including its
// first message.
type ConversationCreatedEvent struct {
	Conversation ConversationDetail `json:"conversation"`
}

// ConversationUpdatedEvent carries the resulting participant list plus the
// diff, so subscribers can tell being added apart from being removed.
type ConversationUpdatedEvent struct {
	Conversation   ConversationDetail `json:"conversation"`
	AddedUserIDs   []string           `json:"added_user_ids"`
	RemovedUserIDs []string           `json:"removed_user_ids"`
}

// ConversationDeletedEvent carries the pre-deletion participant snapshot; the
// rows are gone by the time subscribers are evaluated.
type ConversationDeletedEvent struct {
	ConversationID     string   `json:"conversation_id"`
	ParticipantUserIDs []string `json:"participant_user_ids"`
}

// MessageSentEvent carries the new message with the sender embedded.
type MessageSentEvent struct {
	Message MessageDetail `json:"message"`
}
