package models

import (
	"database/sql"
	"time"
)

// Conversation is a chat thread. LatestMessageID is a denormalized pointer to
// the most recent message, maintained transactionally and nulled before the
// referenced message may be deleted.
type Conversation struct {
	ID              string         `db:"id" json:"id"`
	LatestMessageID sql.NullString `db:"latest_message_id" json:"latest_message_id"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// ConversationParticipant joins a user to a conversation and carries their
// read state. Unique on (conversation_id, user_id).
type ConversationParticipant struct {
	ID                   string `db:"id" json:"id"`
	ConversationID       string `db:"conversation_id" json:"conversation_id"`
	UserID               string `db:"user_id" json:"user_id"`
	HasSeenLatestMessage bool   `db:"has_seen_latest_message" json:"has_seen_latest_message"`
}

// ParticipantDetail is the participant projection with the user embedded.
type ParticipantDetail struct {
	ID                   string      `json:"id"`
	UserID               string      `json:"user_id"`
	HasSeenLatestMessage bool        `json:"has_seen_latest_message"`
	User                 UserSummary `json:"user"`
}

// ConversationDetail is the fully populated conversation projection shared by
// queries, mutation results and event payloads.
type ConversationDetail struct {
	ID            string              `json:"id"`
	Participants  []ParticipantDetail `json:"participants"`
	LatestMessage *MessageDetail      `json:"latest_message,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
