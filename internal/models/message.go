package models

import "time"

// Message is immutable once created; it is removed only when its conversation
// is deleted. The id is supplied by the client and acts as an idempotency key.
type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	Body           string    `db:"body" json:"body"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// MessageDetail is the message projection with the sender embedded.
type MessageDetail struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	SenderID       string      `json:"sender_id"`
	Body           string      `json:"body"`
	CreatedAt      time.Time   `json:"created_at"`
	Sender         UserSummary `json:"sender"`
}
