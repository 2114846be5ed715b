package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-api/internal/apperr"
	"chat-api/internal/models"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// MessageRepository abstracts message persistence.
type MessageRepository interface {
	ListByConversation(ctx context.Context, conversationID string) ([]models.MessageDetail, error)
	Send(ctx context.Context, messageID, conversationID, senderID, body string) (models.MessageDetail, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// ListByConversation returns messages newest-first with senders embedded.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]models.MessageDetail, error) {
	rows := []messageRow{}
	query := messageDetailQuery + ` WHERE m.conversation_id=$1 ORDER BY m.created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, conversationID); err != nil {
		return nil, err
	}

	messages := make([]models.MessageDetail, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.detail())
	}
	return messages, nil
}

// Send atomically inserts the message under the caller-supplied id, moves the
// latest-message pointer, marks the sender as having seen it and everyone
// else as not. The id doubles as an idempotency key: a duplicate is a
// conflict, never an overwrite.
func (r *MessageRepo) Send(ctx context.Context, messageID, conversationID, senderID, body string) (models.MessageDetail, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.MessageDetail{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, body) VALUES ($1, $2, $3, $4)`,
		messageID, conversationID, senderID, body); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch string(pqErr.Code) {
			case pqUniqueViolation:
				err = apperr.TransactionFailed("duplicate message id")
			case pqForeignKeyViolation:
				err = apperr.NotFound("conversation not found")
			}
		}
		return models.MessageDetail{}, err
	}

	// The sender must already be a participant.
	var participantID string
	err = tx.GetContext(ctx, &participantID,
		`SELECT id FROM conversation_participants WHERE conversation_id=$1 AND user_id=$2`,
		conversationID, senderID)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperr.NotFound("sender is not a participant of the conversation")
		return models.MessageDetail{}, err
	}
	if err != nil {
		return models.MessageDetail{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE conversations SET latest_message_id=$1, updated_at=NOW() WHERE id=$2`,
		messageID, conversationID); err != nil {
		return models.MessageDetail{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE conversation_participants SET has_seen_latest_message=TRUE WHERE id=$1`,
		participantID); err != nil {
		return models.MessageDetail{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE conversation_participants SET has_seen_latest_message=FALSE
         WHERE conversation_id=$1 AND user_id<>$2`,
		conversationID, senderID); err != nil {
		return models.MessageDetail{}, err
	}

	detail, err := loadMessage(ctx, tx, messageID)
	if err != nil {
		return models.MessageDetail{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.MessageDetail{}, err
	}
	return detail, nil
}
