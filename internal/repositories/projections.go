package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-api/internal/apperr"
	"chat-api/internal/models"
)

// The projection loaders run against either the pool or an open transaction,
// so the callers inside multi-statement transactions observe their own
// uncommitted writes.

type participantRow struct {
	ID       string `db:"id"`
	UserID   string `db:"user_id"`
	HasSeen  bool   `db:"has_seen_latest_message"`
	Username string `db:"username"`
	Image    string `db:"image"`
}

func loadParticipants(ctx context.Context, q sqlx.QueryerContext, conversationID string) ([]models.ParticipantDetail, error) {
	rows := []participantRow{}
	query := `SELECT cp.id, cp.user_id, cp.has_seen_latest_message,
            COALESCE(u.username, '') AS username, u.image
        FROM conversation_participants cp
        JOIN users u ON u.id = cp.user_id
        WHERE cp.conversation_id=$1
        ORDER BY cp.id`
	if err := sqlx.SelectContext(ctx, q, &rows, query, conversationID); err != nil {
		return nil, err
	}

	participants := make([]models.ParticipantDetail, 0, len(rows))
	for _, row := range rows {
		participants = append(participants, models.ParticipantDetail{
			ID:                   row.ID,
			UserID:               row.UserID,
			HasSeenLatestMessage: row.HasSeen,
			User:                 models.UserSummary{ID: row.UserID, Username: row.Username, Image: row.Image},
		})
	}
	return participants, nil
}

type messageRow struct {
	ID             string       `db:"id"`
	ConversationID string       `db:"conversation_id"`
	SenderID       string       `db:"sender_id"`
	Body           string       `db:"body"`
	CreatedAt      sql.NullTime `db:"created_at"`
	Username       string       `db:"username"`
	Image          string       `db:"image"`
}

func (row messageRow) detail() models.MessageDetail {
	return models.MessageDetail{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		SenderID:       row.SenderID,
		Body:           row.Body,
		CreatedAt:      row.CreatedAt.Time,
		Sender:         models.UserSummary{ID: row.SenderID, Username: row.Username, Image: row.Image},
	}
}

const messageDetailQuery = `SELECT m.id, m.conversation_id, m.sender_id, m.body, m.created_at,
        COALESCE(u.username, '') AS username, u.image
    FROM messages m
    JOIN users u ON u.id = m.sender_id`

func loadMessage(ctx context.Context, q sqlx.QueryerContext, messageID string) (models.MessageDetail, error) {
	var row messageRow
	err := sqlx.GetContext(ctx, q, &row, messageDetailQuery+` WHERE m.id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MessageDetail{}, apperr.NotFound("message not found")
	}
	if err != nil {
		return models.MessageDetail{}, err
	}
	return row.detail(), nil
}

func loadConversationDetail(ctx context.Context, q sqlx.QueryerContext, conversationID string) (models.ConversationDetail, error) {
	var conv models.Conversation
	query := `SELECT id, latest_message_id, created_at, updated_at FROM conversations WHERE id=$1`
	err := sqlx.GetContext(ctx, q, &conv, query, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConversationDetail{}, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return models.ConversationDetail{}, err
	}

	participants, err := loadParticipants(ctx, q, conversationID)
	if err != nil {
		return models.ConversationDetail{}, err
	}

	detail := models.ConversationDetail{
		ID:           conv.ID,
		Participants: participants,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
	if conv.LatestMessageID.Valid {
		latest, err := loadMessage(ctx, q, conv.LatestMessageID.String)
		if err != nil {
			return models.ConversationDetail{}, err
		}
		detail.LatestMessage = &latest
	}
	return detail, nil
}
