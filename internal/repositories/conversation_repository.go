package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-api/internal/apperr"
	"chat-api/internal/models"
)

// The first message of every conversation, authored by the creator.
const welcomeMessageBody = "Welcome to the Conversation💭!"

// ConversationRepository abstracts conversation persistence. Every method
// touching more than one row runs as a single transaction.
type ConversationRepository interface {
	GetDetail(ctx context.Context, conversationID string) (models.ConversationDetail, error)
	ListForUser(ctx context.Context, userID string) ([]models.ConversationDetail, error)
	ParticipantUserIDs(ctx context.Context, conversationID string) ([]string, error)
	CreateWithFirstMessage(ctx context.Context, callerID string, participantIDs []string) (models.ConversationDetail, error)
	Delete(ctx context.Context, conversationID string) ([]string, error)
	UpdateParticipants(ctx context.Context, conversationID string, desired []string) (models.ConversationDetail, []string, []string, error)
	MarkRead(ctx context.Context, conversationID, userID string) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// GetDetail fetches the populated conversation projection.
func (r *ConversationRepo) GetDetail(ctx context.Context, conversationID string) (models.ConversationDetail, error) {
	return loadConversationDetail(ctx, r.db, conversationID)
}

// ListForUser returns the populated conversations the user participates in,
// most recently updated first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID string) ([]models.ConversationDetail, error) {
	ids := []string{}
	query := `SELECT c.id FROM conversations c
        JOIN conversation_participants cp ON cp.conversation_id = c.id
        WHERE cp.user_id=$1
        ORDER BY c.updated_at DESC`
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, err
	}

	conversations := make([]models.ConversationDetail, 0, len(ids))
	for _, id := range ids {
		detail, err := loadConversationDetail(ctx, r.db, id)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, detail)
	}
	return conversations, nil
}

// ParticipantUserIDs returns the current participant user ids.
func (r *ConversationRepo) ParticipantUserIDs(ctx context.Context, conversationID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM conversation_participants WHERE conversation_id=$1 ORDER BY id`, conversationID)
	return ids, err
}

// CreateWithFirstMessage atomically creates the conversation, its
// participants, the welcome message and the latest-message pointer. Only the
// caller starts with the message marked seen.
func (r *ConversationRepo) CreateWithFirstMessage(ctx context.Context, callerID string, participantIDs []string) (models.ConversationDetail, error) {
	if len(participantIDs) == 0 {
		return models.ConversationDetail{}, apperr.ValidationFailed("participant list must not be empty")
	}

	// The caller is always a participant, whether or not the client listed it.
	idSet := map[string]struct{}{callerID: {}}
	ids := []string{callerID}
	for _, id := range participantIDs {
		if _, ok := idSet[id]; ok {
			continue
		}
		idSet[id] = struct{}{}
		ids = append(ids, id)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ConversationDetail{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	conversationID := uuid.NewString()
	if _, err = tx.ExecContext(ctx, `INSERT INTO conversations (id) VALUES ($1)`, conversationID); err != nil {
		return models.ConversationDetail{}, err
	}

	for _, userID := range ids {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO conversation_participants (id, conversation_id, user_id, has_seen_latest_message)
             VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), conversationID, userID, userID == callerID); err != nil {
			return models.ConversationDetail{}, err
		}
	}

	messageID := uuid.NewString()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, body) VALUES ($1, $2, $3, $4)`,
		messageID, conversationID, callerID, welcomeMessageBody); err != nil {
		return models.ConversationDetail{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE conversations SET latest_message_id=$1 WHERE id=$2`, messageID, conversationID); err != nil {
		return models.ConversationDetail{}, err
	}

	detail, err := loadConversationDetail(ctx, tx, conversationID)
	if err != nil {
		return models.ConversationDetail{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.ConversationDetail{}, err
	}
	return detail, nil
}

// Delete atomically removes the conversation and everything it owns. The
// latest-message pointer is nulled first so it never references a deleted
// message, then children go before the conversation row itself. Returns the
// pre-deletion participant user ids for subscriber filtering.
func (r *ConversationRepo) Delete(ctx context.Context, conversationID string) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	participantIDs := []string{}
	if err = tx.SelectContext(ctx, &participantIDs,
		`SELECT user_id FROM conversation_participants WHERE conversation_id=$1 ORDER BY id`, conversationID); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `UPDATE conversations SET latest_message_id=NULL WHERE id=$1`, conversationID)
	if err != nil {
		return nil, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		err = apperr.NotFound("conversation not found")
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM conversation_participants WHERE conversation_id=$1`, conversationID); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id=$1`, conversationID); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM conversations WHERE id=$1`, conversationID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return participantIDs, nil
}

// UpdateParticipants diffs the current participant set against desired and
// applies removals and additions in one transaction. Added participants start
// with the latest message marked seen. Returns the resulting detail plus the
// added and removed user id sets.
func (r *ConversationRepo) UpdateParticipants(ctx context.Context, conversationID string, desired []string) (models.ConversationDetail, []string, []string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ConversationDetail{}, nil, nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var exists bool
	if err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM conversations WHERE id=$1)`, conversationID); err != nil {
		return models.ConversationDetail{}, nil, nil, err
	}
	if !exists {
		err = apperr.NotFound("conversation not found")
		return models.ConversationDetail{}, nil, nil, err
	}

	current := []string{}
	if err = tx.SelectContext(ctx, &current,
		`SELECT user_id FROM conversation_participants WHERE conversation_id=$1 ORDER BY id`, conversationID); err != nil {
		return models.ConversationDetail{}, nil, nil, err
	}

	toAdd, toRemove := diffParticipants(current, desired)

	if len(toRemove) > 0 {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM conversation_participants WHERE conversation_id=$1 AND user_id = ANY($2)`,
			conversationID, pq.Array(toRemove)); err != nil {
			return models.ConversationDetail{}, nil, nil, err
		}
	}

	// Upsert guards against duplicate rows even if the diff was bypassed.
	for _, userID := range toAdd {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO conversation_participants (id, conversation_id, user_id, has_seen_latest_message)
             VALUES ($1, $2, $3, TRUE)
             ON CONFLICT (conversation_id, user_id) DO NOTHING`,
			uuid.NewString(), conversationID, userID); err != nil {
			return models.ConversationDetail{}, nil, nil, err
		}
	}

	if len(toAdd) > 0 || len(toRemove) > 0 {
		if _, err = tx.ExecContext(ctx,
			`UPDATE conversations SET updated_at=NOW() WHERE id=$1`, conversationID); err != nil {
			return models.ConversationDetail{}, nil, nil, err
		}
	}

	detail, err := loadConversationDetail(ctx, tx, conversationID)
	if err != nil {
		return models.ConversationDetail{}, nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return models.ConversationDetail{}, nil, nil, err
	}
	return detail, toAdd, toRemove, nil
}

// MarkRead flags the latest message as seen for the user. Repeating the call
// is a no-op.
func (r *ConversationRepo) MarkRead(ctx context.Context, conversationID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversation_participants SET has_seen_latest_message=TRUE
         WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	return err
}

func diffParticipants(current, desired []string) (toAdd, toRemove []string) {
	currentSet := make(map[string]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}
	desiredSet := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		if _, ok := desiredSet[id]; ok {
			continue
		}
		desiredSet[id] = struct{}{}
		if _, ok := currentSet[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range current {
		if _, ok := desiredSet[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}
