package auth

import (
	"context"

	"chat-api/internal/apperr"
	"chat-api/internal/models"
)

// RequireUser returns the session or an unauthorized error. Every resolver
// calls this before touching persistence.
func RequireUser(ctx context.Context) (*Session, error) {
	session := SessionFromContext(ctx)
	if session == nil {
		return nil, apperr.Unauthorized("not authorized")
	}
	return session, nil
}

// IsParticipant reports whether userID appears in the participant list. Pure;
// the query and subscription paths share it so both agree on who can see a
// conversation.
func IsParticipant(participants []models.ParticipantDetail, userID string) bool {
	for _, p := range participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
