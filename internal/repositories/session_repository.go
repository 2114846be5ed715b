package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-api/internal/auth"
)

// SessionRepo loads externally issued sessions. It implements
// auth.SessionStore.
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo constructs a SessionRepo.
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// GetByToken resolves a session token to its user. Unknown or expired tokens
// resolve to nil without error.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*auth.Session, error) {
	var row struct {
		Token     string         `db:"token"`
		ExpiresAt time.Time      `db:"expires_at"`
		UserID    string         `db:"id"`
		Username  sql.NullString `db:"username"`
		Email     string         `db:"email"`
		Image     string         `db:"image"`
	}
	query := `SELECT s.token, s.expires_at, u.id, u.username, u.email, u.image
        FROM sessions s JOIN users u ON u.id = s.user_id
        WHERE s.token=$1`
	if err := r.db.GetContext(ctx, &row, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if row.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}

	session := &auth.Session{Token: row.Token, ExpiresAt: row.ExpiresAt}
	session.User.ID = row.UserID
	session.User.Username = row.Username
	session.User.Email = row.Email
	session.User.Image = row.Image
	return session, nil
}

var _ auth.SessionStore = (*SessionRepo)(nil)
