package auth

import (
	"context"
	"time"

	"chat-api/internal/models"
)

// Session is the resolved identity attached to a request or subscription
// connection. A nil session means anonymous.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

// Username returns the claimed username, or empty when unclaimed.
func (s *Session) Username() string {
	if s == nil {
		return ""
	}
	return s.User.Username.String
}

type contextKey struct{}

// WithSession attaches a resolved session to the context.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, session)
}

// SessionFromContext returns the session, or nil for anonymous callers.
func SessionFromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(contextKey{}).(*Session)
	return session
}
