package auth

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionStore looks sessions up by their raw token. Expired or unknown
// tokens resolve to a nil session without error.
type SessionStore interface {
	GetByToken(ctx context.Context, token string) (*Session, error)
}

// Resolver turns transport credentials into sessions. The HTTP path reads a
// signed cookie; the websocket path receives the raw token in connection
// parameters. Both produce the same Session shape.
type Resolver struct {
	store      SessionStore
	secret     string
	cookieName string
}

func NewResolver(store SessionStore, secret, cookieName string) *Resolver {
	return &Resolver{store: store, secret: secret, cookieName: cookieName}
}

// ResolveToken looks up a raw session token.
func (r *Resolver) ResolveToken(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	return r.store.GetByToken(ctx, token)
}

// Middleware resolves the session cookie and attaches the session to the
// request context. A missing or invalid cookie yields an anonymous context;
// individual operations decide whether that is an error.
func (r *Resolver) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := r.resolveRequest(c.Request)
		if err != nil {
			log.Printf("session resolve failed: %v", err)
		}
		if session != nil {
			c.Request = c.Request.WithContext(WithSession(c.Request.Context(), session))
		}
		c.Next()
	}
}

func (r *Resolver) resolveRequest(req *http.Request) (*Session, error) {
	cookie, err := req.Cookie(r.cookieName)
	if err != nil {
		return nil, nil
	}
	token, err := VerifyCookie(cookie.Value, r.secret)
	if err != nil {
		return nil, nil
	}
	return r.store.GetByToken(req.Context(), token)
}
