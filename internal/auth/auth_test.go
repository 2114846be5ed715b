package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-api/internal/apperr"
	"chat-api/internal/models"
)

func TestCookieSignAndVerify(t *testing.T) {
	cookie := SignToken("session-token", "secret")

	token, err := VerifyCookie(cookie, "secret")
	require.NoError(t, err)
	assert.Equal(t, "session-token", token)
}

func TestVerifyCookieRejectsTampering(t *testing.T) {
	cookie := SignToken("session-token", "secret")

	_, err := VerifyCookie(cookie, "other-secret")
	assert.Error(t, err)

	_, err = VerifyCookie("other-token."+cookie[len("session-token."):], "secret")
	assert.Error(t, err)
}

func TestVerifyCookieRejectsMalformedValues(t *testing.T) {
	for _, value := range []string{"", "no-separator", ".leading", "trailing.", "a.b.c"} {
		if _, err := VerifyCookie(value, "secret"); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestRequireUser(t *testing.T) {
	_, err := RequireUser(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))

	session := &Session{}
	session.User.ID = "alice"
	got, err := RequireUser(WithSession(context.Background(), session))
	require.NoError(t, err)
	assert.Equal(t, "alice", got.User.ID)
}

func TestIsParticipant(t *testing.T) {
	participants := []models.ParticipantDetail{
		{ID: "p1", UserID: "alice"},
		{ID: "p2", UserID: "bob"},
	}

	assert.True(t, IsParticipant(participants, "alice"))
	assert.False(t, IsParticipant(participants, "mallory"))
	assert.False(t, IsParticipant(nil, "alice"))
}
