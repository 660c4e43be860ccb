package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	tok, err := issuer.Issue("s1", "r1", true)
	require.NoError(t, err)

	claims, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "r1", claims.RoomID)
	assert.True(t, claims.Owner)
	assert.Equal(t, "s1", claims.Subject)
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	tok, err := NewTokenIssuer("a").Issue("s1", "r1", false)
	require.NoError(t, err)
	_, err = NewTokenIssuer("b").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenIssuer("a").Verify(tok + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpires(t *testing.T) {
	issuer := NewTokenIssuer("")
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return now }
	tok, err := issuer.Issue("s1", "r1", false)
	require.NoError(t, err)

	now = now.Add(RoomTokenTTL + time.Second)
	_, err = issuer.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
