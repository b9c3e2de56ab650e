package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bumex/engagement-service/internal/domain"
)

func TestPendingAndSessionTokensCarryTheirStage(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", time.Hour, 10*time.Minute)

	pendingToken, _, err := tm.GeneratePendingToken("pend-1", "u1")
	require.NoError(t, err)
	claims, err := tm.ParseToken(pendingToken)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenStagePending, claims.Stage)
	assert.Equal(t, "pend-1", claims.PendingID)
	assert.Equal(t, "u1", claims.UserID)
	assert.Empty(t, claims.SessionID)

	sessionToken, expiresAt, err := tm.GenerateSessionToken("sess-1", "u1", domain.GlobalRoleAdmin)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))
	claims, err = tm.ParseToken(sessionToken)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenStageSession, claims.Stage)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, domain.GlobalRoleAdmin, claims.Role)
	assert.Empty(t, claims.PendingID)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret-a", time.Hour, 10*time.Minute)
	other := NewTokenManager("secret-b", time.Hour, 10*time.Minute)

	token, _, err := tm.GenerateSessionToken("sess-1", "u1", domain.GlobalRoleUser)
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", time.Hour, 10*time.Minute)
	tm.sessionTTL = -time.Minute

	token, _, err := tm.GenerateSessionToken("sess-1", "u1", domain.GlobalRoleUser)
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}
