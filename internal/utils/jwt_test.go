package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager(accessExpiry time.Duration) *JWTManager {
	return NewJWTManager("test-secret-key", accessExpiry, 24*time.Hour)
}

func TestJWTManager_AccessToken(t *testing.T) {
	mgr := newTestJWTManager(time.Hour)

	token, err := mgr.GenerateAccessToken(42, "alice", "user", "sess-1")
	require.NoError(t, err)

	claims, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, "salzundsand", claims.Issuer)
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	mgr := newTestJWTManager(-time.Minute)

	token, err := mgr.GenerateAccessToken(1, "bob", "user", "sess-2")
	require.NoError(t, err)

	_, err = mgr.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	mgr := newTestJWTManager(time.Hour)
	other := NewJWTManager("different-secret", time.Hour, 24*time.Hour)

	token, err := mgr.GenerateAccessToken(1, "bob", "user", "sess-3")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_Garbage(t *testing.T) {
	mgr := newTestJWTManager(time.Hour)

	_, err := mgr.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RefreshFlow(t *testing.T) {
	mgr := newTestJWTManager(time.Hour)

	refresh, err := mgr.GenerateRefreshToken(7, "sess-4")
	require.NoError(t, err)

	access, err := mgr.RefreshAccessToken(refresh, "carol", "admin")
	require.NoError(t, err)

	claims, err := mgr.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "sess-4", claims.SessionID)
	assert.Equal(t, "access", claims.TokenType)
}

func TestJWTManager_RefreshRejectsAccessToken(t *testing.T) {
	mgr := newTestJWTManager(time.Hour)

	access, err := mgr.GenerateAccessToken(7, "carol", "admin", "sess-5")
	require.NoError(t, err)

	_, err = mgr.RefreshAccessToken(access, "carol", "admin")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
