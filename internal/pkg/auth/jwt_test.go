package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestJWTManager() *JWTManager {
	return NewJWTManager("test-secret", "openmaas-test", time.Hour, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	jm := newTestJWTManager()

	token, err := jm.GenerateAccessToken(42, "alice", "alice@example.com", true, 3, []string{"admin", "auditor"})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := jm.ValidateAccessToken(token)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, int64(3), claims.PasswordV)
	assert.Equal(t, []string{"admin", "auditor"}, claims.Roles)
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	jm := newTestJWTManager()

	_, err := jm.ValidateAccessToken("not.a.token")
	assert.Error(t, err)
}

func TestValidateAccessTokenRejectsWrongSecret(t *testing.T) {
	jm := newTestJWTManager()
	other := NewJWTManager("another-secret", "openmaas-test", time.Hour, 24*time.Hour)

	token, err := jm.GenerateAccessToken(1, "bob", "bob@example.com", false, 1, nil)
	assert.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateAccessTokenRejectsExpired(t *testing.T) {
	jm := NewJWTManager("test-secret", "openmaas-test", -time.Minute, 24*time.Hour)

	token, err := jm.GenerateAccessToken(1, "bob", "bob@example.com", false, 1, nil)
	assert.NoError(t, err)

	_, err = jm.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestRefreshTokenFlow(t *testing.T) {
	jm := newTestJWTManager()

	refresh, err := jm.GenerateRefreshToken(7, "carol")
	assert.NoError(t, err)

	claims, err := jm.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
	assert.Equal(t, "carol", claims.Subject)

	access, err := jm.RefreshAccessToken(refresh, 7, "carol", "carol@example.com", false, 1, []string{"user"})
	assert.NoError(t, err)

	accessClaims, err := jm.ValidateAccessToken(access)
	assert.NoError(t, err)
	assert.Equal(t, uint(7), accessClaims.UserID)

	// 访问令牌不是合法的刷新令牌
	_, err = jm.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestGenerateTokenPair(t *testing.T) {
	jm := newTestJWTManager()

	pair, err := jm.GenerateTokenPair(9, "dave", "dave@example.com", false, 1, []string{"user"})
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(3600), pair.ExpiresIn)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", ExtractTokenFromHeader("Bearer abc.def.ghi"))
	assert.Equal(t, "", ExtractTokenFromHeader("abc.def.ghi"))
	assert.Equal(t, "", ExtractTokenFromHeader("Bearer"))
	assert.Equal(t, "", ExtractTokenFromHeader(""))
}
