// MsHoa Learning | 2026
// jwt_test.go

package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshoa-learning/backend/internal/config"
	"github.com/mshoa-learning/backend/internal/core"
)

func newTestJWTManager(t *testing.T, accessTTL time.Duration) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	privPath := filepath.Join(dir, "jwt_private.pem")
	pubPath := filepath.Join(dir, "jwt_public.pem")
	require.NoError(t, GenerateKeyPair(privPath, pubPath))

	manager, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     privPath,
		PublicKeyPath:      pubPath,
		AccessTokenExpire:  accessTTL,
		RefreshTokenExpire: 30 * 24 * time.Hour,
		Issuer:             "mshoa-learning",
		Audience:           "mshoa-learning-api",
	})
	require.NoError(t, err)
	return manager
}

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := newTestJWTManager(t, 15*time.Minute)
	expiry := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	signed, err := manager.CreateAccessToken(AccessTokenClaims{
		UserID:           "user-1",
		Role:             RoleUser,
		Tier:             "vip",
		MembershipExpiry: &expiry,
		TokenVersion:     3,
	})
	require.NoError(t, err)

	claims, err := manager.VerifyAccessToken(context.Background(), signed)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, RoleUser, claims.Role)
	assert.Equal(t, "vip", claims.Tier)
	assert.Equal(t, 3, claims.TokenVersion)
	require.NotNil(t, claims.MembershipExpiry)
	assert.Equal(t, expiry.Unix(), claims.MembershipExpiry.Unix())
	assert.NotEmpty(t, claims.TokenID, "jti carries through for blacklisting")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt, time.Minute)
}

func TestAccessTokenWithoutMembershipExpiry(t *testing.T) {
	manager := newTestJWTManager(t, 15*time.Minute)

	signed, err := manager.CreateAccessToken(AccessTokenClaims{
		UserID: "user-2",
		Role:   RoleUser,
		Tier:   "free",
	})
	require.NoError(t, err)

	claims, err := manager.VerifyAccessToken(context.Background(), signed)
	require.NoError(t, err)
	assert.Nil(t, claims.MembershipExpiry)
}

func TestVerifyAccessTokenRejectsExpired(t *testing.T) {
	manager := newTestJWTManager(t, -time.Minute)

	signed, err := manager.CreateAccessToken(AccessTokenClaims{
		UserID: "user-3",
		Role:   RoleUser,
		Tier:   "free",
	})
	require.NoError(t, err)

	_, err = manager.VerifyAccessToken(context.Background(), signed)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestVerifyAccessTokenRejectsForeignKey(t *testing.T) {
	signer := newTestJWTManager(t, 15*time.Minute)
	verifier := newTestJWTManager(t, 15*time.Minute)

	signed, err := signer.CreateAccessToken(AccessTokenClaims{
		UserID: "user-4",
		Role:   RoleUser,
		Tier:   "free",
	})
	require.NoError(t, err)

	_, err = verifier.VerifyAccessToken(context.Background(), signed)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyAccessTokenRejectsGarbage(t *testing.T) {
	manager := newTestJWTManager(t, 15*time.Minute)

	_, err := manager.VerifyAccessToken(context.Background(), "not.a.token")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestCreateRefreshToken(t *testing.T) {
	manager := newTestJWTManager(t, 15*time.Minute)

	data, err := manager.CreateRefreshToken("user-1", "")
	require.NoError(t, err)

	assert.NotEmpty(t, data.Token)
	assert.NotEmpty(t, data.FamilyID, "a fresh login starts a new token family")
	assert.Equal(t, core.HashToken(data.Token), data.Hash)
	assert.True(t, data.ExpiresAt.After(time.Now()))

	rotated, err := manager.CreateRefreshToken("user-1", data.FamilyID)
	require.NoError(t, err)
	assert.Equal(t, data.FamilyID, rotated.FamilyID, "rotation keeps the family")
	assert.NotEqual(t, data.Token, rotated.Token)
}
