package auth

import (
	"errors"
	"testing"
	"time"

	"barangay/internal/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator() *JWTAuthenticator {
	return NewJWTAuthenticator(TokenConfig{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "barangay",
		Audience:      "barangay",
		AccessTTL:     time.Hour,
		RefreshTTL:    2 * time.Hour,
	})
}

func TestTokensRoundTrip(t *testing.T) {
	a := newTestAuthenticator()
	access, refresh, err := a.GenerateTokens(42, rbac.RoleOfficial)
	require.NoError(t, err)

	id, err := a.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: 42, Role: rbac.RoleOfficial}, id)

	uid, err := a.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	a := newTestAuthenticator()
	access, refresh, err := a.GenerateTokens(1, rbac.RoleResident)
	require.NoError(t, err)

	_, err = a.ValidateAccessToken(refresh)
	assert.True(t, errors.Is(err, ErrInvalidToken))
	_, err = a.ValidateRefreshToken(access)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestExpiredAccessToken(t *testing.T) {
	a := newTestAuthenticator()
	issued := time.Now().Add(-3 * time.Hour)
	a.now = func() time.Time { return issued }
	access, _, err := a.GenerateTokens(1, rbac.RoleResident)
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.ValidateAccessToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestForeignSecretRejected(t *testing.T) {
	other := NewJWTAuthenticator(TokenConfig{Secret: "x", RefreshSecret: "y", Issuer: "barangay", Audience: "barangay"})
	access, _, err := other.GenerateTokens(1, rbac.RoleSuperAdmin)
	require.NoError(t, err)

	_, err = newTestAuthenticator().ValidateAccessToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
