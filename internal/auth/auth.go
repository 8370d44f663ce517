package auth

import (
	"errors"

	"barangay/internal/rbac"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is what a validated access token vouches for.
type Identity struct {
	UserID int64
	Role   rbac.Role
}

type Authenticator interface {
	GenerateTokens(userID int64, role rbac.Role) (access string, refresh string, err error)
	ValidateAccessToken(token string) (*Identity, error)
	// ValidateRefreshToken returns the user id the refresh token was issued to.
	ValidateRefreshToken(token string) (int64, error)
}
