package auth

import (
	"fmt"
	"strconv"
	"time"

	"barangay/internal/rbac"

	"github.com/golang-jwt/jwt/v5"
)

type TokenConfig struct {
	Secret        string
	RefreshSecret string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type JWTAuthenticator struct {
	cfg TokenConfig
	now func() time.Time
}

func NewJWTAuthenticator(cfg TokenConfig) *JWTAuthenticator {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 9 * 24 * time.Hour
	}
	return &JWTAuthenticator{cfg: cfg, now: time.Now}
}

// GenerateTokens issues an access token carrying the role and a refresh
// token carrying only the subject.
func (a *JWTAuthenticator) GenerateTokens(userID int64, role rbac.Role) (string, string, error) {
	now := a.now()
	sub := strconv.FormatInt(userID, 10)

	access := accessClaims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    a.cfg.Issuer,
			Audience:  jwt.ClaimStrings{a.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.AccessTTL)),
		},
	}
	refresh := jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    a.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.RefreshTTL)),
	}

	accessToken, err := sign(access, a.cfg.Secret)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := sign(refresh, a.cfg.RefreshSecret)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func sign(claims jwt.Claims, secret string) (string, error) {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

func (a *JWTAuthenticator) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithTimeFunc(a.now),
	}
}

func (a *JWTAuthenticator) ValidateAccessToken(token string) (*Identity, error) {
	var claims accessClaims
	opts := append(a.parserOptions(), jwt.WithAudience(a.cfg.Audience))
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(a.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	role, err := rbac.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &Identity{UserID: userID, Role: role}, nil
}

func (a *JWTAuthenticator) ValidateRefreshToken(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(a.cfg.RefreshSecret), nil
	}, a.parserOptions()...)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return userID, nil
}
