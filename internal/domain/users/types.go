package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"barangay/internal/rbac"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicateEmail    = errors.New("a user with that email already exists")
	ErrNotResident       = errors.New("user is no longer a resident")
	QueryTimeoutDuration = time.Second * 5
)

type User struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone,omitempty"`
	Password       password  `json:"-"`
	Role           rbac.Role `json:"role" swaggertype:"string"`
	MunicipalityID *int64    `json:"municipality_id,omitempty"`
	IsVerified     bool      `json:"is_verified"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// password keeps the plaintext only for the lifetime of a sign-up request.
type password struct {
	text *string
	hash []byte
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.text = &text
	p.hash = hash
	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

// ResidentFilter narrows the residents listing. A nil MunicipalityID lists
// every municipality.
type ResidentFilter struct {
	MunicipalityID *int64
	Search         string
	Limit          int
	Offset         int
}

type Store interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// SetMunicipality and PromoteToOfficial only touch residents; any other
	// role gets ErrNotResident.
	SetMunicipality(ctx context.Context, userID, municipalityID int64) error
	PromoteToOfficial(ctx context.Context, userID, municipalityID int64) error
	SetRole(ctx context.Context, userID int64, role rbac.Role) error
	ListResidents(ctx context.Context, f ResidentFilter) ([]User, int, error)

	SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error
	DeleteRefreshToken(ctx context.Context, userID int64) error
	GetRefreshToken(ctx context.Context, userID int64) (string, error)
}
