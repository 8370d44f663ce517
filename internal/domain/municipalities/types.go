package municipalities

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("municipality not found")
	ErrDuplicate = errors.New("a municipality with that name already exists")
)

// Municipality is a barangay residents join and officials administer.
type Municipality struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Province  string    `json:"province"`
	Region    *string   `json:"region,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateInput struct {
	Name     string
	Province string
	Region   *string
}

type Store interface {
	Create(ctx context.Context, in CreateInput) (*Municipality, error)
	GetByID(ctx context.Context, id int64) (*Municipality, error)
	List(ctx context.Context) ([]Municipality, error)
}
