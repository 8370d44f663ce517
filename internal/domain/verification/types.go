package verification

import (
	"context"
	"errors"
	"time"

	"barangay/internal/review"
)

var ErrNotFound = errors.New("verification request not found")

// Request is a resident's application to become an official of a
// municipality, backed by an uploaded proof document.
type Request struct {
	ID              int64         `json:"id"`
	RequesterID     int64         `json:"requester_id"`
	MunicipalityID  int64         `json:"municipality_id"`
	Position        string        `json:"position"`
	ProofURL        string        `json:"proof_url"`
	ProofPublicID   string        `json:"-"`
	Status          review.Status `json:"status"`
	RejectionReason *string       `json:"rejection_reason,omitempty"`
	RequestedAt     time.Time     `json:"requested_at"`
	ReviewedAt      *time.Time    `json:"reviewed_at,omitempty"`
	ReviewedBy      *int64        `json:"reviewed_by,omitempty"`

	RequesterName    string `json:"requester_name,omitempty"`
	RequesterEmail   string `json:"requester_email,omitempty"`
	MunicipalityName string `json:"municipality_name,omitempty"`
}

type CreateInput struct {
	RequesterID    int64
	MunicipalityID int64
	Position       string
	ProofURL       string
	ProofPublicID  string
}

type Filter struct {
	RequesterID    *int64
	MunicipalityID *int64
	Status         *review.Status
	Limit          int
	Offset         int
}

type Store interface {
	// Create fails with review.ErrPendingVerification when the requester
	// already has a pending request.
	Create(ctx context.Context, in CreateInput) (*Request, error)
	HasPending(ctx context.Context, requesterID int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*Request, error)
	List(ctx context.Context, f Filter) ([]Request, int, error)

	MarkApproved(ctx context.Context, id, reviewerID int64, at time.Time) (*Request, error)
	MarkRejected(ctx context.Context, id, reviewerID int64, reason string, at time.Time) (*Request, error)
	DeletePending(ctx context.Context, id, requesterID int64) (*Request, error)
}
