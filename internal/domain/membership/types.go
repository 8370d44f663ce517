package membership

import (
	"context"
	"errors"
	"time"

	"barangay/internal/review"
)

var ErrNotFound = errors.New("membership request not found")

// Request is a resident's application to join a municipality.
type Request struct {
	ID              int64         `json:"id"`
	RequesterID     int64         `json:"requester_id"`
	MunicipalityID  int64         `json:"municipality_id"`
	Status          review.Status `json:"status"`
	RejectionReason *string       `json:"rejection_reason,omitempty"`
	RequestedAt     time.Time     `json:"requested_at"`
	ReviewedAt      *time.Time    `json:"reviewed_at,omitempty"`
	ReviewedBy      *int64        `json:"reviewed_by,omitempty"`

	// Filled by Get and List only.
	RequesterName    string `json:"requester_name,omitempty"`
	RequesterEmail   string `json:"requester_email,omitempty"`
	MunicipalityName string `json:"municipality_name,omitempty"`
}

type Filter struct {
	RequesterID    *int64
	MunicipalityID *int64
	Status         *review.Status
	Limit          int
	Offset         int
}

type Store interface {
	// Create fails with review.ErrAlreadyRequested when an active request
	// for the same municipality exists.
	Create(ctx context.Context, requesterID, municipalityID int64) (*Request, error)
	HasActive(ctx context.Context, requesterID, municipalityID int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*Request, error)
	List(ctx context.Context, f Filter) ([]Request, int, error)

	// The Mark methods only touch pending rows and return
	// review.ErrNotFoundOrProcessed otherwise.
	MarkApproved(ctx context.Context, id, reviewerID int64, at time.Time) (*Request, error)
	MarkRejected(ctx context.Context, id, reviewerID int64, reason string, at time.Time) (*Request, error)

	// DeletePending removes a pending request owned by requesterID.
	DeletePending(ctx context.Context, id, requesterID int64) (*Request, error)
}
