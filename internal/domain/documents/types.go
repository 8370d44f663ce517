package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barangay/internal/review"
)

var ErrNotFound = errors.New("document request not found")

// Type is the certificate or document a resident asks for.
type Type string

const (
	TypeBarangayClearance      Type = "barangay_clearance"
	TypeCertificateOfResidency Type = "certificate_of_residency"
	TypeCertificateOfIndigency Type = "certificate_of_indigency"
	TypeBusinessClearance      Type = "business_clearance"
	TypeBarangayID             Type = "barangay_id"
)

func Types() []Type {
	return []Type{
		TypeBarangayClearance,
		TypeCertificateOfResidency,
		TypeCertificateOfIndigency,
		TypeBusinessClearance,
		TypeBarangayID,
	}
}

func ParseType(s string) (Type, error) {
	for _, t := range Types() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

type Request struct {
	ID             int64                 `json:"id"`
	Reference      string                `json:"reference,omitempty"`
	RequesterID    int64                 `json:"requester_id"`
	MunicipalityID int64                 `json:"municipality_id"`
	Type           Type                  `json:"document_type"`
	Purpose        string                `json:"purpose"`
	Status         review.DocumentStatus `json:"status"`
	Remarks        *string               `json:"remarks,omitempty"`
	SubmittedAt    time.Time             `json:"submitted_at"`
	ReviewedAt     *time.Time            `json:"reviewed_at,omitempty"`
	ReviewedBy     *int64                `json:"reviewed_by,omitempty"`
	CompletedAt    *time.Time            `json:"completed_at,omitempty"`

	RequesterName string `json:"requester_name,omitempty"`
}

type CreateInput struct {
	RequesterID    int64
	MunicipalityID int64
	Type           Type
	Purpose        string
}

type Filter struct {
	RequesterID    *int64
	MunicipalityID *int64
	Status         *review.DocumentStatus
	Type           *Type
	Limit          int
	Offset         int
}

// TransitionInput moves a request from From to To. The update only applies
// while the stored status still equals From.
type TransitionInput struct {
	ID         int64
	From       review.DocumentStatus
	To         review.DocumentStatus
	ReviewerID int64
	Remarks    *string
	At         time.Time
}

type Store interface {
	Create(ctx context.Context, in CreateInput) (*Request, error)
	GetByID(ctx context.Context, id int64) (*Request, error)
	List(ctx context.Context, f Filter) ([]Request, int, error)
	// Transition returns review.ErrNotFoundOrProcessed when the request is
	// missing or no longer in the From status.
	Transition(ctx context.Context, in TransitionInput) (*Request, error)
	// ListBetween returns every request submitted in [from, to) for reports.
	ListBetween(ctx context.Context, municipalityID *int64, from, to time.Time) ([]Request, error)
}
