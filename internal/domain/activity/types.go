package activity

import (
	"context"
	"time"
)

// Action tags written by the request workflows.
const (
	ActionBarangayRequestSubmitted     = "barangay_request_submitted"
	ActionBarangayRequestApproved      = "barangay_request_approved"
	ActionBarangayRequestRejected      = "barangay_request_rejected"
	ActionBarangayRequestCancelled     = "barangay_request_cancelled"
	ActionVerificationRequestSubmitted = "verification_request_submitted"
	ActionVerificationRequestApproved  = "verification_request_approved"
	ActionVerificationRequestRejected  = "verification_request_rejected"
	ActionVerificationRequestCancelled = "verification_request_cancelled"
	ActionDocumentRequestSubmitted     = "document_request_submitted"
	ActionDocumentRequestApproved      = "document_request_approved"
	ActionDocumentRequestDenied        = "document_request_denied"
	ActionDocumentRequestCompleted     = "document_request_completed"
	ActionMunicipalityCreated          = "municipality_created"
)

// Entry is one row of the append-only audit trail.
type Entry struct {
	ID             int64     `json:"id"`
	ActorID        int64     `json:"actor_id"`
	MunicipalityID *int64    `json:"municipality_id,omitempty"`
	Action         string    `json:"action"`
	Details        string    `json:"details"`
	EntityType     string    `json:"entity_type,omitempty"`
	EntityID       *int64    `json:"entity_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	ActorName string `json:"actor_name,omitempty"`
}

type Store interface {
	Append(ctx context.Context, e *Entry) error
	// Recent returns the newest entries first. A nil municipality returns
	// entries across all municipalities.
	Recent(ctx context.Context, municipalityID *int64, limit int) ([]Entry, error)
}
