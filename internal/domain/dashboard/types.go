package dashboard

import "context"

// Overview holds the counters shown on the official and super admin
// dashboards.
type Overview struct {
	MunicipalityID *int64 `json:"municipality_id,omitempty"`

	// Residents
	TotalResidents    int64 `json:"total_residents"`
	VerifiedOfficials int64 `json:"verified_officials"`

	// Document requests
	TotalDocumentRequests     int64 `json:"total_document_requests"`
	PendingDocumentRequests   int64 `json:"pending_document_requests"`
	ApprovedDocumentRequests  int64 `json:"approved_document_requests"`
	DeniedDocumentRequests    int64 `json:"denied_document_requests"`
	CompletedDocumentRequests int64 `json:"completed_document_requests"`

	// Membership and verification
	PendingMembershipRequests   int64 `json:"pending_membership_requests"`
	PendingVerificationRequests int64 `json:"pending_verification_requests"`

	// Only filled for the global overview.
	TotalMunicipalities int64 `json:"total_municipalities,omitempty"`
}

type Store interface {
	// Overview scopes every counter to municipalityID, or to the whole
	// system when it is nil.
	Overview(ctx context.Context, municipalityID *int64) (*Overview, error)
}
