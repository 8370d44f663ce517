package dashboard

import (
	"context"
	"fmt"
	"time"

	"barangay/internal/database"
)

type Repository struct {
	db database.DBTX
}

func NewRepository(db database.DBTX) Store {
	return &Repository{db: db}
}

func (r *Repository) Overview(ctx context.Context, municipalityID *int64) (*Overview, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const q = `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'resident' AND ($1::bigint IS NULL OR municipality_id = $1)),
			(SELECT COUNT(*) FROM users WHERE role = 'official' AND is_verified AND ($1::bigint IS NULL OR municipality_id = $1)),

			(SELECT COUNT(*) FROM document_requests WHERE ($1::bigint IS NULL OR municipality_id = $1)),
			(SELECT COUNT(*) FROM document_requests WHERE status = 'pending' AND ($1::bigint IS NULL OR municipality_id = $1)),
			(SELECT COUNT(*) FROM document_requests WHERE status = 'approved' AND ($1::bigint IS NULL OR municipality_id = $1)),
			(SELECT COUNT(*) FROM document_requests WHERE status = 'denied' AND ($1::bigint IS NULL OR municipality_id = $1)),
			(SELECT COUNT(*) FROM document_requests WHERE status = 'completed' AND ($1::bigint IS NULL OR municipality_id = $1)),

			(SELECT COUNT(*) FROM membership_requests WHERE status = 'pending' AND ($1::bigint IS NULL OR municipality_id = $1)),
			(SELECT COUNT(*) FROM verification_requests WHERE status = 'pending' AND ($1::bigint IS NULL OR municipality_id = $1)),

			(SELECT COUNT(*) FROM municipalities WHERE $1::bigint IS NULL)
	`

	o := Overview{MunicipalityID: municipalityID}
	err := r.db.QueryRow(ctx, q, municipalityID).Scan(
		&o.TotalResidents,
		&o.VerifiedOfficials,

		&o.TotalDocumentRequests,
		&o.PendingDocumentRequests,
		&o.ApprovedDocumentRequests,
		&o.DeniedDocumentRequests,
		&o.CompletedDocumentRequests,

		&o.PendingMembershipRequests,
		&o.PendingVerificationRequests,

		&o.TotalMunicipalities,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard overview: %w", err)
	}
	return &o, nil
}
