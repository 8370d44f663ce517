package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"barangay/internal/database"
	"barangay/internal/review"

	"github.com/jackc/pgx/v5"
)

const (
	queryTimeout      = 5 * time.Second
	pendingConstraint = "verification_requests_pending_uq"
	baseColumns       = `id, requester_id, municipality_id, position, proof_url, proof_public_id, status,
		rejection_reason, requested_at, reviewed_at, reviewed_by`
)

type Repository struct {
	db database.DBTX
}

func NewRepository(db database.DBTX) Store {
	return &Repository{db: db}
}

func scanBase(row pgx.Row, extra ...any) (*Request, error) {
	var (
		vr     Request
		reason sql.NullString
	)
	dest := append([]any{
		&vr.ID,
		&vr.RequesterID,
		&vr.MunicipalityID,
		&vr.Position,
		&vr.ProofURL,
		&vr.ProofPublicID,
		&vr.Status,
		&reason,
		&vr.RequestedAt,
		&vr.ReviewedAt,
		&vr.ReviewedBy,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if reason.Valid {
		vr.RejectionReason = &reason.String
	}
	return &vr, nil
}

func (r *Repository) Create(ctx context.Context, in CreateInput) (*Request, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	vr, err := scanBase(r.db.QueryRow(ctx, `
		INSERT INTO verification_requests
			(requester_id, municipality_id, position, proof_url, proof_public_id, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING `+baseColumns,
		in.RequesterID, in.MunicipalityID, in.Position, in.ProofURL, in.ProofPublicID))
	if err != nil {
		if database.IsUniqueViolation(err, pendingConstraint) {
			return nil, review.ErrPendingVerification
		}
		return nil, fmt.Errorf("insert verification_request: %w", err)
	}
	return vr, nil
}

func (r *Repository) HasPending(ctx context.Context, requesterID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM verification_requests WHERE requester_id = $1 AND status = 'pending'
		)
	`, requesterID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending verification_request: %w", err)
	}
	return exists, nil
}

const selectJoined = `
	SELECT vr.id, vr.requester_id, vr.municipality_id, vr.position, vr.proof_url, vr.proof_public_id,
		vr.status, vr.rejection_reason, vr.requested_at, vr.reviewed_at, vr.reviewed_by,
		TRIM(u.first_name || ' ' || u.last_name), u.email, m.name
	FROM verification_requests vr
	JOIN users u ON u.id = vr.requester_id
	JOIN municipalities m ON m.id = vr.municipality_id
`

func scanJoined(row pgx.Row) (*Request, error) {
	var name, email, muni string
	vr, err := scanBase(row, &name, &email, &muni)
	if err != nil {
		return nil, err
	}
	vr.RequesterName, vr.RequesterEmail, vr.MunicipalityName = name, email, muni
	return vr, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Request, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	vr, err := scanJoined(r.db.QueryRow(ctx, selectJoined+` WHERE vr.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get verification_request: %w", err)
	}
	return vr, nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Request, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}

	where := []string{"1=1"}
	args := []any{}
	if f.RequesterID != nil {
		args = append(args, *f.RequesterID)
		where = append(where, fmt.Sprintf("vr.requester_id = $%d", len(args)))
	}
	if f.MunicipalityID != nil {
		args = append(args, *f.MunicipalityID)
		where = append(where, fmt.Sprintf("vr.municipality_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("vr.status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM verification_requests vr WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count verification_requests: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf(`%s WHERE %s ORDER BY vr.requested_at DESC, vr.id DESC LIMIT $%d OFFSET $%d`,
		selectJoined, cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list verification_requests: %w", err)
	}
	defer rows.Close()

	out := make([]Request, 0, f.Limit)
	for rows.Next() {
		vr, err := scanJoined(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan verification_request: %w", err)
		}
		out = append(out, *vr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows: %w", err)
	}
	return out, total, nil
}

func (r *Repository) MarkApproved(ctx context.Context, id, reviewerID int64, at time.Time) (*Request, error) {
	return r.mark(ctx, `
		UPDATE verification_requests
		SET status = 'approved', reviewed_at = $2, reviewed_by = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING `+baseColumns, id, at, reviewerID)
}

func (r *Repository) MarkRejected(ctx context.Context, id, reviewerID int64, reason string, at time.Time) (*Request, error) {
	return r.mark(ctx, `
		UPDATE verification_requests
		SET status = 'rejected', reviewed_at = $2, reviewed_by = $3, rejection_reason = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING `+baseColumns, id, at, reviewerID, reason)
}

func (r *Repository) DeletePending(ctx context.Context, id, requesterID int64) (*Request, error) {
	return r.mark(ctx, `
		DELETE FROM verification_requests
		WHERE id = $1 AND requester_id = $2 AND status = 'pending'
		RETURNING `+baseColumns, id, requesterID)
}

func (r *Repository) mark(ctx context.Context, q string, args ...any) (*Request, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	vr, err := scanBase(r.db.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFoundOrProcessed
		}
		return nil, fmt.Errorf("update verification_request: %w", err)
	}
	return vr, nil
}
