package membership

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
	queryTimeout     = 5 * time.Second
	activeConstraint = "membership_requests_active_uq"
	baseColumns      = `id, requester_id, municipality_id, status, rejection_reason, requested_at, reviewed_at, reviewed_by`
)

type Repository struct {
	db database.DBTX
}

func NewRepository(db database.DBTX) Store {
	return &Repository{db: db}
}

func scanBase(row pgx.Row, extra ...any) (*Request, error) {
	var (
		mr     Request
		reason sql.NullString
	)
	dest := append([]any{
		&mr.ID,
		&mr.RequesterID,
		&mr.MunicipalityID,
		&mr.Status,
		&reason,
		&mr.RequestedAt,
		&mr.ReviewedAt,
		&mr.ReviewedBy,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if reason.Valid {
		mr.RejectionReason = &reason.String
	}
	return &mr, nil
}

func (r *Repository) Create(ctx context.Context, requesterID, municipalityID int64) (*Request, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	mr, err := scanBase(r.db.QueryRow(ctx, `
		INSERT INTO membership_requests (requester_id, municipality_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING `+baseColumns, requesterID, municipalityID))
	if err != nil {
		if database.IsUniqueViolation(err, activeConstraint) {
			return nil, review.ErrAlreadyRequested
		}
		return nil, fmt.Errorf("insert membership_request: %w", err)
	}
	return mr, nil
}

func (r *Repository) HasActive(ctx context.Context, requesterID, municipalityID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM membership_requests
			WHERE requester_id = $1 AND municipality_id = $2 AND status IN ('pending', 'approved')
		)
	`, requesterID, municipalityID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active membership_request: %w", err)
	}
	return exists, nil
}

const selectJoined = `
	SELECT mr.id, mr.requester_id, mr.municipality_id, mr.status, mr.rejection_reason,
		mr.requested_at, mr.reviewed_at, mr.reviewed_by,
		TRIM(u.first_name || ' ' || u.last_name), u.email, m.name
	FROM membership_requests mr
	JOIN users u ON u.id = mr.requester_id
	JOIN municipalities m ON m.id = mr.municipality_id
`

func scanJoined(row pgx.Row) (*Request, error) {
	var name, email, muni string
	mr, err := scanBase(row, &name, &email, &muni)
	if err != nil {
		return nil, err
	}
	mr.RequesterName, mr.RequesterEmail, mr.MunicipalityName = name, email, muni
	return mr, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Request, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	mr, err := scanJoined(r.db.QueryRow(ctx, selectJoined+` WHERE mr.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get membership_request: %w", err)
	}
	return mr, nil
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
		where = append(where, fmt.Sprintf("mr.requester_id = $%d", len(args)))
	}
	if f.MunicipalityID != nil {
		args = append(args, *f.MunicipalityID)
		where = append(where, fmt.Sprintf("mr.municipality_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("mr.status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM membership_requests mr WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count membership_requests: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf(`%s WHERE %s ORDER BY mr.requested_at DESC, mr.id DESC LIMIT $%d OFFSET $%d`,
		selectJoined, cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list membership_requests: %w", err)
	}
	defer rows.Close()

	out := make([]Request, 0, f.Limit)
	for rows.Next() {
		mr, err := scanJoined(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan membership_request: %w", err)
		}
		out = append(out, *mr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows: %w", err)
	}
	return out, total, nil
}

func (r *Repository) MarkApproved(ctx context.Context, id, reviewerID int64, at time.Time) (*Request, error) {
	return r.mark(ctx, `
		UPDATE membership_requests
		SET status = 'approved', reviewed_at = $2, reviewed_by = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING `+baseColumns, id, at, reviewerID)
}

func (r *Repository) MarkRejected(ctx context.Context, id, reviewerID int64, reason string, at time.Time) (*Request, error) {
	return r.mark(ctx, `
		UPDATE membership_requests
		SET status = 'rejected', reviewed_at = $2, reviewed_by = $3, rejection_reason = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING `+baseColumns, id, at, reviewerID, reason)
}

func (r *Repository) DeletePending(ctx context.Context, id, requesterID int64) (*Request, error) {
	return r.mark(ctx, `
		DELETE FROM membership_requests
		WHERE id = $1 AND requester_id = $2 AND status = 'pending'
		RETURNING `+baseColumns, id, requesterID)
}

func (r *Repository) mark(ctx context.Context, q string, args ...any) (*Request, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	mr, err := scanBase(r.db.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFoundOrProcessed
		}
		return nil, fmt.Errorf("update membership_request: %w", err)
	}
	return mr, nil
}
