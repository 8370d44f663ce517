package documents

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
	queryTimeout = 5 * time.Second
	baseColumns  = `id, requester_id, municipality_id, document_type, purpose, status, remarks,
		submitted_at, reviewed_at, reviewed_by, completed_at`
)

type Repository struct {
	db database.DBTX
}

func NewRepository(db database.DBTX) Store {
	return &Repository{db: db}
}

func scanBase(row pgx.Row, extra ...any) (*Request, error) {
	var (
		dr      Request
		remarks sql.NullString
	)
	dest := append([]any{
		&dr.ID,
		&dr.RequesterID,
		&dr.MunicipalityID,
		&dr.Type,
		&dr.Purpose,
		&dr.Status,
		&remarks,
		&dr.SubmittedAt,
		&dr.ReviewedAt,
		&dr.ReviewedBy,
		&dr.CompletedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if remarks.Valid {
		dr.Remarks = &remarks.String
	}
	return &dr, nil
}

func (r *Repository) Create(ctx context.Context, in CreateInput) (*Request, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	dr, err := scanBase(r.db.QueryRow(ctx, `
		INSERT INTO document_requests (requester_id, municipality_id, document_type, purpose, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING `+baseColumns,
		in.RequesterID, in.MunicipalityID, string(in.Type), in.Purpose))
	if err != nil {
		return nil, fmt.Errorf("insert document_request: %w", err)
	}
	return dr, nil
}

const selectJoined = `
	SELECT dr.id, dr.requester_id, dr.municipality_id, dr.document_type, dr.purpose, dr.status,
		dr.remarks, dr.submitted_at, dr.reviewed_at, dr.reviewed_by, dr.completed_at,
		TRIM(u.first_name || ' ' || u.last_name)
	FROM document_requests dr
	JOIN users u ON u.id = dr.requester_id
`

func scanJoined(row pgx.Row) (*Request, error) {
	var name string
	dr, err := scanBase(row, &name)
	if err != nil {
		return nil, err
	}
	dr.RequesterName = name
	return dr, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Request, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	dr, err := scanJoined(r.db.QueryRow(ctx, selectJoined+` WHERE dr.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document_request: %w", err)
	}
	return dr, nil
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
		where = append(where, fmt.Sprintf("dr.requester_id = $%d", len(args)))
	}
	if f.MunicipalityID != nil {
		args = append(args, *f.MunicipalityID)
		where = append(where, fmt.Sprintf("dr.municipality_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("dr.status = $%d", len(args)))
	}
	if f.Type != nil {
		args = append(args, string(*f.Type))
		where = append(where, fmt.Sprintf("dr.document_type = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM document_requests dr WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count document_requests: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf(`%s WHERE %s ORDER BY dr.submitted_at DESC, dr.id DESC LIMIT $%d OFFSET $%d`,
		selectJoined, cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list document_requests: %w", err)
	}
	defer rows.Close()

	out := make([]Request, 0, f.Limit)
	for rows.Next() {
		dr, err := scanJoined(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan document_request: %w", err)
		}
		out = append(out, *dr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows: %w", err)
	}
	return out, total, nil
}

func (r *Repository) Transition(ctx context.Context, in TransitionInput) (*Request, error) {
	if !review.CanTransitionDocument(in.From, in.To) {
		return nil, review.ErrInvalidTransition
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var completedAt *time.Time
	if in.To == review.DocumentCompleted {
		completedAt = &in.At
	}

	dr, err := scanBase(r.db.QueryRow(ctx, `
		UPDATE document_requests
		SET status = $3,
			reviewed_by = $4,
			reviewed_at = $5,
			remarks = COALESCE($6, remarks),
			completed_at = COALESCE($7, completed_at)
		WHERE id = $1 AND status = $2
		RETURNING `+baseColumns,
		in.ID, string(in.From), string(in.To), in.ReviewerID, in.At, in.Remarks, completedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFoundOrProcessed
		}
		return nil, fmt.Errorf("transition document_request: %w", err)
	}
	return dr, nil
}

func (r *Repository) ListBetween(ctx context.Context, municipalityID *int64, from, to time.Time) ([]Request, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, selectJoined+`
		WHERE dr.submitted_at >= $1 AND dr.submitted_at < $2
			AND ($3::bigint IS NULL OR dr.municipality_id = $3)
		ORDER BY dr.submitted_at
	`, from, to, municipalityID)
	if err != nil {
		return nil, fmt.Errorf("list document_requests between: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		dr, err := scanJoined(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document_request: %w", err)
		}
		out = append(out, *dr)
	}
	return out, rows.Err()
}
