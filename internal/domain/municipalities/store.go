package municipalities

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barangay/internal/database"

	"github.com/jackc/pgx/v5"
)

const queryTimeout = 5 * time.Second

type Repository struct {
	db database.DBTX
}

func NewRepository(db database.DBTX) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, in CreateInput) (*Municipality, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	m := &Municipality{
		Name:     strings.TrimSpace(in.Name),
		Province: strings.TrimSpace(in.Province),
		Region:   in.Region,
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO municipalities (name, province, region)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, m.Name, m.Province, m.Region).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert municipality: %w", err)
	}
	return m, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Municipality, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var m Municipality
	err := r.db.QueryRow(ctx,
		`SELECT id, name, province, region, created_at FROM municipalities WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Province, &m.Region, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get municipality: %w", err)
	}
	return &m, nil
}

func (r *Repository) List(ctx context.Context) ([]Municipality, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx,
		`SELECT id, name, province, region, created_at FROM municipalities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list municipalities: %w", err)
	}
	defer rows.Close()

	var out []Municipality
	for rows.Next() {
		var m Municipality
		if err := rows.Scan(&m.ID, &m.Name, &m.Province, &m.Region, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan municipality: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
