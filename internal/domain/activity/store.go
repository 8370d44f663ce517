package activity

import (
	"context"
	"fmt"
	"time"

	"barangay/internal/database"
)

const (
	queryTimeout = 5 * time.Second
	maxRecent    = 100
)

type Repository struct {
	db database.DBTX
}

func NewRepository(db database.DBTX) Store {
	return &Repository{db: db}
}

func (r *Repository) Append(ctx context.Context, e *Entry) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO activity_logs (actor_id, municipality_id, action, details, entity_type, entity_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING id, created_at
	`, e.ActorID, e.MunicipalityID, e.Action, e.Details, e.EntityType, e.EntityID).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity_log: %w", err)
	}
	return nil
}

func (r *Repository) Recent(ctx context.Context, municipalityID *int64, limit int) ([]Entry, error) {
	if limit <= 0 || limit > maxRecent {
		limit = 10
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.actor_id, a.municipality_id, a.action, a.details,
			COALESCE(a.entity_type, ''), a.entity_id, a.created_at,
			TRIM(u.first_name || ' ' || u.last_name)
		FROM activity_logs a
		JOIN users u ON u.id = a.actor_id
		WHERE ($1::bigint IS NULL OR a.municipality_id = $1)
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $2
	`, municipalityID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID,
			&e.ActorID,
			&e.MunicipalityID,
			&e.Action,
			&e.Details,
			&e.EntityType,
			&e.EntityID,
			&e.CreatedAt,
			&e.ActorName,
		); err != nil {
			return nil, fmt.Errorf("scan activity_log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
