package pushtokens

import (
	"context"
	"fmt"
	"strings"
	"time"

	"barangay/internal/database"
)

const queryTimeout = 5 * time.Second

type Store interface {
	Register(ctx context.Context, userID int64, token, platform string) error
	Remove(ctx context.Context, userID int64, token string) error
	RemoveTokens(ctx context.Context, tokens []string) error
	TokensFor(ctx context.Context, userIDs []int64) (map[int64][]string, error)
	PruneStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Repository struct {
	db database.DBTX
}

func NewRepository(db database.DBTX) Store {
	return &Repository{db: db}
}

// Register upserts the device token and refreshes its timestamp.
func (r *Repository) Register(ctx context.Context, userID int64, token, platform string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO user_push_tokens (user_id, expo_push_token, platform, last_updated)
		VALUES ($1, $2, NULLIF($3, ''), NOW())
		ON CONFLICT (user_id, expo_push_token)
		DO UPDATE SET platform = EXCLUDED.platform, last_updated = NOW()
	`, userID, strings.TrimSpace(token), platform)
	if err != nil {
		return fmt.Errorf("register push token: %w", err)
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, userID int64, token string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx,
		`DELETE FROM user_push_tokens WHERE user_id = $1 AND expo_push_token = $2`, userID, token)
	if err != nil {
		return fmt.Errorf("remove push token: %w", err)
	}
	return nil
}

// RemoveTokens drops tokens Expo reported as no longer registered.
func (r *Repository) RemoveTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM user_push_tokens WHERE expo_push_token = ANY($1)`, tokens)
	if err != nil {
		return fmt.Errorf("remove push tokens: %w", err)
	}
	return nil
}

func (r *Repository) TokensFor(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string)
	if len(userIDs) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx,
		`SELECT user_id, expo_push_token FROM user_push_tokens WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("push tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			uid   int64
			token string
		)
		if err := rows.Scan(&uid, &token); err != nil {
			return nil, err
		}
		result[uid] = append(result[uid], token)
	}
	return result, rows.Err()
}

func (r *Repository) PruneStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	interval := fmt.Sprintf("%d seconds", int64(olderThan.Seconds()))
	tag, err := r.db.Exec(ctx,
		`DELETE FROM user_push_tokens WHERE last_updated < NOW() - $1::interval`, interval)
	if err != nil {
		return 0, fmt.Errorf("prune push tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
