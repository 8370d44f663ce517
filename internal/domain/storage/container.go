package storage

import (
	"context"
	"errors"

	"barangay/internal/database"
	"barangay/internal/domain/activity"
	"barangay/internal/domain/dashboard"
	"barangay/internal/domain/documents"
	"barangay/internal/domain/membership"
	"barangay/internal/domain/municipalities"
	"barangay/internal/domain/pushtokens"
	"barangay/internal/domain/users"
	"barangay/internal/domain/verification"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories is one set of stores bound to either the pool or a tx.
type Repositories struct {
	Users          users.Store
	Municipalities municipalities.Store
	Membership     membership.Store
	Verification   verification.Store
	Documents      documents.Store
	Activity       activity.Store
	Dashboard      dashboard.Store
	PushTokens     pushtokens.Store
}

func newRepositories(db database.DBTX) Repositories {
	return Repositories{
		Users:          users.NewRepository(db),
		Municipalities: municipalities.NewRepository(db),
		Membership:     membership.NewRepository(db),
		Verification:   verification.NewRepository(db),
		Documents:      documents.NewRepository(db),
		Activity:       activity.NewRepository(db),
		Dashboard:      dashboard.NewRepository(db),
		PushTokens:     pushtokens.NewRepository(db),
	}
}

// Store is what services depend on: pool-bound repositories plus a way to
// run a unit of work atomically.
type Store interface {
	Repos() *Repositories
	WithTx(ctx context.Context, fn func(r *Repositories) error) error
}

type Container struct {
	pool *pgxpool.Pool
	Repositories
}

func NewContainer(pool *pgxpool.Pool) *Container {
	return &Container{
		pool:         pool,
		Repositories: newRepositories(pool),
	}
}

func (c *Container) Repos() *Repositories { return &c.Repositories }

// WithTx hands fn repositories bound to one transaction. Everything fn does
// commits together or not at all.
func (c *Container) WithTx(ctx context.Context, fn func(r *Repositories) error) error {
	if c.pool == nil {
		return errors.New("storage container pool is nil")
	}
	return database.WithTx(ctx, c.pool, func(tx pgx.Tx) error {
		repos := newRepositories(tx)
		return fn(&repos)
	})
}
