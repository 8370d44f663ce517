package main

import (
	"database/sql"
	"errors"
	"fmt"

	"barangay/internal/migrate"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func openSQL(addr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", addr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	return db, nil
}

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	withManager := func(run func(cmd *cobra.Command, m *migrate.Manager) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			db, err := openSQL(globalFlags.dbAddr)
			if err != nil {
				return err
			}
			defer db.Close()
			return run(cmd, migrate.NewManager(db, migrate.Files()))
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: withManager(func(cmd *cobra.Command, m *migrate.Manager) error {
			logger := newLogger()
			applied, err := m.Up(cmd.Context())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				logger.Info("schema is up to date")
				return nil
			}
			for _, name := range applied {
				logger.Infow("applied", "migration", name)
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: withManager(func(cmd *cobra.Command, m *migrate.Manager) error {
			name, err := m.Down(cmd.Context())
			if errors.Is(err, migrate.ErrNothingApplied) {
				newLogger().Info("nothing to roll back")
				return nil
			}
			if err != nil {
				return err
			}
			newLogger().Infow("rolled back", "migration", name)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: withManager(func(cmd *cobra.Command, m *migrate.Manager) error {
			applied, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			pending, err := m.Pending(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range applied {
				fmt.Fprintf(out, "applied  %s\n", name)
			}
			for _, name := range pending {
				fmt.Fprintf(out, "pending  %s\n", name)
			}
			return nil
		}),
	})

	return cmd
}
