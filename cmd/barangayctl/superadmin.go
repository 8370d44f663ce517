package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barangay/internal/database"
	"barangay/internal/domain/users"
	"barangay/internal/rbac"

	"github.com/spf13/cobra"
)

type superAdminInput struct {
	email     string
	password  string
	firstName string
	lastName  string
}

func (in superAdminInput) validate() error {
	if !strings.Contains(in.email, "@") {
		return errors.New("--email must be an email address")
	}
	if in.password != "" && len(in.password) < 8 {
		return errors.New("--password must be at least 8 characters")
	}
	if strings.TrimSpace(in.firstName) == "" {
		return errors.New("--first-name is required")
	}
	return nil
}

// createSuperAdmin inserts the account, or promotes an existing one with the
// same email. Super admins have no barangay of their own.
func createSuperAdmin(ctx context.Context, store users.Store, in superAdminInput) (*users.User, bool, error) {
	existing, err := store.GetByEmail(ctx, in.email)
	switch {
	case err == nil:
		if err := store.SetRole(ctx, existing.ID, rbac.RoleSuperAdmin); err != nil {
			return nil, false, err
		}
		existing.Role = rbac.RoleSuperAdmin
		return existing, false, nil
	case !errors.Is(err, users.ErrNotFound):
		return nil, false, err
	}

	if in.password == "" {
		return nil, false, errors.New("--password is required for a new account")
	}
	user := &users.User{
		FirstName: in.firstName,
		LastName:  in.lastName,
		Email:     in.email,
		Role:      rbac.RoleSuperAdmin,
	}
	if err := user.Password.Set(in.password); err != nil {
		return nil, false, err
	}
	if err := store.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func superAdminCommand() *cobra.Command {
	var in superAdminInput

	cmd := &cobra.Command{
		Use:   "superadmin",
		Short: "Manage super admin accounts",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a super admin, or promote an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.validate(); err != nil {
				return err
			}

			pool, err := database.New(database.PoolConfig{
				Addr:        globalFlags.dbAddr,
				MaxConns:    2,
				MaxIdleTime: "1m",
			})
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()

			user, created, err := createSuperAdmin(cmd.Context(), users.NewRepository(pool), in)
			if err != nil {
				return err
			}

			logger := newLogger()
			if created {
				logger.Infow("super admin created", "user_id", user.ID, "email", user.Email)
			} else {
				logger.Infow("existing account promoted to super admin", "user_id", user.ID, "email", user.Email)
			}
			return nil
		},
	}

	create.Flags().StringVar(&in.email, "email", "", "account email")
	create.Flags().StringVar(&in.password, "password", "", "account password, required for a new account (min 8 characters)")
	create.Flags().StringVar(&in.firstName, "first-name", "", "first name")
	create.Flags().StringVar(&in.lastName, "last-name", "", "last name")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("first-name")

	cmd.AddCommand(create)
	return cmd
}
