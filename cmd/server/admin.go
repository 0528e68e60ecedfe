package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/config"
	"github.com/BerylCAtieno/health-records-api/internal/db"
	"github.com/BerylCAtieno/health-records-api/internal/middleware"
	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/repository"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/spf13/cobra"
)

// openStore connects the document store selected by STORE_DRIVER. For SQLite
// the schema migrations run as part of opening.
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := repository.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		store, err := repository.NewMongoStore(ctx, client.Database(cfg.MongoDatabase))
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return store, func() { _ = client.Disconnect(context.Background()) }, nil
	default:
		database, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLStore(database), func() { database.Close() }, nil
	}
}

func withStore(fn func(ctx context.Context, cfg *config.Config, store *repository.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(ctx, cfg, store)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations (SQLite) or create indexes (MongoDB)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, _ *repository.Store) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%s store is up to date\n", cfg.StoreDriver)
				return nil
			})
		},
	}
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage patient and doctor accounts",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			role, _ := cmd.Flags().GetString("role")
			specialization, _ := cmd.Flags().GetString("specialization")

			user, err := newUser(email, name, models.Role(strings.ToLower(role)), specialization)
			if err != nil {
				return err
			}

			return withStore(func(ctx context.Context, _ *config.Config, store *repository.Store) error {
				if err := store.Users.Create(ctx, user); err != nil {
					return fmt.Errorf("create user: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.ID, user.Email)
				return nil
			})
		},
	}
	addCmd.Flags().String("email", "", "Email address")
	addCmd.Flags().String("name", "", "Display name")
	addCmd.Flags().String("role", string(models.RolePatient), "patient or doctor")
	addCmd.Flags().String("specialization", "", "Doctor specialization, e.g. Cardiologist")
	_ = addCmd.MarkFlagRequired("email")
	cmd.AddCommand(addCmd)

	return cmd
}

func newUser(email, name string, role models.Role, specialization string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("--email is required")
	}
	switch role {
	case models.RolePatient:
		specialization = ""
	case models.RoleDoctor:
		if specialization == "" {
			return nil, fmt.Errorf("--specialization is required for doctors")
		}
	default:
		return nil, fmt.Errorf("--role must be %q or %q", models.RolePatient, models.RoleDoctor)
	}
	if name == "" {
		name = email
	}
	return &models.User{
		ID:             utils.GenerateID(),
		Email:          email,
		Name:           name,
		Role:           role,
		Specialization: specialization,
		CreatedAt:      utils.Now(),
	}, nil
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			return withStore(func(ctx context.Context, cfg *config.Config, store *repository.Store) error {
				user, err := store.Users.GetByEmail(ctx, email)
				if err != nil {
					return fmt.Errorf("look up user: %w", err)
				}
				if user == nil {
					return fmt.Errorf("no user with email %q", email)
				}
				tok, err := middleware.IssueToken([]byte(cfg.JWTSecret), user, ttl)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tok)
				return nil
			})
		},
	}
	cmd.Flags().String("email", "", "Email of the user to issue a token for")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
