package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	mw "github.com/kiranshivaraju/cropadvisor/internal/api/middleware"
	"github.com/kiranshivaraju/cropadvisor/internal/config"
	"github.com/kiranshivaraju/cropadvisor/internal/store"
	"github.com/kiranshivaraju/cropadvisor/pkg/models"
)

const apiKeyPrefix = "ca_"

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd(migrationsDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := config.LoadDatabase()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := store.RunMigrations(db.URL, *migrationsDir); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			slog.Info("database migrations applied", "dir", *migrationsDir)
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// apikey command
// --------------------------------------------------------------------------

// keyStore is what the apikey commands need from the store.
type keyStore interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}

func apikeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	cmd.AddCommand(apikeyCreateCmd())
	cmd.AddCommand(apikeyRevokeCmd())
	return cmd
}

func apikeyCreateCmd() *cobra.Command {
	var (
		email  string
		name   string
		scopes []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue an API key for a user (the raw key is printed once)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s store.Store) error {
				return createAPIKey(ctx, s, cmd.OutOrStdout(), email, name, scopes)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the user the key belongs to")
	cmd.Flags().StringVar(&name, "name", "default", "Label to tell a user's keys apart")
	cmd.Flags().StringSliceVar(&scopes, "scopes", slices.Clone(models.KnownScopes),
		"Scopes granted to the key ("+strings.Join(models.KnownScopes, ", ")+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func apikeyRevokeCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an API key by ID",
		RunE: func(cmd *cobra.Command, _ []string) error {
			keyID, err := uuid.Parse(id)
			if err != nil {
				return fmt.Errorf("invalid key id %q: %w", id, err)
			}
			return withStore(cmd.Context(), func(ctx context.Context, s store.Store) error {
				if err := s.RevokeAPIKey(ctx, keyID); err != nil {
					return fmt.Errorf("revoke api key: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", keyID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "ID of the key to revoke")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func withStore(parent context.Context, fn func(ctx context.Context, s store.Store) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	db, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pool, err := store.Connect(ctx, db)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, store.NewPostgresStore(pool))
}

func createAPIKey(ctx context.Context, s keyStore, out io.Writer, email, name string, scopes []string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("invalid email %q: %w", email, err)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name must not be empty")
	}
	if len(scopes) == 0 {
		return fmt.Errorf("at least one scope is required")
	}
	for _, sc := range scopes {
		if !slices.Contains(models.KnownScopes, sc) {
			return fmt.Errorf("unknown scope %q", sc)
		}
	}

	raw, err := generateAPIKey()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash api key: %w", err)
	}

	now := time.Now().UTC()
	key := &models.APIKey{
		ID:        uuid.New(),
		UserEmail: strings.ToLower(addr.Address),
		Name:      name,
		KeyHash:   string(hash),
		KeyPrefix: raw[:mw.KeyPrefixLen],
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateAPIKey(ctx, key); err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	slog.Info("api key created", "key_id", key.ID, "user", key.UserEmail, "prefix", key.KeyPrefix)
	fmt.Fprintf(out, "id:  %s\nkey: %s\n", key.ID, raw)
	return nil
}

// generateAPIKey returns "ca_" followed by 48 random hex characters.
func generateAPIKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(b), nil
}
