// Command custodyctl is the operator CLI: it mints caller tokens, applies the
// Postgres schema and seeds participants.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"custody/internal/app"
	jwttoken "custody/internal/jwt_token"
	"custody/internal/platform/config"
	"custody/internal/platform/logger"
	"custody/internal/platform/postgres"
	id "custody/pkg/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "custodyctl",
		Short:         "Operate a custody ledger deployment",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newTokenCmd(), newMigrateCmd(), newSeedCmd())
	return root
}

func newTokenCmd() *cobra.Command {
	var (
		identity string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an identity with the configured signing key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := id.ParseIdentity(identity)
			if err != nil {
				return fmt.Errorf("--identity: %w", err)
			}
			cfg := config.FromEnv()
			tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, jwttoken.DefaultAudience)
			token, err := tokens.GenerateAccessToken(caller, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&identity, "identity", "", "caller identity (0x-prefixed address)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("identity")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema at DATABASE_URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromEnv()
			if cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			db, err := postgres.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return err
		},
	}
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Enroll the participants listed in a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromEnv()
			if cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is required; an in-memory seed would be discarded")
			}
			a, err := app.New(cmd.Context(), cfg, logger.New(cfg.LogLevel))
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Seed(cmd.Context(), file)
			if err != nil {
				return err
			}
			// Deliver the Registered notifications the seed queued.
			if _, err := a.Relay.Flush(cmd.Context()); err != nil {
				return fmt.Errorf("flush notifications: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "enrolled %d participants\n", n)
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed file path")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
