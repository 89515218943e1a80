package main

import (
	"os"

	"github.com/aussiebroadwan/signet/internal/auth/app"
	"github.com/aussiebroadwan/signet/pkg/slogx"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the auth service CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "signet authentication service",
		Long: `Username/password sign-up and sign-in with HMAC-signed session tokens,
and email one-time codes. Configuration is read from the environment.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Apply migrations, then serve the auth API until SIGINT or SIGTERM.
Flags override the matching environment variables.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			application, err := app.New(cfg)
			if err != nil {
				return oops.Code("APP_INIT_FAILED").Wrap(err)
			}
			return application.Run()
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides PORT)")
	return cmd
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations to the SQLite database and exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if database == "" {
				database = os.Getenv("AUTH_DATABASE_FILE")
			}
			if database == "" {
				database = "auth.db"
			}

			logger := slogx.New(slogx.Config{
				Service: "auth-service",
				Version: app.BuildVersion,
				Env:     os.Getenv("ENV"),
				Level:   os.Getenv("LOG_LEVEL"),
				Format:  os.Getenv("LOG_FORMAT"),
				Output:  cmd.ErrOrStderr(),
			})

			if err := app.Migrate(app.Config{DatabaseFile: database}, logger); err != nil {
				return oops.Code("MIGRATION_FAILED").With("database", database).Wrap(err)
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "SQLite database file (overrides AUTH_DATABASE_FILE)")
	return cmd
}
