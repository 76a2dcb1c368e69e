package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tej1010/spongier-backend-sub001/internal/app"
)

var rootCmd = &cobra.Command{
	Use:           "spongier",
	Short:         "Video watch-progress and completion service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and side-effect workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(app.Options{SkipMigrate: true})
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Migrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		a.Log.Info("Migration complete")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "Load environment variables from this file before starting")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("env-file")
		if path != "" {
			return godotenv.Load(path)
		}
		// A missing .env is normal outside local development.
		_ = godotenv.Load()
		return nil
	}
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func serve(ctx context.Context) error {
	a, err := app.New(app.Options{})
	if err != nil {
		return err
	}

	a.Start()
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	select {
	case <-ctx.Done():
		a.Log.Info("Shutting down...")
	case err = <-errCh:
		if err != nil {
			a.Log.Error("HTTP server stopped", "error", err)
		}
	}
	return errors.Join(err, a.Close())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
