package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hostel-ops-backend/config"
	"hostel-ops-backend/internal/db"
	"hostel-ops-backend/internal/store"
	"hostel-ops-backend/pkg/logging"
)

type cli struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "hostelctl",
		Short:         "hostelctl administers the hostel operations database",
		Long:          "hostelctl runs migrations and manages users, meal rates and monthly summaries without going through the HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./config/config.yaml"
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", defaultPath, "Path to the YAML config file")

	root.AddCommand(c.migrateCmd(), c.usersCmd(), c.rateCmd(), c.summaryCmd())
	return root
}

// withStore loads the config, opens and migrates the database and runs fn.
func (c *cli) withStore(cmd *cobra.Command, fn func(ctx context.Context, s store.Store, cfg *config.Config) error) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return fn(cmd.Context(), store.NewGormStore(gormDB), cfg)
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, s store.Store, cfg *config.Config) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", cfg.Database.Driver)
				return nil
			})
		},
	}
}
