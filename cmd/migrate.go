package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AzielCF/az-citas/usecase"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	Run:   runMigrate,
}

func init() {
	migrateCmd.Flags().Bool("cleanup", false, "also delete processed-message markers older than the retention window")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) {
	ctx := context.Background()

	c, err := newStorage(ctx, cfg)
	if err != nil {
		logrus.Fatalf("[MIGRATION] %v", err)
	}
	defer c.Close()

	store, err := c.durableDedupStore(ctx)
	if err != nil {
		logrus.Fatalf("[MIGRATION] %v", err)
	}
	logrus.WithField("driver", cfg.Database.Driver).Info("[MIGRATION] Tables are up to date")

	if cleanup, _ := cmd.Flags().GetBool("cleanup"); !cleanup || store == nil {
		return
	}
	dedup := usecase.NewDedupService(store, nil, usecase.DedupOptions{Retention: cfg.Dedup.DurableRetention})
	removed, err := dedup.Cleanup(ctx)
	if err != nil {
		logrus.Fatalf("[MIGRATION] Cleanup failed: %v", err)
	}
	logrus.WithField("removed", removed).Info("[MIGRATION] Old processed-message markers removed")
}
