package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	coreconfig "github.com/AzielCF/az-citas/core/config"
	coreDB "github.com/AzielCF/az-citas/core/database"
	"github.com/AzielCF/az-citas/infrastructure/valkey"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and ping the backing stores",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, _ []string) error {
	summary := cfg.Summary()
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-18s %v\n", k, summary[k])
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pingDatabase(ctx, cfg.Database); err != nil {
		return err
	}
	logrus.WithField("driver", cfg.Database.Driver).Info("[CHECK] Database reachable")

	if cfg.Database.ValkeyEnabled {
		vk, err := valkey.NewClient(cfg.Database)
		if err != nil {
			return err
		}
		defer vk.Close()
		logrus.WithField("address", cfg.Database.ValkeyAddress).Info("[CHECK] Valkey reachable")
	}
	return nil
}

// pingDatabase va por database/sql directo para no crear tablas al chequear.
func pingDatabase(ctx context.Context, dbCfg coreconfig.DatabaseConfig) error {
	driver, dsn := "sqlite3", coreDB.SQLiteDSN(dbCfg)
	if dbCfg.Driver == "postgres" {
		driver, dsn = "postgres", coreDB.PostgresDSN(dbCfg)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", dbCfg.Driver, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping %s: %w", dbCfg.Driver, err)
	}
	return nil
}
