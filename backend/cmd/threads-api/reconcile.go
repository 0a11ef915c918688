package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wam-dev/threads/backend/internal/service"
	"github.com/wam-dev/threads/backend/internal/setup"
	"github.com/wam-dev/threads/shared/config"
	"github.com/wam-dev/threads/shared/logger"
	pgutil "github.com/wam-dev/threads/shared/storage/pg"
)

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	store, err := setup.NewStore(cfg, pgutil.LightweightConnectionConfig())
	if err != nil {
		return err
	}
	defer store.Cleanup()

	stats, err := service.NewReconciler(store).Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "users:   %d scanned, %d fixed\n", stats.UsersScanned, stats.UsersFixed)
	fmt.Fprintf(out, "threads: %d scanned, %d fixed\n", stats.ThreadsScanned, stats.ThreadsFixed)
	fmt.Fprintf(out, "took %dms\n", stats.DurationMs)
	return nil
}
