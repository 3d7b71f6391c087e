package appbootstrap

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"crimevision/api"
	"crimevision/config"
	"crimevision/core/store"
	"crimevision/core/utils"
)

// Run opens the database, applies pending migrations, wires the services and
// serves HTTP until SIGINT or SIGTERM.
func Run(cfg *config.AppConfig, logger *utils.Logger) error {
	db, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := store.Migrate(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	comp := composeRuntime(cfg, db, logger)
	srv := api.NewServer(cfg, comp.serverDeps, logger, comp.workers...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
