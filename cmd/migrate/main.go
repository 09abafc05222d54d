// Command migrate applies or rolls back the embedded database migrations.
//
//	migrate [up|down]
package main

import (
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/spec-kit/fluxo-portal/internal/config"
	"github.com/spec-kit/fluxo-portal/internal/observability"
	"github.com/spec-kit/fluxo-portal/internal/persistence"
)

func main() {
	direction := persistence.MigrateUp
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := persistence.RunMigrations(cfg.Postgres.DSN, direction, logger); err != nil {
		logger.Fatal("migration failed", zap.String("direction", direction), zap.Error(err))
	}
}
