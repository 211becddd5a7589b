package kv

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/mapty/internal/config"
)

// Open connects the backend selected by cfg.Driver. The postgres driver
// applies pending migrations before connecting.
func Open(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("storage opened", "driver", cfg.Driver, "path", cfg.SQLitePath)
		return s, nil
	case config.DriverPostgres:
		dsn := cfg.Postgres.DSN()
		if err := RunMigrations(dsn, cfg.Migrations); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
		p, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("storage opened", "driver", cfg.Driver, "host", cfg.Postgres.Host)
		return p, nil
	case config.DriverMemory:
		log.Warn("storage is in-memory, workouts will not survive a restart")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
