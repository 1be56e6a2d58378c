package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"

	coreconfig "github.com/okhomin/freightbot/core/config"
	"github.com/okhomin/freightbot/core/logger"
)

// Migrate applies pending file-based migrations to the connected database.
func Migrate(ctx context.Context, db *sqlx.DB, cfg coreconfig.DatabaseConfig) error {
	start := time.Now()

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("database: migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(
		"file://"+cfg.MigrationsDir,
		cfg.Name,
		driver,
	)
	if err != nil {
		return fmt.Errorf("database: migrate init: %w", err)
	}

	err = m.Up()
	switch {
	case err == nil:
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			return fmt.Errorf("database: migrate version: %w", verr)
		}
		logger.Info(ctx, "migrate", "migrate.applied",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
			slog.Duration("duration", logger.Took(start)),
		)
		return nil
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info(ctx, "migrate", "migrate.up_to_date",
			slog.Duration("duration", logger.Took(start)),
		)
		return nil
	default:
		return fmt.Errorf("database: migrate up: %w", err)
	}
}
