package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/academic-portal/apiserver/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies all pending up migrations. It opens its own connection
// because the migrate drivers close the instance they are given.
func Migrate(ctx context.Context, cfg config.DatabaseConfig) error {
	migrator, err := newMigrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate up failed: %w", err)
	}
	return nil
}

// MigrateDown reverts every applied migration.
func MigrateDown(ctx context.Context, cfg config.DatabaseConfig) error {
	migrator, err := newMigrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate down failed: %w", err)
	}
	return nil
}

func newMigrator(ctx context.Context, cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations/"+cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("load migrations for %s: %w", cfg.Driver, err)
	}

	conn, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var driver database.Driver
	switch cfg.Driver {
	case config.DriverPostgres:
		driver, err = migratepg.WithInstance(conn, &migratepg.Config{})
	case config.DriverSQLite:
		driver, err = migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("driver %q has no migrations", cfg.Driver)
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, cfg.Driver, driver)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}
	return migrator, nil
}
