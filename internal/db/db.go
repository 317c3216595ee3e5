package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/academic-portal/apiserver/config"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	defaultPingTimeout  = 5 * time.Second
	defaultConnMaxIdle  = 2 * time.Minute
	defaultConnMaxLife  = 30 * time.Minute
	defaultMaxIdleConns = 5
	defaultMaxOpenConns = 10
	sqliteBusyTimeoutMS = 5000
)

// Open connects to the relational store named by cfg.Driver and verifies it
// with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	driverName, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverSQLite {
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen < 1 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := defaultMaxIdleConns
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}

	db.SetConnMaxIdleTime(defaultConnMaxIdle)
	db.SetConnMaxLifetime(defaultConnMaxLife)
	db.SetMaxIdleConns(maxIdle)
	db.SetMaxOpenConns(maxOpen)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// DSN returns the database/sql driver name and data source for cfg.
func DSN(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return "postgres", PostgresURL(cfg), nil
	case config.DriverSQLite:
		if cfg.Path == "" {
			return "", "", fmt.Errorf("sqlite database path is required")
		}
		q := url.Values{}
		q.Add("_pragma", "foreign_keys(1)")
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", sqliteBusyTimeoutMS))
		q.Add("_pragma", "journal_mode(WAL)")
		return "sqlite", "file:" + cfg.Path + "?" + q.Encode(), nil
	default:
		return "", "", fmt.Errorf("driver %q is not a SQL driver", cfg.Driver)
	}
}

// PostgresURL builds a postgres:// connection URL.
func PostgresURL(cfg config.DatabaseConfig) string {
	sslmode := "disable"
	if cfg.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		User:   url.UserPassword(cfg.User, cfg.Password),
		Path:   cfg.DBName,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}
