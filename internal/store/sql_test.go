package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/academic-portal/apiserver/config"
	"github.com/academic-portal/apiserver/internal/store"
	"github.com/academic-portal/apiserver/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) store.Store {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver:         config.DriverSQLite,
		Path:           filepath.Join(t.TempDir(), "portal.db"),
		MaxOpenConns:   4,
		AcquireTimeout: 2 * time.Second,
		AutoMigrate:    true,
	}
	s, err := store.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, newSQLiteStore)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
}
