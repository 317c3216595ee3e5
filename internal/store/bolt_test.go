package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/academic-portal/apiserver/config"
	"github.com/academic-portal/apiserver/internal/store"
	"github.com/academic-portal/apiserver/internal/store/storetest"
	"github.com/academic-portal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoltStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), config.DatabaseConfig{
		Driver: config.DriverBolt,
		Path:   filepath.Join(t.TempDir(), "portal.bolt"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestBoltStore(t *testing.T) {
	storetest.Run(t, newBoltStore)
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.bolt")
	ctx := context.Background()

	s, err := store.OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateUser(ctx, types.User{ID: "u1", Email: "a@x.com", Name: "Ann", PasswordHash: "h"}))
	require.NoError(t, s.CreateCourse(ctx, types.Course{ID: "EEE.7-3.1", Title: "Microprocessors", UserID: "u1"}))
	require.NoError(t, s.Close())

	reopened, err := store.OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.False(t, got.CreatedAt.IsZero())

	courses, err := reopened.ListCoursesByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Microprocessors", courses[0].Title)
}
