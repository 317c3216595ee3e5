package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/academic-portal/apiserver/config"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T, maxOpen int, acquire time.Duration) *SQLStore {
	t.Helper()
	st, err := Open(context.Background(), config.DatabaseConfig{
		Driver:         config.DriverSQLite,
		Path:           filepath.Join(t.TempDir(), "portal.db"),
		MaxOpenConns:   maxOpen,
		AcquireTimeout: acquire,
		AutoMigrate:    true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	sqlStore, ok := st.(*SQLStore)
	require.True(t, ok)
	return sqlStore
}

func TestRebind(t *testing.T) {
	pg := NewSQLStore(nil, config.DriverPostgres, 0)
	assert.Equal(t, "SELECT * FROM users WHERE id = $1 AND email = $2", pg.rebind("SELECT * FROM users WHERE id = ? AND email = ?"))

	lite := NewSQLStore(nil, config.DriverSQLite, 0)
	assert.Equal(t, "SELECT * FROM users WHERE id = ?", lite.rebind("SELECT * FROM users WHERE id = ?"))
	assert.Equal(t, defaultAcquireTimeout, lite.timeout)
}

func TestClassifyPostgresErrors(t *testing.T) {
	assert.ErrorIs(t, classify(&pq.Error{Code: "23505", Message: "users_email_key"}), ErrDuplicateKey)
	assert.ErrorIs(t, classify(&pq.Error{Code: "23503", Message: "courses_user_id_fkey"}), ErrForeignKeyViolation)
	assert.ErrorIs(t, classify(&pq.Error{Code: "08006"}), ErrTransport)
}

func TestClassifyGenericErrors(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.Equal(t, ErrNotFound, classify(sql.ErrNoRows))

	err := classify(context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.ErrorIs(t, classify(errors.New("connection refused")), ErrTransport)
}

func TestDBTimeScan(t *testing.T) {
	var got time.Time
	assert.NoError(t, dbTime{&got}.Scan("2026-10-14 09:30:15"))
	assert.Equal(t, time.Date(2026, 10, 14, 9, 30, 15, 0, time.UTC), got)

	assert.NoError(t, dbTime{&got}.Scan([]byte("2026-10-14T09:30:15Z")))
	assert.Equal(t, time.Date(2026, 10, 14, 9, 30, 15, 0, time.UTC), got)

	local := time.Date(2026, 10, 14, 12, 30, 15, 42, time.FixedZone("EEST", 3*60*60))
	assert.NoError(t, dbTime{&got}.Scan(local))
	assert.Equal(t, time.Date(2026, 10, 14, 9, 30, 15, 0, time.UTC), got)

	assert.Error(t, dbTime{&got}.Scan(42))
}

func TestDrainedPoolFailsWithinAcquireTimeout(t *testing.T) {
	s := openSQLite(t, 1, 200*time.Millisecond)
	ctx := context.Background()

	conn, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	start := time.Now()
	_, err = s.GetUserByID(ctx, "u1")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 2*time.Second)

	_, err = s.ListCoursesByUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClassifySQLiteConstraints(t *testing.T) {
	s := openSQLite(t, 1, time.Second)
	ctx := context.Background()

	insertUser := `INSERT INTO users (id, email, name, password_hash) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, insertUser, "u1", "a@x.com", "Ann", "hash")
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, insertUser, "u2", "a@x.com", "Dup", "hash")
	assert.ErrorIs(t, classify(err), ErrDuplicateKey)

	_, err = s.db.ExecContext(ctx, insertUser, "u1", "b@x.com", "Dup", "hash")
	assert.ErrorIs(t, classify(err), ErrDuplicateKey)

	_, err = s.db.ExecContext(ctx, `INSERT INTO courses (id, title, user_id) VALUES (?, ?, ?)`, "C1", "T", "ghost")
	assert.ErrorIs(t, classify(err), ErrForeignKeyViolation)

	_, err = s.db.ExecContext(ctx, insertUser, "u3", "c@x.com", nil, "hash")
	require.Error(t, err)
	classified := classify(err)
	assert.ErrorIs(t, classified, ErrTransport)
	assert.NotErrorIs(t, classified, ErrDuplicateKey)
	assert.NotErrorIs(t, classified, ErrForeignKeyViolation)
}
