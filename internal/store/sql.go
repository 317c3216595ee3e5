package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/academic-portal/apiserver/config"
	"github.com/academic-portal/apiserver/internal/timeutil"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const defaultAcquireTimeout = 5 * time.Second

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore persists users and courses in PostgreSQL or SQLite.
type SQLStore struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
}

func NewSQLStore(db *sql.DB, driver string, acquireTimeout time.Duration) *SQLStore {
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}
	return &SQLStore{db: db, driver: driver, timeout: acquireTimeout}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// withTimeout bounds an operation so a drained pool fails instead of blocking.
func (s *SQLStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) beginSnapshot(ctx context.Context) (*sql.Tx, error) {
	if s.driver == config.DriverPostgres {
		return s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return s.db.BeginTx(ctx, nil)
}

// classify maps driver errors onto the store error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicateKey, pqErr.Message)
		case "23503":
			return fmt.Errorf("%w: %s", ErrForeignKeyViolation, pqErr.Message)
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %s", ErrForeignKeyViolation, liteErr.Error())
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", ErrDuplicateKey, liteErr.Error())
		case code&0xff == sqlite3.SQLITE_CONSTRAINT:
			// Extended codes are off on some connections; fall back to the message.
			msg := liteErr.Error()
			switch {
			case strings.Contains(msg, "FOREIGN KEY constraint"):
				return fmt.Errorf("%w: %s", ErrForeignKeyViolation, msg)
			case strings.Contains(msg, "UNIQUE constraint"):
				return fmt.Errorf("%w: %s", ErrDuplicateKey, msg)
			}
		}
	}

	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// dbTime scans timestamps stored either natively or as StorageLayout text.
type dbTime struct {
	t *time.Time
}

func (d dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.t = time.Time{}
	case time.Time:
		*d.t = timeutil.Normalize(v)
	case string:
		parsed, err := timeutil.Parse(v)
		if err != nil {
			return err
		}
		*d.t = parsed
	case []byte:
		parsed, err := timeutil.Parse(string(v))
		if err != nil {
			return err
		}
		*d.t = parsed
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

func createdAtOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return timeutil.Normalize(time.Now())
	}
	return timeutil.Normalize(t)
}
