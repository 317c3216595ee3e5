package store

import (
	"context"
	"fmt"

	"github.com/academic-portal/apiserver/config"
	"github.com/academic-portal/apiserver/internal/db"
	"github.com/academic-portal/apiserver/types"
)

// Store is the persistence port for users and courses.
type Store interface {
	CreateUser(ctx context.Context, user types.User) error
	GetUserByEmail(ctx context.Context, email string) (types.User, error)
	GetUserByID(ctx context.Context, id string) (types.User, error)
	DeleteUser(ctx context.Context, id string) error
	CreateCourse(ctx context.Context, course types.Course) error
	ListCoursesByUser(ctx context.Context, userID string) ([]types.Course, error)
	ExportAll(ctx context.Context) (types.Snapshot, error)
	Close() error
}

// AccountCreator is implemented by stores that can persist a user together
// with its courses atomically.
type AccountCreator interface {
	CreateAccount(ctx context.Context, user types.User, courses []types.Course) error
}

// Open returns the backend selected by cfg.Driver. SQL backends are migrated
// first when cfg.AutoMigrate is set.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres, config.DriverSQLite:
		if cfg.AutoMigrate {
			if err := db.Migrate(ctx, cfg); err != nil {
				return nil, err
			}
		}
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
		}
		return NewSQLStore(conn, cfg.Driver, cfg.AcquireTimeout), nil
	case config.DriverBolt:
		return OpenBolt(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}
