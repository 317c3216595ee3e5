package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/academic-portal/apiserver/internal/timeutil"
	"github.com/academic-portal/apiserver/types"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketUsers   = []byte("users")
	bucketEmails  = []byte("users_by_email")
	bucketCourses = []byte("courses")
)

// courseKeySep separates user id and course code in course keys, so a
// prefix scan over "<userID>\x00" yields exactly that user's courses.
const courseKeySep = 0x00

const boltOpenTimeout = time.Second

// BoltStore persists users and courses in an embedded bbolt file. Unique
// email, foreign key and cascade rules are enforced inside each
// read-write transaction.
type BoltStore struct {
	db *bolt.DB
}

// boltUser is the on-disk representation; unlike types.User it keeps the hash.
type boltUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func OpenBolt(path string) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("bolt database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketEmails, bucketCourses} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) CreateUser(ctx context.Context, user types.User) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		return putUser(tx, user)
	})
}

func (s *BoltStore) GetUserByEmail(ctx context.Context, email string) (types.User, error) {
	var user types.User
	err := s.view(ctx, func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketEmails).Get([]byte(email))
		if id == nil {
			return ErrNotFound
		}
		var err error
		user, err = getUser(tx, string(id))
		return err
	})
	return user, err
}

func (s *BoltStore) GetUserByID(ctx context.Context, id string) (types.User, error) {
	var user types.User
	err := s.view(ctx, func(tx *bolt.Tx) error {
		var err error
		user, err = getUser(tx, id)
		return err
	})
	return user, err
}

func (s *BoltStore) DeleteUser(ctx context.Context, id string) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		user, err := getUser(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketEmails).Delete([]byte(user.Email)); err != nil {
			return err
		}
		if err := tx.Bucket(bucketUsers).Delete([]byte(id)); err != nil {
			return err
		}

		courses := tx.Bucket(bucketCourses)
		prefix := coursePrefix(id)
		var keys [][]byte
		c := courses.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, bytes.Clone(k))
		}
		for _, k := range keys {
			if err := courses.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) CreateCourse(ctx context.Context, course types.Course) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		return putCourse(tx, course)
	})
}

// CreateAccount writes the user and all courses in a single transaction.
func (s *BoltStore) CreateAccount(ctx context.Context, user types.User, courses []types.Course) error {
	return s.update(ctx, func(tx *bolt.Tx) error {
		if err := putUser(tx, user); err != nil {
			return err
		}
		for _, course := range courses {
			if err := putCourse(tx, course); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) ListCoursesByUser(ctx context.Context, userID string) ([]types.Course, error) {
	courses := make([]types.Course, 0, 4)
	err := s.view(ctx, func(tx *bolt.Tx) error {
		prefix := coursePrefix(userID)
		c := tx.Bucket(bucketCourses).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var course types.Course
			if err := json.Unmarshal(v, &course); err != nil {
				return err
			}
			courses = append(courses, course)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (s *BoltStore) ExportAll(ctx context.Context) (types.Snapshot, error) {
	snapshot := types.Snapshot{Users: make([]types.User, 0), Courses: make([]types.Course, 0)}
	err := s.view(ctx, func(tx *bolt.Tx) error {
		err := tx.Bucket(bucketUsers).ForEach(func(_, v []byte) error {
			var rec boltUser
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			snapshot.Users = append(snapshot.Users, rec.toUser())
			return nil
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketCourses).ForEach(func(_, v []byte) error {
			var course types.Course
			if err := json.Unmarshal(v, &course); err != nil {
				return err
			}
			snapshot.Courses = append(snapshot.Courses, course)
			return nil
		})
	})
	if err != nil {
		return types.Snapshot{}, err
	}
	return snapshot, nil
}

func (s *BoltStore) update(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return boltErr(s.db.Update(fn))
}

func (s *BoltStore) view(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return boltErr(s.db.View(fn))
}

// boltErr passes taxonomy errors through and wraps everything else.
func boltErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrForeignKeyViolation):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
}

func putUser(tx *bolt.Tx, user types.User) error {
	users := tx.Bucket(bucketUsers)
	emails := tx.Bucket(bucketEmails)
	if users.Get([]byte(user.ID)) != nil {
		return fmt.Errorf("%w: user id %q", ErrDuplicateKey, user.ID)
	}
	if emails.Get([]byte(user.Email)) != nil {
		return fmt.Errorf("%w: email %q", ErrDuplicateKey, user.Email)
	}

	data, err := json.Marshal(boltUser{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		CreatedAt:    createdAtOrNow(user.CreatedAt),
	})
	if err != nil {
		return err
	}
	if err := users.Put([]byte(user.ID), data); err != nil {
		return err
	}
	return emails.Put([]byte(user.Email), []byte(user.ID))
}

func getUser(tx *bolt.Tx, id string) (types.User, error) {
	data := tx.Bucket(bucketUsers).Get([]byte(id))
	if data == nil {
		return types.User{}, ErrNotFound
	}
	var rec boltUser
	if err := json.Unmarshal(data, &rec); err != nil {
		return types.User{}, err
	}
	return rec.toUser(), nil
}

func putCourse(tx *bolt.Tx, course types.Course) error {
	if tx.Bucket(bucketUsers).Get([]byte(course.UserID)) == nil {
		return fmt.Errorf("%w: user %q does not exist", ErrForeignKeyViolation, course.UserID)
	}
	courses := tx.Bucket(bucketCourses)
	key := courseKey(course.UserID, course.ID)
	if courses.Get(key) != nil {
		return fmt.Errorf("%w: course %q for user %q", ErrDuplicateKey, course.ID, course.UserID)
	}

	course.CreatedAt = createdAtOrNow(course.CreatedAt)
	data, err := json.Marshal(course)
	if err != nil {
		return err
	}
	return courses.Put(key, data)
}

func (r boltUser) toUser() types.User {
	return types.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		CreatedAt:    timeutil.Normalize(r.CreatedAt),
	}
}

func coursePrefix(userID string) []byte {
	return append([]byte(userID), courseKeySep)
}

func courseKey(userID, courseID string) []byte {
	return append(coursePrefix(userID), courseID...)
}
