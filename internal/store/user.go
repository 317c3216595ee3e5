package store

import (
	"context"

	"github.com/academic-portal/apiserver/internal/timeutil"
	"github.com/academic-portal/apiserver/types"
)

const userColumns = `id, email, name, password_hash, created_at`

func (s *SQLStore) CreateUser(ctx context.Context, user types.User) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.insertUser(ctx, s.db, user)
}

func (s *SQLStore) insertUser(ctx context.Context, q querier, user types.User) error {
	const query = `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := q.ExecContext(
		ctx,
		s.rebind(query),
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		timeutil.Format(createdAtOrNow(user.CreatedAt)),
	)
	return classify(err)
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (types.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(s.db.QueryRowContext(ctx, s.rebind(query), email))
}

func (s *SQLStore) GetUserByID(ctx context.Context, id string) (types.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(s.db.QueryRowContext(ctx, s.rebind(query), id))
}

// DeleteUser removes a user; the schema cascades the delete to courses.
func (s *SQLStore) DeleteUser(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return classify(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateAccount inserts the user and its courses in one transaction.
func (s *SQLStore) CreateAccount(ctx context.Context, user types.User, courses []types.Course) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.insertUser(ctx, tx, user); err != nil {
		return err
	}
	for _, course := range courses {
		if err := s.insertCourse(ctx, tx, course); err != nil {
			return err
		}
	}
	return classify(tx.Commit())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		dbTime{&user.CreatedAt},
	)
	if err != nil {
		return types.User{}, classify(err)
	}
	return user, nil
}
