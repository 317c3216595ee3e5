package store

import (
	"context"

	"github.com/academic-portal/apiserver/types"
)

// ExportAll reads every user and course inside one transaction so both
// lists come from the same state.
func (s *SQLStore) ExportAll(ctx context.Context) (types.Snapshot, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.beginSnapshot(ctx)
	if err != nil {
		return types.Snapshot{}, classify(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return types.Snapshot{}, classify(err)
	}
	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return types.Snapshot{}, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return types.Snapshot{}, classify(err)
	}
	rows.Close()

	courses, err := s.queryCourses(ctx, tx, `SELECT `+courseColumns+` FROM courses ORDER BY user_id, id`)
	if err != nil {
		return types.Snapshot{}, err
	}

	return types.Snapshot{Users: users, Courses: courses}, nil
}
