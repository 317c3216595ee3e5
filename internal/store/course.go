package store

import (
	"context"

	"github.com/academic-portal/apiserver/internal/timeutil"
	"github.com/academic-portal/apiserver/types"
)

const courseColumns = `id, title, description, user_id, created_at`

func (s *SQLStore) CreateCourse(ctx context.Context, course types.Course) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.insertCourse(ctx, s.db, course)
}

func (s *SQLStore) insertCourse(ctx context.Context, q querier, course types.Course) error {
	const query = `
		INSERT INTO courses (id, title, description, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := q.ExecContext(
		ctx,
		s.rebind(query),
		course.ID,
		course.Title,
		course.Description,
		course.UserID,
		timeutil.Format(createdAtOrNow(course.CreatedAt)),
	)
	return classify(err)
}

func (s *SQLStore) ListCoursesByUser(ctx context.Context, userID string) ([]types.Course, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + courseColumns + ` FROM courses WHERE user_id = ? ORDER BY id`
	return s.queryCourses(ctx, s.db, s.rebind(query), userID)
}

func (s *SQLStore) queryCourses(ctx context.Context, q querier, query string, args ...any) ([]types.Course, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	courses := make([]types.Course, 0, 4)
	for rows.Next() {
		var course types.Course
		if err := rows.Scan(
			&course.ID,
			&course.Title,
			&course.Description,
			&course.UserID,
			dbTime{&course.CreatedAt},
		); err != nil {
			return nil, classify(err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return courses, nil
}
