package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/academic-portal/apiserver/internal/store"
	"github.com/academic-portal/apiserver/internal/timeutil"
	"github.com/academic-portal/apiserver/types"
)

type CourseService struct {
	store store.Store
	now   func() time.Time
}

func NewCourseService(s store.Store) *CourseService {
	return &CourseService{store: s, now: time.Now}
}

func (s *CourseService) Create(ctx context.Context, course types.Course) (types.Course, error) {
	course.ID = strings.TrimSpace(course.ID)
	course.UserID = strings.TrimSpace(course.UserID)
	course.Title = strings.TrimSpace(course.Title)
	if course.ID == "" || course.UserID == "" || course.Title == "" {
		return types.Course{}, fmt.Errorf("%w: id, title and userId are required", ErrInvalidInput)
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = s.now()
	}
	course.CreatedAt = timeutil.Normalize(course.CreatedAt)

	if err := s.store.CreateCourse(ctx, course); err != nil {
		return types.Course{}, err
	}
	return course, nil
}

func (s *CourseService) ListByUser(ctx context.Context, userID string) ([]types.Course, error) {
	return s.store.ListCoursesByUser(ctx, userID)
}
