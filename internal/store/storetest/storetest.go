// Package storetest holds the behavioural suite every store.Store backend
// must pass.
package storetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/academic-portal/apiserver/internal/store"
	"github.com/academic-portal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty, ready store. Cleanup is registered on t.
type Factory func(t *testing.T) store.Store

var created = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func user(id, email string) types.User {
	return types.User{
		ID:           id,
		Email:        email,
		Name:         "Ann",
		PasswordHash: "$2a$10$hash-for-" + id,
		CreatedAt:    created,
	}
}

func course(id, userID string) types.Course {
	return types.Course{
		ID:          id,
		Title:       "Course " + id,
		Description: "Description of " + id,
		UserID:      userID,
		CreatedAt:   created,
	}
}

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGetUser", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.CreateUser(ctx, user("u1", "a@x.com")))

		got, err := s.GetUserByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.ID)
		assert.Equal(t, "Ann", got.Name)
		assert.Equal(t, "$2a$10$hash-for-u1", got.PasswordHash)
		assert.True(t, created.Equal(got.CreatedAt), "created at %v", got.CreatedAt)

		byID, err := s.GetUserByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, got, byID)
	})

	t.Run("MissingUserIsNotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetUserByEmail(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.GetUserByID(ctx, "ghost")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.DeleteUser(ctx, "ghost"), store.ErrNotFound)
	})

	t.Run("DuplicateEmailLeavesOriginal", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.CreateUser(ctx, user("u1", "a@x.com")))
		impostor := user("u2", "a@x.com")
		impostor.Name = "Mallory"
		err := s.CreateUser(ctx, impostor)
		require.ErrorIs(t, err, store.ErrDuplicateKey)

		got, err := s.GetUserByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.ID)
		assert.Equal(t, "Ann", got.Name)

		_, err = s.GetUserByID(ctx, "u2")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("DuplicateIDRejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.CreateUser(ctx, user("u1", "a@x.com")))
		assert.ErrorIs(t, s.CreateUser(ctx, user("u1", "b@x.com")), store.ErrDuplicateKey)
	})

	t.Run("CourseForUnknownUser", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.CreateCourse(ctx, course("EEE.7-3.1", "ghost"))
		require.ErrorIs(t, err, store.ErrForeignKeyViolation)

		courses, err := s.ListCoursesByUser(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, courses)

		snap, err := s.ExportAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap.Courses)
	})

	t.Run("CourseCodesScopedPerUser", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.CreateUser(ctx, user("u1", "a@x.com")))
		require.NoError(t, s.CreateUser(ctx, user("u2", "b@x.com")))
		require.NoError(t, s.CreateCourse(ctx, course("EEE.7-3.1", "u1")))
		require.NoError(t, s.CreateCourse(ctx, course("EEE.7-3.1", "u2")))
		assert.ErrorIs(t, s.CreateCourse(ctx, course("EEE.7-3.1", "u1")), store.ErrDuplicateKey)

		courses, err := s.ListCoursesByUser(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, "u1", courses[0].UserID)
		assert.Equal(t, "Course EEE.7-3.1", courses[0].Title)
	})

	t.Run("ListCoursesEmptyNotNil", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.CreateUser(ctx, user("u1", "a@x.com")))
		courses, err := s.ListCoursesByUser(ctx, "u1")
		require.NoError(t, err)
		assert.NotNil(t, courses)
		assert.Empty(t, courses)
	})

	t.Run("DeleteUserCascades", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.CreateUser(ctx, user("u1", "a@x.com")))
		require.NoError(t, s.CreateUser(ctx, user("u10", "c@x.com")))
		require.NoError(t, s.CreateCourse(ctx, course("A", "u1")))
		require.NoError(t, s.CreateCourse(ctx, course("B", "u1")))
		require.NoError(t, s.CreateCourse(ctx, course("A", "u10")))

		require.NoError(t, s.DeleteUser(ctx, "u1"))

		courses, err := s.ListCoursesByUser(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, courses)

		others, err := s.ListCoursesByUser(ctx, "u10")
		require.NoError(t, err)
		assert.Len(t, others, 1)

		// The email is free again.
		require.NoError(t, s.CreateUser(ctx, user("u3", "a@x.com")))
	})

	t.Run("CreateAccountIsAtomic", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		creator, ok := s.(store.AccountCreator)
		if !ok {
			t.Skip("backend does not support atomic account creation")
		}

		u := user("u1", "a@x.com")
		err := creator.CreateAccount(ctx, u, []types.Course{course("A", "u1"), course("A", "u1")})
		require.ErrorIs(t, err, store.ErrDuplicateKey)

		_, err = s.GetUserByID(ctx, "u1")
		assert.ErrorIs(t, err, store.ErrNotFound, "user insert must roll back")

		require.NoError(t, creator.CreateAccount(ctx, u, []types.Course{course("A", "u1"), course("B", "u1")}))
		courses, err := s.ListCoursesByUser(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, courses, 2)
	})

	t.Run("ExportIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		empty, err := s.ExportAll(ctx)
		require.NoError(t, err)
		raw, err := json.Marshal(empty)
		require.NoError(t, err)
		assert.JSONEq(t, `{"users":[],"courses":[]}`, string(raw))

		require.NoError(t, s.CreateUser(ctx, user("u2", "b@x.com")))
		require.NoError(t, s.CreateUser(ctx, user("u1", "a@x.com")))
		require.NoError(t, s.CreateCourse(ctx, course("B", "u1")))
		require.NoError(t, s.CreateCourse(ctx, course("A", "u2")))
		require.NoError(t, s.CreateCourse(ctx, course("A", "u1")))

		first, err := s.ExportAll(ctx)
		require.NoError(t, err)
		second, err := s.ExportAll(ctx)
		require.NoError(t, err)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))

		require.Len(t, first.Users, 2)
		assert.Equal(t, "u1", first.Users[0].ID)
		require.Len(t, first.Courses, 3)
		assert.Equal(t, []string{"u1/A", "u1/B", "u2/A"}, []string{
			first.Courses[0].UserID + "/" + first.Courses[0].ID,
			first.Courses[1].UserID + "/" + first.Courses[1].ID,
			first.Courses[2].UserID + "/" + first.Courses[2].ID,
		})
		assert.NotContains(t, string(a), "hash-for", "password hashes never leave the store as JSON")
	})

	t.Run("CanceledContext", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.CreateUser(ctx, user("u1", "a@x.com"))
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrTransport)
	})
}
