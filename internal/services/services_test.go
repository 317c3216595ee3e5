package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/academic-portal/apiserver/internal/store"
	"github.com/academic-portal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	hashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.OpenBolt(filepath.Join(t.TempDir(), "portal.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// plainStore hides CreateAccount so the sequential path is used.
type plainStore struct {
	store.Store
	failCourseAt int
	courseCalls  int
}

func (p *plainStore) CreateCourse(ctx context.Context, course types.Course) error {
	p.courseCalls++
	if p.failCourseAt > 0 && p.courseCalls == p.failCourseAt {
		return store.ErrTransport
	}
	return p.Store.CreateCourse(ctx, course)
}

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	err      error
}

func (r *recordingPublisher) Publish(_ context.Context, channel string, data []byte, _ map[string]string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
	r.payloads = append(r.payloads, data)
	return "msg-1", r.err
}

type staticGreeter string

func (g staticGreeter) Greet(context.Context, string) string { return string(g) }

func TestRegisterCreatesDefaultCourses(t *testing.T) {
	s := newStore(t)
	svc := NewAccountService(s)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ann", "  Ann@X.com ", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ann@x.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	courses, err := s.ListCoursesByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, courses, 4)
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
		assert.Equal(t, user.ID, c.UserID)
	}
	assert.ElementsMatch(t, []string{"ΕΕΕ.7-3.7", "ΕΕΕ.7-3.2", "EEE.7-3.1", "EEE.7-3.3"}, ids)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newStore(t)
	svc := NewAccountService(s)
	ctx := context.Background()

	first, err := svc.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other", "ANN@x.com", "another1")
	require.ErrorIs(t, err, ErrEmailAlreadyExists)

	snap, err := s.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, first.ID, snap.Users[0].ID)
	assert.Len(t, snap.Courses, 4)
}

func TestRegisterTwoUsersShareCourseCodes(t *testing.T) {
	s := newStore(t)
	svc := NewAccountService(s)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Bob", "bob@x.com", "secret2")
	require.NoError(t, err)

	snap, err := s.ExportAll(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Users, 2)
	assert.Len(t, snap.Courses, 8)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAccountService(newStore(t))
	ctx := context.Background()

	tests := []struct {
		name, user, email, password string
	}{
		{"missing name", " ", "a@x.com", "secret1"},
		{"missing email", "Ann", "", "secret1"},
		{"short password", "Ann", "a@x.com", "12345"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.user, tc.email, tc.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterSequentialFallbackRollsBack(t *testing.T) {
	backing := newStore(t)
	s := &plainStore{Store: backing, failCourseAt: 3}
	svc := NewAccountService(s)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.ErrorIs(t, err, store.ErrTransport)

	_, err = backing.GetUserByEmail(ctx, "ann@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
	snap, err := backing.ExportAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Users)
	assert.Empty(t, snap.Courses)
}

func TestRegisterSequentialFallbackSucceeds(t *testing.T) {
	s := &plainStore{Store: newStore(t)}
	svc := NewAccountService(s)

	user, err := svc.Register(context.Background(), "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, 4, s.courseCalls)

	courses, err := s.ListCoursesByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, courses, 4)
}

func TestRegisterPublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewAccountService(newStore(t), WithPublisher(pub, "user.registered"))

	user, err := svc.Register(context.Background(), "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "user.registered", pub.channels[0])
	var event types.UserRegistered
	require.NoError(t, json.Unmarshal(pub.payloads[0], &event))
	assert.Equal(t, user.ID, event.UserID)
	assert.Equal(t, "ann@x.com", event.Email)
	assert.Len(t, event.CourseIDs, 4)
}

func TestRegisterIgnoresPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewAccountService(newStore(t), WithPublisher(pub, "user.registered"))

	_, err := svc.Register(context.Background(), "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	assert.Len(t, pub.payloads, 1)
}

func TestAuthenticate(t *testing.T) {
	svc := NewAccountService(newStore(t))
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, " ANN@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Authenticate(ctx, "ann@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDashboard(t *testing.T) {
	svc := NewAccountService(newStore(t), WithGreeter(staticGreeter("Hello Ann")))
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	dash, err := svc.Dashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ann", dash.Greeting)
	assert.Equal(t, user.ID, dash.User.ID)
	assert.Len(t, dash.Courses, 4)

	_, err = svc.Dashboard(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserServiceCreate(t *testing.T) {
	s := newStore(t)
	users := NewUserService(s)
	ctx := context.Background()

	created, err := users.Create(ctx, NewUser{Email: "Ann@X.com", Name: "Ann", Password: "pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, checkPassword(created.PasswordHash, "pw"))

	got, err := users.GetByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = users.Create(ctx, NewUser{Email: "ann@x.com", Name: "Dup", Password: "pw"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	_, err = users.Create(ctx, NewUser{Email: "b@x.com", Name: "", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, users.Delete(ctx, created.ID))
	_, err = users.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCourseServiceCreate(t *testing.T) {
	s := newStore(t)
	users := NewUserService(s)
	courses := NewCourseService(s)
	ctx := context.Background()

	user, err := users.Create(ctx, NewUser{ID: "u1", Email: "a@x.com", Name: "Ann", Password: "pw"})
	require.NoError(t, err)

	created, err := courses.Create(ctx, types.Course{ID: "EEE.7-3.1", Title: "Microprocessors", UserID: user.ID})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = courses.Create(ctx, types.Course{ID: "X", Title: "Orphan", UserID: "ghost"})
	assert.ErrorIs(t, err, store.ErrForeignKeyViolation)

	_, err = courses.Create(ctx, types.Course{ID: "", Title: "No code", UserID: user.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := courses.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Microprocessors", list[0].Title)
}
