package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/academic-portal/apiserver/internal/store"
	"github.com/academic-portal/apiserver/internal/timeutil"
	"github.com/academic-portal/apiserver/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventPublisher delivers registration events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Greeter produces the dashboard welcome line.
type Greeter interface {
	Greet(ctx context.Context, name string) string
}

type AccountOption func(*AccountService)

func WithPublisher(publisher EventPublisher, channel string) AccountOption {
	return func(s *AccountService) {
		s.publisher = publisher
		s.channel = channel
	}
}

func WithGreeter(greeter Greeter) AccountOption {
	return func(s *AccountService) { s.greeter = greeter }
}

func WithLogger(logger zerolog.Logger) AccountOption {
	return func(s *AccountService) { s.logger = logger }
}

// AccountService implements the portal workflows on top of the store:
// registration, sign-in, export and the dashboard view.
type AccountService struct {
	store     store.Store
	publisher EventPublisher
	channel   string
	greeter   Greeter
	logger    zerolog.Logger
	now       func() time.Time
}

func NewAccountService(s store.Store, opts ...AccountOption) *AccountService {
	svc := &AccountService{
		store:  s,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register creates the user with the default course set. Either both the
// user and all four courses exist afterwards or neither does.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (types.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" {
		return types.User{}, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	if err := validatePassword(password); err != nil {
		return types.User{}, err
	}

	_, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return types.User{}, ErrEmailAlreadyExists
	case !errors.Is(err, store.ErrNotFound):
		return types.User{}, err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := timeutil.Normalize(s.now())
	user := types.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
		CreatedAt:    now,
	}
	courses := DefaultCourses(user.ID, now)

	if err := s.persist(ctx, user, courses); err != nil {
		// Another request may have taken the email between the lookup and the insert.
		if errors.Is(err, store.ErrDuplicateKey) {
			return types.User{}, ErrEmailAlreadyExists
		}
		return types.User{}, err
	}

	s.publishRegistered(ctx, user, courses)
	return user, nil
}

func (s *AccountService) persist(ctx context.Context, user types.User, courses []types.Course) error {
	if creator, ok := s.store.(store.AccountCreator); ok {
		return creator.CreateAccount(ctx, user, courses)
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return err
	}
	for _, course := range courses {
		if err := s.store.CreateCourse(ctx, course); err != nil {
			if delErr := s.store.DeleteUser(context.WithoutCancel(ctx), user.ID); delErr != nil {
				s.logger.Error().Err(delErr).Str("user_id", user.ID).Msg("rollback of partial registration failed")
			}
			return err
		}
	}
	return nil
}

func (s *AccountService) publishRegistered(ctx context.Context, user types.User, courses []types.Course) {
	if s.publisher == nil {
		return
	}
	ids := make([]string, 0, len(courses))
	for _, course := range courses {
		ids = append(ids, course.ID)
	}
	payload, err := json.Marshal(types.UserRegistered{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		CourseIDs:    ids,
		RegisteredAt: user.CreatedAt,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("encode registration event")
		return
	}
	attrs := map[string]string{"type": "user.registered", "user_id": user.ID}
	if _, err := s.publisher.Publish(ctx, s.channel, payload, attrs); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("publish registration event")
	}
}

// Authenticate returns the user when the password matches. Unknown emails
// and wrong passwords both yield ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			burnCompare(password)
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}
	if !checkPassword(user.PasswordHash, password) {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountService) ExportSnapshot(ctx context.Context) (types.Snapshot, error) {
	return s.store.ExportAll(ctx)
}

func (s *AccountService) Profile(ctx context.Context, userID string) (types.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// Dashboard loads the profile, the course list and a greeting for userID.
func (s *AccountService) Dashboard(ctx context.Context, userID string) (types.Dashboard, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return types.Dashboard{}, err
	}
	courses, err := s.store.ListCoursesByUser(ctx, userID)
	if err != nil {
		return types.Dashboard{}, err
	}

	greeting := ""
	if s.greeter != nil {
		greeting = s.greeter.Greet(ctx, user.Name)
	}
	return types.Dashboard{User: user, Greeting: greeting, Courses: courses}, nil
}
