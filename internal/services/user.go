package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/academic-portal/apiserver/internal/store"
	"github.com/academic-portal/apiserver/internal/timeutil"
	"github.com/academic-portal/apiserver/types"
	"github.com/google/uuid"
)

// NewUser is the input of the raw user-creation endpoint.
type NewUser struct {
	// ID is optional; a UUID is generated when empty.
	ID       string
	Email    string
	Name     string
	Password string
	// CreatedAt defaults to now.
	CreatedAt time.Time
}

// UserService encapsulates user use-cases.
type UserService struct {
	store store.Store
	now   func() time.Time
}

func NewUserService(s store.Store) *UserService {
	return &UserService{store: s, now: time.Now}
}

// Create hashes the password and stores the user. The returned user carries
// the generated id and normalised fields.
func (s *UserService) Create(ctx context.Context, in NewUser) (types.User, error) {
	user, err := s.build(in)
	if err != nil {
		return types.User{}, err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (s *UserService) build(in NewUser) (types.User, error) {
	email := NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || in.Password == "" {
		return types.User{}, fmt.Errorf("%w: email, name and password are required", ErrInvalidInput)
	}
	if len(in.Password) > maxPasswordBytes {
		return types.User{}, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	return types.User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
		CreatedAt:    timeutil.Normalize(createdAt),
	}, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.store.GetUserByEmail(ctx, NormalizeEmail(email))
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// Delete removes the user and, through the store's cascade, their courses.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteUser(ctx, id)
}
