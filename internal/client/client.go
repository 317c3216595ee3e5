// Package client talks to a running portal server over HTTP. It mirrors the
// server's routes one call per round trip, without retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/academic-portal/apiserver/config"
	"github.com/academic-portal/apiserver/internal/timeutil"
	"github.com/academic-portal/apiserver/types"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrInvalidCredentials is returned by SignIn for a 401.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailAlreadyExists is returned by Register for a 409.
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type Option func(*Client)

// WithAPIKey sends key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig uses API_URL and API_TIMEOUT.
func NewFromConfig(cfg config.Config) *Client {
	timeout := cfg.Client.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return New(cfg.Client.BaseURL,
		WithAPIKey(cfg.APIKey),
		WithHTTPClient(&http.Client{Timeout: timeout}),
	)
}

// NewUser is the body of a raw user insert. CreatedAt may be any ISO-8601
// timestamp; it is sent in storage format.
type NewUser struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type NewCourse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// Session is returned by Register and SignIn.
type Session struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

func (c *Client) CreateUser(ctx context.Context, user NewUser) error {
	createdAt, err := storageTime(user.CreatedAt)
	if err != nil {
		return err
	}
	user.CreatedAt = createdAt
	return c.do(ctx, http.MethodPost, "/api/users", "", user, nil)
}

// GetUserByEmail returns nil, nil when no user has that email.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	var user *types.User
	if err := c.do(ctx, http.MethodGet, "/api/users/email/"+url.PathEscape(email), "", nil, &user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID returns nil, nil when the id is unknown.
func (c *Client) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	var user *types.User
	if err := c.do(ctx, http.MethodGet, "/api/users/id/"+url.PathEscape(id), "", nil, &user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) CreateCourse(ctx context.Context, course NewCourse) error {
	createdAt, err := storageTime(course.CreatedAt)
	if err != nil {
		return err
	}
	course.CreatedAt = createdAt
	return c.do(ctx, http.MethodPost, "/api/courses", "", course, nil)
}

func (c *Client) ListCoursesByUser(ctx context.Context, userID string) ([]types.Course, error) {
	courses := []types.Course{}
	if err := c.do(ctx, http.MethodGet, "/api/courses/user/"+url.PathEscape(userID), "", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) Export(ctx context.Context) (types.Snapshot, error) {
	var snapshot types.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/export", "", nil, &snapshot); err != nil {
		return types.Snapshot{}, err
	}
	return snapshot, nil
}

// Register creates an account with the default courses.
func (c *Client) Register(ctx context.Context, name, email, password string) (Session, error) {
	var session Session
	body := map[string]string{"name": name, "email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/api/auth/register", "", body, &session)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		return Session{}, ErrEmailAlreadyExists
	}
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	var session Session
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &session)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

// Dashboard fetches the signed-in view for the session token.
func (c *Client) Dashboard(ctx context.Context, token string) (types.Dashboard, error) {
	var dash types.Dashboard
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", token, nil, &dash); err != nil {
		return types.Dashboard{}, err
	}
	return dash, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

func storageTime(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	// Zoneless values are the caller's wall clock.
	formatted, err := timeutil.ToStorageIn(value, time.Local)
	if err != nil {
		return "", fmt.Errorf("createdAt: %w", err)
	}
	return formatted, nil
}
