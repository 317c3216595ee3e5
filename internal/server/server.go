package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/academic-portal/apiserver/config"
	"github.com/academic-portal/apiserver/internal/greeting"
	"github.com/academic-portal/apiserver/internal/handlers"
	"github.com/academic-portal/apiserver/internal/mq"
	"github.com/academic-portal/apiserver/internal/services"
	"github.com/academic-portal/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	Store     store.Store
	Publisher services.EventPublisher
	Greeter   services.Greeter
	Logger    zerolog.Logger
}

// Server wraps the HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	store      store.Store
	queue      *mq.MQ
	logger     zerolog.Logger
}

// New opens the configured store and broker and builds the HTTP server.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Server, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("store ready")

	queue, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	deps := Deps{
		Store:   st,
		Greeter: greeting.NewFromConfig(ctx, cfg.Gemini, logger),
		Logger:  logger,
	}
	if queue != nil {
		deps.Publisher = queue
		logger.Info().Str("backend", cfg.MQ.Backend).Str("channel", cfg.MQ.Channel).Msg("publishing registration events")
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 5050
	}

	return &Server{
		httpServer: newHTTPServer(port, NewRouter(cfg, deps)),
		store:      st,
		queue:      queue,
		logger:     logger,
	}, nil
}

// requestTimeout bounds a handler. WriteTimeout sits above it so the
// middleware can still write its 504.
const requestTimeout = 30 * time.Second

func newHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(cfg config.Config, deps Deps) http.Handler {
	validate := handlers.NewValidator()

	opts := []services.AccountOption{services.WithLogger(deps.Logger)}
	if deps.Publisher != nil {
		opts = append(opts, services.WithPublisher(deps.Publisher, cfg.MQ.Channel))
	}
	if deps.Greeter != nil {
		opts = append(opts, services.WithGreeter(deps.Greeter))
	}

	userService := services.NewUserService(deps.Store)
	courseService := services.NewCourseService(deps.Store)
	accountService := services.NewAccountService(deps.Store, opts...)

	authHandler := handlers.NewAuthHandler(accountService, validate, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	dashboardHandler := handlers.NewDashboardHandler(accountService)
	requireAPIKey := handlers.RequireAPIKey(cfg.APIKey)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger(deps.Logger),
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireAPIKey)
			r.Route("/users", func(r chi.Router) {
				handlers.UserRouter(r, userService, validate)
			})
			r.Route("/courses", func(r chi.Router) {
				handlers.CourseRouter(r, courseService, validate)
			})
			r.Route("/export", func(r chi.Router) {
				handlers.ExportRouter(r, accountService)
			})
		})
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authHandler)
		})
		r.With(authHandler.RequireAuth).Get("/dashboard", dashboardHandler.Get)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", handlers.APIKeyHeader},
	})
	return c.Handler(router)
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the broker and store.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.queue != nil {
		if qerr := s.queue.Close(); qerr != nil {
			s.logger.Warn().Err(qerr).Msg("close broker")
		}
	}
	if serr := s.store.Close(); serr != nil && err == nil {
		err = serr
	}
	return err
}
