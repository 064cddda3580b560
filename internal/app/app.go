package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rustam/servhub/internal/auth"
	"github.com/rustam/servhub/internal/config"
	httpcontroller "github.com/rustam/servhub/internal/controller/http"
	"github.com/rustam/servhub/internal/database"
	catalogdao "github.com/rustam/servhub/internal/domain/catalog/dao"
	catalogservice "github.com/rustam/servhub/internal/domain/catalog/service"
	chatdao "github.com/rustam/servhub/internal/domain/chat/dao"
	chatpolicy "github.com/rustam/servhub/internal/domain/chat/policy"
	chatservice "github.com/rustam/servhub/internal/domain/chat/service"
	directdao "github.com/rustam/servhub/internal/domain/direct/dao"
	directservice "github.com/rustam/servhub/internal/domain/direct/service"
	identitydao "github.com/rustam/servhub/internal/domain/identity/dao"
	identityservice "github.com/rustam/servhub/internal/domain/identity/service"
	"github.com/rustam/servhub/internal/presence"
	"github.com/rustam/servhub/internal/realtime"
	"github.com/rustam/servhub/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	// Infrastructure
	pool    *pgxpool.Pool
	redis   *redis.Client
	s3      *storage.S3Storage
	hub     *realtime.Hub
	tracker *presence.Tracker
	tokens  *auth.TokenIssuer

	// Domain layers exposed to HTTP handlers
	identity *identityservice.Service
	chat     *chatpolicy.Policy
	direct   *directservice.Service
	catalog  *catalogservice.CatalogService

	profiles *identitydao.ProfilePostgres
	sweeper  *Sweeper
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	app.initDomains()
	app.registerRoutes()

	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Presence.SweepEnabled {
		app.sweeper = NewSweeper(app.profiles, app.tracker, app.identity, cfg.Presence.SweepInterval, logger)
	}

	return app, nil
}

// initInfrastructure connects to postgres, redis and the blob store
func (a *App) initInfrastructure(ctx context.Context) error {
	pool, err := database.NewPostgresPool(ctx, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	a.pool = pool

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	rdb, err := database.NewRedisClient(ctx, a.cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	a.redis = rdb

	s3, err := storage.NewS3Storage(a.cfg.S3)
	if err != nil {
		return fmt.Errorf("initializing s3 storage: %w", err)
	}
	a.s3 = s3

	a.hub = realtime.NewHub()
	a.tracker = presence.NewTracker(rdb, a.cfg.Presence.HeartbeatTTL)
	a.tokens = auth.NewTokenIssuer(a.cfg.Auth)

	return nil
}

// initDomains wires DAOs, services and policies
func (a *App) initDomains() {
	events := &hubEvents{hub: a.hub}

	accounts := identitydao.NewAccountPostgres(a.pool)
	a.profiles = identitydao.NewProfilePostgres(a.pool)
	a.identity = identityservice.New(accounts, a.profiles, a.tokens, events)

	conversations := chatdao.NewConversationPostgres(a.pool)
	messages := chatdao.NewMessagePostgres(a.pool)
	requests := chatdao.NewRequestPostgres(a.pool)
	a.chat = chatpolicy.New(chatservice.New(conversations, messages, requests, events))

	a.direct = directservice.New(directdao.NewMessagePostgres(a.pool), events)

	categories := catalogdao.NewCategoryPostgres(a.pool)
	services := catalogdao.NewServicePostgres(a.pool)
	a.catalog = catalogservice.NewCatalogService(categories, services, a.profiles)
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	authHandler := httpcontroller.NewAuthHandler(a.identity)
	profileHandler := httpcontroller.NewProfileHandler(a.identity)
	chatHandler := httpcontroller.NewChatHandler(a.chat)
	directHandler := httpcontroller.NewDirectHandler(a.direct)
	catalogHandler := httpcontroller.NewCatalogHandler(a.catalog)
	mediaHandler := httpcontroller.NewMediaHandler(a.s3, a.logger)
	wsHandler := httpcontroller.NewWSHandler(a.hub, a.tokens, a.identity, a.tracker, a.logger)

	a.router.Route("/api/v1", func(r chi.Router) {
		// Public routes
		authHandler.RegisterRoutes(r)
		catalogHandler.RegisterPublicRoutes(r)

		// The websocket endpoint authenticates via query token
		wsHandler.RegisterRoutes(r)

		// Session-protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(a.tokens))

			authHandler.RegisterProtectedRoutes(r)
			profileHandler.RegisterRoutes(r)
			chatHandler.RegisterRoutes(r)
			directHandler.RegisterRoutes(r)
			catalogHandler.RegisterProtectedRoutes(r)
			mediaHandler.RegisterRoutes(r)
			wsHandler.RegisterProtectedRoutes(r)
		})
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler verifies the backing stores are reachable
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.pool.Ping(ctx); err != nil {
		http.Error(w, `{"status":"postgres unreachable"}`, http.StatusServiceUnavailable)
		return
	}
	if err := a.redis.Ping(ctx).Err(); err != nil {
		http.Error(w, `{"status":"redis unreachable"}`, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	if a.sweeper != nil {
		go a.sweeper.Start(ctx)
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	if a.sweeper != nil {
		a.sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("closing redis client", "error", err)
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
