package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/studiogate/internal/config"
	"github.com/simp-lee/studiogate/internal/domain"
	"github.com/simp-lee/studiogate/internal/middleware"
	"github.com/simp-lee/studiogate/internal/module/auth"
	"github.com/simp-lee/studiogate/internal/module/booking"
	"github.com/simp-lee/studiogate/internal/module/class"
	"github.com/simp-lee/studiogate/internal/module/dashboard"
	"github.com/simp-lee/studiogate/internal/module/subscription"
	"github.com/simp-lee/studiogate/internal/module/user"
	"github.com/simp-lee/studiogate/internal/pkg"
)

const shutdownTimeout = 5 * time.Second

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine       *gin.Engine
	db           *gorm.DB
	logger       *logger.Logger
	cfg          *config.Config
	identity     config.Identity
	tokenService *pkg.TokenService
	accessPolicy *pkg.AccessPolicy
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the database, every business module, the global
// middleware chain and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}

	success := false

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	identity := config.ResolveIdentity(cfg.Server.InstanceID)

	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		if err := config.CloseDatabase(db); err != nil {
			slog.Error("database close error", slog.Any("error", err))
		}
	}()

	if cfg.Database.ShouldAutoMigrate() {
		if err := db.AutoMigrate(domain.Models()...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("auto migration completed")
	}

	secret, err := resolveTokenSecret(cfg, log.Logger)
	if err != nil {
		return nil, err
	}

	var tokens *pkg.TokenService
	if secret != "" {
		tokens, err = pkg.NewTokenService(secret, cfg.Auth.TokenTTL())
		if err != nil {
			return nil, err
		}
	}
	policy, err := pkg.NewAccessPolicy()
	if err != nil {
		if tokens != nil {
			tokens.Close()
		}
		return nil, err
	}
	defer func() {
		if !success {
			closeAuth(tokens, policy, log.Logger)
		}
	}()

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	corsMW, err := middleware.CORS(resolveCORSConfig(&cfg.Server))
	if err != nil {
		return nil, err
	}

	var metrics *middleware.Metrics
	chain := []gin.HandlerFunc{
		middleware.LoggerWithConfig(log.Logger, middleware.LoggerConfig{
			Hostname: identity.Hostname,
			Instance: identity.InstanceID,
		}),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{TrustUpstream: false}),
	}
	if cfg.Server.Metrics {
		metrics = middleware.NewMetrics()
		chain = append(chain, metrics.Middleware())
	}
	chain = append(chain,
		middleware.ErrorHandler(log.Logger, middleware.ErrorHandlerConfig{
			Verbose:  cfg.Server.Development(),
			Hostname: identity.Hostname,
			Instance: identity.InstanceID,
		}),
		corsMW,
	)
	engine.Use(chain...)

	// Manual dependency injection: repository → service → handler.
	userRepo := user.NewUserRepository(db)
	modules := []Module{
		user.NewModule(user.NewUserHandler(user.NewUserService(userRepo), policy)),
		subscription.NewModule(subscription.NewSubscriptionHandler(
			subscription.NewSubscriptionService(subscription.NewSubscriptionRepository(db), userRepo))),
		class.NewModule(class.NewClassHandler(class.NewClassService(class.NewClassRepository(db)))),
		booking.NewModule(booking.NewBookingHandler(booking.NewBookingService(booking.NewBookingRepository(db)), policy)),
		dashboard.NewModule(dashboard.NewDashboardHandler(dashboard.NewDashboardService(dashboard.NewDashboardRepository(db)))),
	}

	deps := &RouteDeps{
		DB:       db,
		Identity: identity,
		Metrics:  metrics,
	}
	if tokens != nil {
		requireAuth := middleware.JWTAuth(tokens)
		modules = append(modules, auth.NewModule(auth.NewHandler(auth.NewService(tokens, userRepo)), requireAuth))
		if cfg.Auth.Enabled {
			deps.Protect = requireAuth
		}
	}
	deps.Modules = modules

	if err := RegisterRoutes(engine, deps); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("debug mode is listening on all interfaces")
	}

	success = true
	return &App{
		engine:       engine,
		db:           db,
		logger:       log,
		cfg:          cfg,
		identity:     identity,
		tokenService: tokens,
		accessPolicy: policy,
	}, nil
}

// closeAuth stops the token service and releases the access policy. Either
// may be nil.
func closeAuth(tokens *pkg.TokenService, policy *pkg.AccessPolicy, log *slog.Logger) {
	if tokens != nil {
		tokens.Close()
	}
	if policy != nil {
		if err := policy.Close(); err != nil {
			log.Error("access policy close error", slog.Any("error", err))
		}
	}
}

// resolveTokenSecret returns the signing secret, or "" when the auth routes
// must not be mounted. Validate already rejects an enabled config without a
// secret.
func resolveTokenSecret(cfg *config.Config, log *slog.Logger) (string, error) {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret, nil
	}
	if cfg.Auth.Enabled {
		return "", errors.New("auth.jwt_secret is required when auth is enabled")
	}
	if cfg.Server.Mode == gin.ReleaseMode {
		log.Warn("no auth.jwt_secret configured, auth routes are disabled")
		return "", nil
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	log.Warn("no auth.jwt_secret configured, using random secret in non-release mode (tokens are invalidated on restart)")
	return hex.EncodeToString(b), nil
}

func resolveCORSConfig(s *config.ServerConfig) middleware.CORSConfig {
	cc := middleware.DefaultCORSConfig()
	cc.AllowOrigin = s.FrontendURL
	if len(s.CORS.AllowMethods) > 0 {
		cc.AllowMethods = s.CORS.AllowMethods
	}
	if len(s.CORS.AllowHeaders) > 0 {
		cc.AllowHeaders = s.CORS.AllowHeaders
	}
	if d, err := time.ParseDuration(s.CORS.MaxAge); err == nil {
		cc.MaxAge = d
	}
	return cc
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// Run starts the HTTP server and blocks until a shutdown signal is received
// or the listener fails. It shuts down gracefully within five seconds, then
// closes the database and the logger.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := a.cfg.Server.Addr()
	srv := newHTTPServer(addr, a.engine)

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started",
			slog.String("addr", addr),
			slog.String("hostname", a.identity.Hostname),
			slog.String("instance", a.identity.InstanceID),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	closeAuth(a.tokenService, a.accessPolicy, log)

	if a.db != nil {
		if err := config.CloseDatabase(a.db); err != nil {
			log.Error("database close error", slog.Any("error", err))
		} else {
			log.Info("database connection closed")
		}
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}
