package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/frontdesk/internal/config"
	"github.com/clinicdesk/frontdesk/internal/domain/analytics"
	"github.com/clinicdesk/frontdesk/internal/domain/identity"
	"github.com/clinicdesk/frontdesk/internal/domain/scheduling"
	"github.com/clinicdesk/frontdesk/internal/domain/visit"
	"github.com/clinicdesk/frontdesk/internal/platform/auth"
	"github.com/clinicdesk/frontdesk/internal/platform/cache"
	"github.com/clinicdesk/frontdesk/internal/platform/db"
	"github.com/clinicdesk/frontdesk/internal/platform/middleware"
	"github.com/clinicdesk/frontdesk/internal/platform/reporting"
	"github.com/clinicdesk/frontdesk/internal/platform/usage"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "frontdesk-server",
		Short: "Clinic front desk API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the front desk API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// app holds the wired services behind the HTTP routes.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	store     *recordStore
	cache     cache.Cache
	identity  *identity.Service
	schedule  *scheduling.Service
	visits    *visit.Service
	analytics *analytics.Service
	usage     *usage.Tracker
}

func newApp(cfg *config.Config, store *recordStore, c cache.Cache, logger zerolog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = cache.Noop{}
	}

	identitySvc := identity.NewService(store.Patients, store.Doctors)
	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		cache:    c,
		identity: identitySvc,
		schedule: scheduling.NewService(store.Appointments, identitySvc, store.tx, logger),
		visits:   visit.NewService(store.Visits, identitySvc, store.tx, logger),
		analytics: analytics.NewService(&analytics.RepoSource{
			PatientRepo:     store.Patients,
			DoctorRepo:      store.Doctors,
			AppointmentRepo: store.Appointments,
			VisitRepo:       store.Visits,
		}, analytics.Options{
			Location:     loc,
			InactiveDays: cfg.InactivePatientDays,
			Cache:        c,
			CacheTTL:     cfg.ReportCacheTTL,
		}, logger),
		usage: usage.NewTracker(),
	}, nil
}

// routes builds the echo instance: global middleware, /health, and the
// /api/v1 tree with its public login route and authenticated resources.
func (a *app) routes() *echo.Echo {
	cfg := a.cfg

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit("1M"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
			"backend": a.store.backend,
		})
	})
	e.GET("/health/store", db.HealthHandler(a.store.backend, a.store.pinger, a.store.details))

	// One limiter for the login route and the authenticated tree: anonymous
	// callers are keyed by IP, signed-in users by their ID.
	limiter := middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	})

	apiV1 := e.Group("/api/v1", middleware.RequestTimeout(cfg.RequestTimeout))

	jwtCfg := auth.JWTConfig{SigningKey: []byte(cfg.AuthSecret)}
	authMW := auth.JWTMiddleware(jwtCfg)
	if cfg.IsDev() {
		authMW = auth.DevAuthMiddleware(jwtCfg)
	}
	public := apiV1.Group("", limiter)
	protected := apiV1.Group("", authMW, limiter, usage.Middleware(a.usage))

	tokens := auth.NewTokenIssuer([]byte(cfg.AuthSecret), auth.DefaultIssuer, cfg.AuthTokenTTL)
	authn := auth.Chain{
		auth.AdminAuthenticator{Email: cfg.AdminEmail, PasswordHash: cfg.AdminPasswordHash},
		a.identity,
	}
	auth.NewHandler(authn, tokens, a.logger).RegisterRoutes(public, protected)

	identity.NewHandler(a.identity).RegisterRoutes(protected)
	scheduling.NewHandler(a.schedule).RegisterRoutes(protected)
	visit.NewHandler(a.visits).RegisterRoutes(protected)
	analytics.NewHandler(a.analytics).RegisterRoutes(protected)
	reporting.NewHandler(a.analytics).RegisterRoutes(protected)
	usage.NewHandler(a.usage).RegisterRoutes(protected)

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := newLogger(os.Getenv("ENV"))
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg.Env)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}
	time.Local = loc

	ctx := context.Background()
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open record store")
	}
	defer store.close()

	var reportCache cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		r, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, report caching disabled")
		} else {
			defer r.Close()
			reportCache = r
			logger.Info().Dur("ttl", cfg.ReportCacheTTL).Msg("report cache enabled")
		}
	}

	a, err := newApp(cfg, store, reportCache, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to wire services")
	}
	e := a.routes()

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("backend", store.backend).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
