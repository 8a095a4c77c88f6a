package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ShubhamKarampure/HealthyTray/internal/config"
	"github.com/ShubhamKarampure/HealthyTray/internal/domain/meal"
	"github.com/ShubhamKarampure/HealthyTray/internal/domain/patient"
	"github.com/ShubhamKarampure/HealthyTray/internal/domain/staff"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/db"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/middleware"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/streams"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/telemetry"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "healthytray",
		Short:         "Hospital meal management API server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(env, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(parseLevel(level))
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// services bundles the wired domain layer so serve, seed and user share one
// construction path.
type services struct {
	staff   *staff.Service
	patient *patient.Service
	meal    *meal.Service
}

func newServices(pool *pgxpool.Pool, cfg *config.Config) (*services, *auth.TokenIssuer) {
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	staffSvc := staff.NewService(staff.NewUserRepoPG(pool), issuer)
	patientSvc := patient.NewService(patient.NewPatientRepoPG(pool))
	mealSvc := meal.NewService(
		meal.NewSlotRepoPG(pool),
		meal.NewPlanRepoPG(pool),
		db.NewTransactor(pool),
		patientSvc,
		staffSvc,
	)
	patientSvc.SetPlanReader(mealSvc)

	return &services{staff: staffSvc, patient: patientSvc, meal: mealSvc}, issuer
}

func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	svcs, issuer := newServices(pool, cfg)

	metrics := telemetry.NewMetrics()
	events := &telemetry.CountingPublisher{Metrics: metrics}
	if cfg.RedisURL != "" {
		publisher, err := streams.NewPublisher(ctx, cfg.RedisURL, cfg.MealEventsStream, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer publisher.Close()
		events.Next = publisher
		logger.Info().Str("stream", cfg.MealEventsStream).Msg("publishing meal events")
	}
	svcs.meal.SetEventPublisher(events)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger, !cfg.IsProduction())

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit(cfg.BodyLimit))

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}
	e.Use(middleware.RateLimit(rateLimitCfg))

	e.Use(auth.JWTMiddleware(issuer, auth.AuthSkipper))
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler(func() *db.PoolStats { return db.GetPoolStats(pool) }))

	api := e.Group("")
	staff.NewHandler(svcs.staff).RegisterRoutes(api)
	patient.NewHandler(svcs.patient).RegisterRoutes(api)
	meal.NewHandler(svcs.meal).RegisterRoutes(api)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
