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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/tcg/scenario-sheets/internal/config"
	"github.com/tcg/scenario-sheets/internal/domain/scenario"
	"github.com/tcg/scenario-sheets/internal/platform/auth"
	"github.com/tcg/scenario-sheets/internal/platform/db"
	"github.com/tcg/scenario-sheets/internal/platform/middleware"
	"github.com/tcg/scenario-sheets/internal/platform/telemetry"
)

// store is an open scenario repository plus what /health needs to check it.
type store struct {
	repo   scenario.Repository
	pinger db.Pinger
	close  func()
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to postgres")
		return &store{repo: scenario.NewRepoPG(pool), pinger: pool, close: pool.Close}, nil

	case config.StoreSQLite:
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		repo, err := scenario.NewRepoSQLite(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite store")
		return &store{repo: repo, pinger: db.SQLPinger(conn), close: func() { conn.Close() }}, nil

	default:
		return &store{close: func() {}}, nil
	}
}

// newServer wires middleware and routes. It does not start listening.
func newServer(cfg *config.Config, logger zerolog.Logger, st *store) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := telemetry.New("scenario-parser")

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", db.HealthHandler(cfg.Store, st.pinger))
	e.GET("/metrics", metrics.Handler())

	revocations := auth.NewRevocations()
	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:      cfg.AuthIssuer,
			Audience:    cfg.AuthAudience,
			SigningKey:  []byte(cfg.AuthSigningKey),
			Revocations: revocations,
		}))
	}
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 || rateLimitCfg.BurstSize <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(middleware.BodyLimit(cfg.BodyLimit))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	svc := scenario.NewService(st.repo, logger)
	svc.SetStrictKeyWords(cfg.StrictKeyWords)
	svc.SetObserver(metrics)
	scenario.NewHandler(svc).RegisterRoutes(apiV1)
	auth.RegisterRevocationRoutes(apiV1, revocations)

	return e
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg)
	if cfg.IsDev() {
		logger.Warn().Msg("development mode: API requests without a token act as an author")
	}

	st, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.close()

	e := newServer(cfg, logger, st)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("store", cfg.Store).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
