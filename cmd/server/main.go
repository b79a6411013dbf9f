package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cvforge/auth-service/config"
	"github.com/cvforge/auth-service/internal/domain"
	"github.com/cvforge/auth-service/internal/email"
	"github.com/cvforge/auth-service/internal/health"
	"github.com/cvforge/auth-service/internal/infrastructure/postgres"
	ctxlog "github.com/cvforge/auth-service/internal/log"
	"github.com/cvforge/auth-service/internal/metrics"
	httptransport "github.com/cvforge/auth-service/internal/transport/http"
	"github.com/cvforge/auth-service/internal/transport/http/handler"
	"github.com/cvforge/auth-service/internal/transport/http/middleware"
	"github.com/cvforge/auth-service/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	tokenRepo := postgres.NewTokenRepository(pool)
	identityRepo := postgres.NewIdentityRepository(pool)
	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, cfg.MagicLinkTTL(), logger)
	sweeper := usecase.NewSweeper(tokenRepo, logger)

	authUsecase, err := usecase.NewAuthUsecase(
		tokenRepo, identityRepo, sender, sweeper,
		cfg.BaseURL,
		domain.TTLPolicy{MagicLink: cfg.MagicLinkTTL(), Session: cfg.SessionTTL()},
		logger,
	)
	if err != nil {
		stop()
		log.Fatalf("auth usecase: %v", err)
	}

	secureCookies := strings.HasPrefix(cfg.BaseURL, "https://")
	authHandler, err := handler.NewAuthHandler(authUsecase, cfg.AppHomeURL, cfg.AppErrorURL, secureCookies, logger)
	if err != nil {
		stop()
		log.Fatalf("auth handler: %v", err)
	}

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, authHandler, middleware.Session(authUsecase, logger)),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
