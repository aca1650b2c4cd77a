// Package main запускает HTTP-сервер магазина орхидей.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/orchidshop/internal/auth"
	"github.com/mmeshcher/orchidshop/internal/config"
	"github.com/mmeshcher/orchidshop/internal/handler"
	"github.com/mmeshcher/orchidshop/internal/middleware"
	"github.com/mmeshcher/orchidshop/internal/repository"
	"github.com/mmeshcher/orchidshop/internal/service"
)

type revoker interface {
	Revoke(ctx context.Context, id string, until time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
	Close() error
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		sugar.Warnw("failed to load .env file", "error", err.Error())
	}

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		sugar.Warn("using the default JWT secret, allowed only for local sqlite databases")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "driver", cfg.DatabaseDriver, "error", err.Error())
	}
	defer db.Close()

	var revoked revoker
	if cfg.RedisAddr != "" {
		revoked, err = auth.NewRedisRevoker(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			sugar.Fatalw("redis initialization error", "addr", cfg.RedisAddr, "error", err.Error())
		}
	} else {
		sugar.Info("REDIS_ADDR is not set, revoked tokens are kept in memory")
		revoked = auth.NewMemoryRevoker()
	}
	defer revoked.Close()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	svc := service.NewService(db, tokens, revoked)

	authMiddleware := middleware.NewAuthMiddleware(tokens, revoked, logger)
	h := handler.NewHandler(handler.Services{
		Accounts:   svc.Accounts,
		Categories: svc.Categories,
		Orchids:    svc.Orchids,
		Orders:     svc.Orders,
	}, logger, authMiddleware, middleware.NewMetrics())

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting orchidshop server", "addr", cfg.RunAddress, "driver", cfg.DatabaseDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
