package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecotag-platform/internal/audit"
	"ecotag-platform/internal/auth"
	"ecotag-platform/internal/config"
	"ecotag-platform/internal/directory"
	"ecotag-platform/internal/ratelimit"
	"ecotag-platform/internal/rbac"
	"ecotag-platform/internal/rewards"
	"ecotag-platform/pkg/logger"
	"ecotag-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// The role table is built once and injected everywhere; issued tokens
	// embed its permission sets and never re-read it.
	roles := rbac.NewTable()

	authManager, err := auth.NewManager(cfg.Auth, roles)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	limiter, redisClose, err := buildLimiter(rootCtx, cfg)
	if err != nil {
		log.Error("rate limiter init failed", "err", err)
		os.Exit(1)
	}
	if redisClose != nil {
		defer redisClose()
	}

	accounts := directory.NewMemoryRepo()
	if err := accounts.Seed(time.Now(), directory.DefaultSeed()); err != nil {
		log.Error("directory seed failed", "err", err)
		os.Exit(1)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, appDeps{
		Config:    cfg,
		Roles:     roles,
		Auth:      authManager,
		Limiter:   limiter,
		Directory: directory.NewService(accounts),
		Rewards:   rewards.NewService(rewards.NewMemoryRepo()),
		Audit:     audit.NewService(audit.NewMemoryRepo()),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// buildLimiter picks the rate-limit backend from config. The gate only sees
// the Limiter interface, so swapping stores never touches gate logic.
func buildLimiter(ctx context.Context, cfg config.Config) (ratelimit.Limiter, func(), error) {
	switch cfg.RateLimit.Backend {
	case "redis":
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			return nil, nil, err
		}
		l, err := ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return l, func() { _ = rdb.Close() }, nil
	default:
		return ratelimit.NewMemoryLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window), nil, nil
	}
}
