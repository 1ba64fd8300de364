package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-crm/internal/cache"
	"github.com/pribylovaa/go-crm/internal/config"
	crmhttp "github.com/pribylovaa/go-crm/internal/http"
	"github.com/pribylovaa/go-crm/internal/http/middleware"
	"github.com/pribylovaa/go-crm/internal/service"
	"github.com/pribylovaa/go-crm/internal/storage/mongo"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting crm-service", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	store, err := mongo.New(dbCtx, cfg.DB)
	dbCancel()
	if err != nil {
		log.Error("mongo_connect_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}
	log.Info("mongo_connected", slog.String("db", cfg.DB.Name))

	svc := service.New(store, cfg.Auth)

	var profileCache cache.ProfileCache
	if cfg.Cache.RedisURL != "" {
		cacheCtx, cacheCancel := context.WithTimeout(rootCtx, 5*time.Second)
		profileCache, err = cache.NewRedisCache(cacheCtx, cfg.Cache.RedisURL, cfg.Cache.Prefix, cfg.Cache.ProfileTTL)
		cacheCancel()
		if err != nil {
			// Без кэша сервис работает, просто медленнее.
			log.Warn("redis_connect_failed", slog.String("err", err.Error()))
		} else {
			svc.SetProfileCache(profileCache)
			log.Info("redis_connected")
		}
	}
	log.Info("service_initialized")

	var ready int32 // 0 — not ready; 1 — ready

	handler := crmhttp.NewRouter(svc, crmhttp.Options{
		Logger:         log,
		Timeout:        cfg.Timeouts.Service,
		CORSOrigins:    cfg.CORS.Origins,
		Metrics:        middleware.NewMetrics(prometheus.DefaultRegisterer),
		MetricsHandler: promhttp.Handler(),
		Ready:          func() bool { return atomic.LoadInt32(&ready) == 1 },
	})

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", slog.String("addr", httpAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)

	exitCode := 0
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
			exitCode = 1
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
		_ = httpSrv.Close()
	}

	if profileCache != nil {
		if err := profileCache.Close(); err != nil {
			log.Warn("redis_close_failed", slog.String("err", err.Error()))
		}
	}

	if err := store.Close(shutdownCtx); err != nil {
		log.Warn("mongo_close_failed", slog.String("err", err.Error()))
	}
	shutdownCancel()
	rootCancel()

	log.Info("service_stopped")
	os.Exit(exitCode)
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
