package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/civiccompass/internal/config"
	"github.com/kailas-cloud/civiccompass/internal/db"
	dbRedis "github.com/kailas-cloud/civiccompass/internal/db/redis"
	logpkg "github.com/kailas-cloud/civiccompass/internal/logger"
	"github.com/kailas-cloud/civiccompass/internal/metrics"
	"github.com/kailas-cloud/civiccompass/internal/repository/chunkcache"
	corpusrepo "github.com/kailas-cloud/civiccompass/internal/repository/corpus"
	chiTransport "github.com/kailas-cloud/civiccompass/internal/transport/chi"
	healthuc "github.com/kailas-cloud/civiccompass/internal/usecase/health"
	searchuc "github.com/kailas-cloud/civiccompass/internal/usecase/search"
	"github.com/kailas-cloud/civiccompass/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, "civiccompass", cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting civiccompass API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("data_root", cfg.Data.Root),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterSearchMetrics()
	metrics.RegisterAPIMetrics()

	site, err := corpusrepo.OpenFS(cfg.Data.Root)
	if err != nil {
		logger.Fatal("Failed to open data root", zap.Error(err))
	}
	defer func() { _ = site.Close() }()

	ctx := context.Background()
	store := openCacheStore(ctx, cfg.Cache, logger)
	if store != nil {
		defer store.Close()
	}

	// Pass nil interfaces (not typed nil pointers) when no shared cache is configured.
	var kv db.KVStore
	var pinger healthuc.CachePinger
	if store != nil {
		kv = store
		pinger = store
	}

	chunks := chunkcache.New(site, kv, time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.ChunkCacheTotal, logger).
		WithKeyPrefix(cfg.Cache.KeyPrefix)

	loader := corpusrepo.NewLoader(site, cfg.Data.Dir, corpusrepo.Files{
		Index:      cfg.Data.Index,
		Concepts:   cfg.Data.Concepts,
		Categories: cfg.Data.Categories,
		Profile:    cfg.Data.Profile,
		Terms:      cfg.Data.Terms,
		Drawings:   cfg.Data.Drawings,
	}, logger)

	searchSvc := searchuc.New(loader, chunks, chunks, metrics.SearchRecorder{}, searchuc.Options{
		RenderCap:         cfg.Search.RenderCap,
		TopMatches:        cfg.Search.TopMatches,
		BrowsePerCategory: cfg.Search.BrowsePerCategory,
		ReaderPageSize:    cfg.Search.ReaderPageSize,
		Workers:           cfg.Search.Workers,
		LocatesCategory:   cfg.Search.LocatesCategory,
	}, logger)

	// A failed first load leaves the server up and unhealthy; POST /admin/reload retries.
	if err := searchSvc.Reload(ctx); err != nil {
		logger.Error("Initial corpus load failed", zap.Error(err))
	}

	healthSvc := healthuc.New(searchSvc, pinger)
	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openCacheStore connects the shared chunk cache. It returns nil when the cache is disabled;
// an unreachable store is fatal since the operator asked for it explicitly.
func openCacheStore(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) db.Store {
	switch cfg.Driver {
	case "", "none":
		logger.Info("Shared chunk cache disabled")
		return nil
	case "redis":
	default:
		logger.Fatal("Unknown cache driver", zap.String("driver", cfg.Driver))
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Addrs))
	return store
}
