package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/Worcesters/basicfit/internal/config"
	"github.com/Worcesters/basicfit/internal/idempotency"
	"github.com/Worcesters/basicfit/internal/ingest/alpha"
	"github.com/Worcesters/basicfit/internal/logging"
	"github.com/Worcesters/basicfit/internal/mcp"
	"github.com/Worcesters/basicfit/internal/server"
	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/Worcesters/basicfit/internal/telemetry/metrics"
	"github.com/Worcesters/basicfit/internal/telemetry/tracing"
	"github.com/Worcesters/basicfit/internal/workout"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logCloser, err := logging.New(logging.Params{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	log.Info("BasicFit starting", "version", Version)

	otelShutdown, err := tracing.Setup(tracing.SetupParams{
		Enabled:  cfg.Tracing.Enabled,
		Endpoint: cfg.Tracing.Endpoint,
		Insecure: cfg.Tracing.Insecure,
	})
	if err != nil {
		log.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}
	defer otelShutdown()

	// Run migrations
	dialect := storage.Dialect(cfg.Database.Driver)
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dialect, dsn); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied", "driver", dialect)

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.Options{
		Dialect:        dialect,
		DSN:            dsn,
		TracingEnabled: cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Metrics
	var collectors []prometheus.Collector
	if db.Pool != nil {
		collectors = append(collectors, pgxpoolprometheus.NewCollector(db.Pool, map[string]string{"db_name": cfg.Database.Name}))
	}
	promRegistry := metrics.SetupPrometheus(collectors...)
	metricsManager := metrics.NewManager("basicfit", "api", promRegistry)

	// Redis backs idempotency and the write rate limit when configured.
	var (
		idemStore   idempotency.Store = idempotency.NewMemoryStore(cfg.Idempotency.CacheSizeMB << 20)
		rateLimiter server.RequestRateLimiter
		rdb         *redis.Client
	)
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if cfg.Tracing.Enabled {
			rdb.AddHook(redisotel.NewTracingHook())
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed", "addr", cfg.Redis.Addr, "error", err)
		}
		idemStore = idempotency.NewRedisStore(rdb)
		rateLimiter = redis_rate.NewLimiter(rdb)
		log.Info("redis connected", "addr", cfg.Redis.Addr)
	}

	svc := workout.New(db, log,
		workout.WithMetrics(metricsManager),
		workout.WithProgressionDefaults(cfg.Progression.SuccessThreshold, cfg.Progression.AutoIncrementEnabled()),
	)
	alphaProvider := alpha.NewProvider(svc, log, "")

	params := server.Params{
		Service:        svc,
		Alpha:          alphaProvider,
		Log:            log,
		APIKey:         cfg.Auth.APIKey,
		Metrics:        metricsManager,
		RateLimiter:    rateLimiter,
		WritesPerMin:   cfg.Redis.WritesPerMin,
		Idempotency:    idemStore,
		IdempotencyTTL: cfg.Idempotency.TTL,
		Tracing:        cfg.Tracing.Enabled,
	}
	if cfg.Metrics.Enabled {
		params.Registry = promRegistry
	}
	if cfg.MCP.Enabled {
		params.MCP = mcp.NewHTTPHandler(mcp.New(svc, Version, log), server.UserID)
		log.Info("mcp endpoint enabled", "path", "/mcp")
	}

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		params.WhoIs = lc

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port))
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{
		Handler:           server.New(params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()
	metricsManager.GaugeLifeSignal.Set(1)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)
	metricsManager.GaugeLifeSignal.Set(0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = httpSrv.Shutdown(shutdownCtx)
	if rdb != nil {
		err = multierr.Append(err, rdb.Close())
	}
	if err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
