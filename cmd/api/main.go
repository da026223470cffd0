package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/accounthub/internal/account"
	"github.com/geocoder89/accounthub/internal/auth"
	"github.com/geocoder89/accounthub/internal/cache"
	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/db"
	httpx "github.com/geocoder89/accounthub/internal/http"
	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/geocoder89/accounthub/internal/redisclient"
	"github.com/geocoder89/accounthub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const devJWTSecret = "dev-only-insecure-secret"

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, using insecure dev secret")
		cfg.JWTSecret = devJWTSecret
	}

	startCtx, cancelStart := config.WithTimeout(30 * time.Second)
	defer cancelStart()

	shutdownTracer, err := observability.InitTracer(startCtx, observability.TracerConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "accounthub",
		Environment: cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	store, dbPinger, closeStore, err := openStore(startCtx, cfg, prom, log)
	if err != nil {
		log.Error("database setup failed", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	hasher := security.NewHasher(cfg.BcryptCost)

	created, err := db.EnsureAdminUser(startCtx, store, hasher, cfg)
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	if created {
		log.Info("admin user created", "email", cfg.AdminEmail)
	}

	ready := map[string]handlers.Pinger{}
	if dbPinger != nil {
		ready["db"] = dbPinger
	}

	// redis backs the user cache when configured, otherwise it stays in process
	var userCache account.Cache = cache.NewMemory(cfg.CacheTTL)

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rc.Close()

		if err := rc.Ping(startCtx); err != nil {
			log.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "err", err)
		}

		userCache = cache.NewRedis(rc.Raw(), cfg.CacheTTL, log)
		ready["redis"] = rc
	}

	svc := account.NewService(store, hasher,
		account.WithCache(userCache),
		account.WithLogger(log),
		account.WithLocation(cfg.DisplayLocation),
	)

	var shuttingDown atomic.Bool

	router := httpx.NewRouter(httpx.RouterDeps{
		Log:                log,
		Env:                cfg.Env,
		Accounts:           svc,
		Verifier:           auth.NewVerifier(cfg.JWTSecret),
		Prom:               prom,
		Metrics:            promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Ready:              ready,
		ShuttingDown:       shuttingDown.Load,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SignupRatePerMin:   cfg.SignupRatePerMin,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	shuttingDown.Store(true)
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
