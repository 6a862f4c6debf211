package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jcervantes/blogapi/internal/cache"
	"github.com/jcervantes/blogapi/internal/config"
	"github.com/jcervantes/blogapi/internal/db"
	httpx "github.com/jcervantes/blogapi/internal/http"
	"github.com/jcervantes/blogapi/internal/observability"
	"github.com/jcervantes/blogapi/internal/repo/memory"
	"github.com/jcervantes/blogapi/internal/repo/postgres"
)

func main() {
	cfg, err := config.Load()

	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	// optional tracing
	var tracing bool

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "blogapi", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			tracing = true

			defer func() {
				ctx, cancel := config.WithTimeout(3 * time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	metrics := observability.NewProm(prometheus.DefaultRegisterer)

	deps := httpx.Deps{
		Metrics: metrics,
		Tracing: tracing,
		Checks:  map[string]func() error{},
	}

	// store: postgres when DB_HOST is configured, in-memory otherwise
	if cfg.DBURL != "" {
		pool, err := db.NewPool(cfg.DBURL)

		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		deps.Users = postgres.NewUsersRepo(pool, metrics)
		deps.Authors = postgres.NewAuthorsRepo(pool, metrics)
		deps.Posts = postgres.NewPostsRepo(pool, metrics)

		deps.Checks["db"] = func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()

			return pool.Ping(ctx)
		}
	} else {
		log.Warn("DB_HOST not set, using in-memory store")

		deps.Users = memory.NewUsersRepo()
		deps.Authors = memory.NewAuthorsRepo()
		deps.Posts = memory.NewPostsRepo()
	}

	// list cache: redis when configured, else in-process
	if cfg.RedisAddr != "" {
		r := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      5 * time.Second,
		})
		defer r.Close()

		deps.Cache = r
		deps.Checks["redis"] = func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()

			return r.Ping(ctx)
		}
	} else {
		deps.Cache = cache.NewMemory(5 * time.Second)
	}

	router := httpx.NewRouter(log, cfg, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
