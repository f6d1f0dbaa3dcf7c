// Command catalog loads album credits into an in-memory store and serves
// lookups over HTTP.
//
// Loading and serving are strictly phased: the configured source is drained
// into the store and the store is finalized before the listener opens, so
// the store is never written while lookups run.
//
// Usage:
//
//	go run ./cmd/catalog [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/catalog/cache"
	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/catalog/handler"
	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/albumdb/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("catalog service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	kind, err := catalog.ParseKind(cfg.Catalog.Strategy)
	if err != nil {
		return err
	}
	slog.Info("starting catalog service",
		"port", cfg.Server.Port,
		"strategy", kind.String(),
		"source", cfg.Catalog.Source,
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
	}

	store, loaded, err := buildStore(ctx, cfg, kind, m)
	if err != nil {
		return err
	}

	checker := health.NewChecker()
	checker.Register("store", health.Flag(store.Ready, "store not finalized"))

	opts := cache.Options{
		LocalSize: cfg.Catalog.CacheSize,
		Namespace: kind.String() + "-" + loaded.Fingerprint,
		TTL:       cfg.Redis.CacheTTL,
		Metrics:   m,
	}
	if cfg.Redis.Enabled {
		rc, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, serving with local cache only", "error", err)
		} else {
			defer rc.Close()
			opts.Remote = rc
			checker.Register("redis", health.Ping(rc.Ping))
		}
	}
	lookupCache, err := cache.New(opts)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	handler.New(store, lookupCache, m).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	servers := []*http.Server{{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}}
	if cfg.Metrics.Enabled {
		servers = append(servers, metrics.NewServer(cfg.Metrics.Port))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			slog.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}

// buildStore loads the configured source into a new store and finalizes it.
// Every phase is traced under one startup span that is logged when done.
func buildStore(ctx context.Context, cfg *config.Config, kind catalog.Kind, m *metrics.Metrics) (catalog.Store, dataset.LoadResult, error) {
	ctx, span := tracing.Start(ctx, "startup")
	span.SetAttr("strategy", kind.String())
	defer func() {
		span.End()
		span.Log(logger.WithComponent("startup"))
	}()

	openCtx, openSpan := tracing.Start(ctx, "open_source")
	src, closeSource, err := dataset.OpenSource(openCtx, cfg)
	openSpan.End()
	if err != nil {
		return nil, dataset.LoadResult{}, err
	}
	defer func() {
		if cerr := closeSource(); cerr != nil {
			slog.Warn("closing record source", "error", cerr)
		}
	}()

	store := catalog.New(kind)
	res, err := dataset.Load(ctx, src, store, m)
	if err != nil {
		return nil, res, err
	}
	span.SetAttr("fingerprint", res.Fingerprint)
	return store, res, nil
}
