// Command segcached-demo runs a small in-process demonstration of the
// segcache cache core: it stores two keys, reads one back, runs the janitor
// on the configured interval and TTL, and serves the cache's Prometheus
// metrics until interrupted.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/segcache/segcache"
	"github.com/segcache/segcache/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(level)

	opts := []segcache.Option[string, string]{
		segcache.WithJanitorInterval[string, string](cfg.JanitorInterval),
		segcache.WithLogger[string, string](log),
	}
	if cfg.EagerGetExpiry {
		opts = append(opts, segcache.WithEagerGetExpiry[string, string]())
	}
	cache := segcache.New[string, string](cfg.CacheCapacity, cfg.CacheTTL, opts...)
	defer cache.Close()

	cache.Put("name", "krishna")
	cache.Put("region", "ap-south-1")

	if v, ok := cache.Get("name"); ok {
		log.Info().Str("key", "name").Str("value", v).Msg("cache hit")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(cache.Registry(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	snap := cache.Stats()
	log.Info().
		Uint64("hits", snap.Hits).
		Uint64("misses", snap.Misses).
		Float64("hit_rate", snap.HitRate()).
		Msg("shutting down")
}
