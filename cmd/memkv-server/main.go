// Package main provides the entry point for memkv-server.
//
// memkv-server is a single-node, in-memory key-value store reachable
// over a Redis-compatible subset of the RESP wire protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/memkv-go/internal/infra/buildinfo"
	"github.com/yndnr/memkv-go/internal/infra/confloader"
	"github.com/yndnr/memkv-go/internal/infra/shutdown"
	"github.com/yndnr/memkv-go/internal/server/config"
	"github.com/yndnr/memkv-go/internal/server/kvserver"
	"github.com/yndnr/memkv-go/internal/storage/memory"
	"github.com/yndnr/memkv-go/internal/telemetry/logger"
	"github.com/yndnr/memkv-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("memkv-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	slog.SetDefault(log)

	log.Info("starting memkv-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)

	store := memory.New(memory.WithShards(cfg.Storage.Shards))

	metrics := metric.NewRegistry()
	metrics.RegisterKeyCount(func() float64 {
		return float64(store.Len())
	})

	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	if cfg.Storage.SweepInterval > 0 {
		sweeper := memory.NewSweeper(store, cfg.Storage.SweepInterval,
			memory.WithSweepLogger(log),
			memory.WithOnSweep(func(removed int) {
				metrics.KeysExpired.Add(float64(removed))
			}))
		sweeper.Start()
		shutdownHandler.OnShutdown(func(context.Context) error {
			log.Info("stopping sweeper")
			sweeper.Stop()
			return nil
		})
	}

	srv := kvserver.New(&kvserver.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		RateLimit:    cfg.Server.RateLimit,
	}, store, metrics, log)

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start kv server: %w", err)
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down kv server")
		return srv.Shutdown(ctx)
	})

	if cfg.Metrics.Enabled {
		stopMetrics := startMetricsServer(cfg.Metrics.Addr, metrics, log)
		shutdownHandler.OnShutdown(stopMetrics)
	}

	if *configFile != "" {
		stopWatcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config watcher unavailable", "error", err)
		} else {
			shutdownHandler.OnShutdown(stopWatcher)
		}
	}

	log.Info("memkv-server ready", "address", srv.Addr().String())
	return shutdownHandler.Wait()
}

func loadConfig(path string) (*config.ServerConfig, error) {
	cfg := config.Default()
	loader := confloader.NewLoader(confloader.WithConfigFile(path))
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func startMetricsServer(addr string, metrics *metric.Registry, log *slog.Logger) func(context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info("metrics endpoint listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
		}
	}()

	return func(ctx context.Context) error {
		log.Info("shutting down metrics server")
		return srv.Shutdown(ctx)
	}
}

// watchConfig reloads the log level when the configuration file changes.
// Other settings require a restart.
func watchConfig(path string, log *slog.Logger) (func(context.Context) error, error) {
	watcher, err := confloader.NewWatcher(log)
	if err != nil {
		return nil, err
	}

	watcher.OnChange(func(changed string) {
		if filepath.Base(changed) != filepath.Base(path) {
			return
		}
		fresh, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if fresh.Log.Level != logger.GetLevel() {
			logger.SetLevel(fresh.Log.Level)
			log.Info("log level changed", "level", fresh.Log.Level)
		}
	})

	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}
	watcher.Start()

	return func(context.Context) error {
		return watcher.Stop()
	}, nil
}
