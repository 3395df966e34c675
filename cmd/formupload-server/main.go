// Package main is the entry point for the Alexander form upload server.
// The server hands out signed S3 POST upload forms over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/prn-tf/alexander-formupload/internal/config"
	"github.com/prn-tf/alexander-formupload/internal/connection"
	"github.com/prn-tf/alexander-formupload/internal/handler"
	"github.com/prn-tf/alexander-formupload/internal/logging"
	"github.com/prn-tf/alexander-formupload/internal/metrics"
	"github.com/prn-tf/alexander-formupload/internal/repository"
	"github.com/prn-tf/alexander-formupload/internal/repository/memory"
	"github.com/prn-tf/alexander-formupload/internal/repository/redis"
	"github.com/prn-tf/alexander-formupload/internal/resource"
	"github.com/prn-tf/alexander-formupload/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	flags := pflag.NewFlagSet("formupload-server", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "", "path to config file")
	showVersion := flags.Bool("version", false, "print version and exit")
	_ = flags.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("Alexander Form Upload Server\nVersion: %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		return
	}

	// Initialize a console logger until configuration is loaded
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting Alexander Form Upload Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

// run wires the components and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	registry := connection.NewRegistry(connection.NewS3ClientFactory(connection.S3Options{
		Endpoint:        cfg.AWS.Endpoint,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}))
	resolver := resource.NewResolver(registry, cfg.AWS.Region, cfg.AWS.BucketRegions)

	store, closeStore, err := newIssuanceStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	formService := service.NewFormService(service.FormConfig{
		Service:          cfg.Upload.Service,
		HostTemplate:     cfg.Upload.HostTemplate,
		DefaultExpiry:    cfg.Upload.DefaultExpiry,
		MaxContentLength: cfg.Upload.MaxContentLength,
	}, logger,
		service.WithIssuanceStore(store),
		service.WithMetrics(m),
	)

	router := handler.NewRouter(handler.RouterConfig{
		FormHandler: handler.NewFormHandler(formService, resolver, logger),
		Metrics:     m,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("region", cfg.AWS.Region).
			Str("store", cfg.Store.Driver).
			Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// newIssuanceStore opens the configured store. The returned func releases it.
func newIssuanceStore(ctx context.Context, cfg *config.Config) (repository.IssuanceStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		store, err := redis.NewIssuanceStore(ctx, redis.Options{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
			KeyPrefix:   cfg.Store.KeyPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return store, func() { _ = store.Close() }, nil

	case config.StoreDriverMemory:
		store := memory.NewIssuanceStore(cfg.Store.CleanupInterval)
		return store, store.Stop, nil

	default:
		return nil, func() {}, nil
	}
}
