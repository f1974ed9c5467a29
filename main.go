package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"irisserve/artifact"
	"irisserve/config"
	qhttp "irisserve/http"
	"irisserve/inference"
	"irisserve/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// 2. Load artifacts. A partially loaded service never serves.
	paths := cfg.ArtifactPaths()
	store, err := artifact.Load(paths, cfg.LoadOptions(inference.NumClasses))
	if err != nil {
		logger.Fatal("failed to load artifacts", zap.Error(err))
	}
	svc, err := inference.NewService(store,
		inference.WithPredictionCache(cfg.Inference.CacheSize),
		inference.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("failed to initialize inference service", zap.Error(err))
	}
	if !svc.HasMetrics() {
		logger.Warn("metrics artifact not found; /metrics will report unavailable", zap.String("path", paths.Metrics))
	}
	logger.Info("artifacts loaded",
		zap.String("model", paths.Model),
		zap.String("model_type", paths.ModelType),
		zap.Strings("feature_order", store.FeatureNames()),
		zap.Bool("metrics", svc.HasMetrics()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Artifacts.Watch {
		err := artifact.Watch(ctx, paths, func(path string, op fsnotify.Op) {
			logger.Warn("artifact changed on disk; restart to load it", zap.String("path", path), zap.String("op", op.String()))
		}, func(err error) {
			logger.Warn("artifact watcher error", zap.Error(err))
		})
		if err != nil {
			logger.Warn("artifact watcher disabled", zap.Error(err))
		}
	}

	// 3. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}, svc, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 4. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}
