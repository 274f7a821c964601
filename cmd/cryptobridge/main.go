package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cryptobridge/config"
	"cryptobridge/internal/metrics"
	"cryptobridge/internal/warmup"
	"cryptobridge/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	flag.Parse()

	path := config.ResolveConfigPath(*configPath)
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{"path": path}).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Cryptobridge.Name,
		"version":     cfg.Cryptobridge.Version,
		"environment": config.AppEnvironment(),
	}).Info("starting cryptobridge")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Prometheus.Enabled {
		metrics.Init(log, cfg.Metrics.Prometheus.Addr)
	} else {
		metrics.Init(log, "")
	}

	if cfg.Metrics.CloudWatch.Enabled {
		cw := cfg.Metrics.CloudWatch
		if err := logger.InitCloudWatch(ctx, logger.CloudWatchOptions{
			Region:    cw.Region,
			Namespace: cw.Namespace,
			Dashboard: cw.Dashboard,
		}); err != nil {
			log.WithError(err).Warn("continuing without CloudWatch")
		}
	}

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	targets, err := warmup.Targets(cfg, log)
	if err != nil {
		log.WithError(err).Error("failed to build exchange adapters")
		os.Exit(1)
	}

	svc := warmup.NewService(log, targets...)
	if err := svc.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start catalog warm-up")
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	cancel()

	done := make(chan struct{})
	go func() {
		svc.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("cryptobridge stopped")
}
