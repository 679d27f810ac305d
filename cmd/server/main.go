package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/api"
	"github.com/pharmaguard-server/internal/catalog"
	"github.com/pharmaguard-server/internal/config"
	"github.com/pharmaguard-server/internal/domain"
	"github.com/pharmaguard-server/internal/session"
	"github.com/pharmaguard-server/pkg/explain"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)

	cat, err := catalog.Load(cfg.Catalog.AlleleDefinitionsPath, cfg.Catalog.GuidelinesPath)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to load reference catalog")
	}
	logger.WithFields(logrus.Fields{
		"version": cat.Version,
		"genes":   len(cat.Genes),
		"drugs":   len(cat.Drugs),
	}).Info("Loaded reference catalog")

	sessions, err := session.NewStore(cfg.Session.MaxEntries, logger)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to create session store")
	}

	explainClient := explain.NewClient(explain.Config{
		Enabled:   cfg.Explain.Enabled,
		BaseURL:   cfg.Explain.BaseURL,
		Timeout:   cfg.Explain.Timeout,
		RateLimit: cfg.Explain.RateLimit,
	}, logger)

	server := api.NewServer(cfg, cat, sessions, explainClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting PharmaGuard server")

	if err := server.Start(ctx); err != nil {
		logger.WithField("error", err.Error()).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}
