package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/api"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/config"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/engine"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/settings"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/vocab"
)

func main() {
	// Setup Logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	entry := logger.WithField("service", "vocabulary-radar")

	if err := run(logger, entry); err != nil {
		entry.WithError(err).Error("Service stopped")
		os.Exit(1)
	}
}

// run wires the service and blocks until the server stops. Resources opened
// here are released before it returns.
func run(logger *logrus.Logger, entry *logrus.Entry) error {
	// 1. Config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		entry.Warnf("Unknown log level %q, using info", cfg.Log.Level)
	}

	entry.Info("Starting Vocabulary Radar service")

	// 2. Storage
	store, err := settings.NewFileStore(cfg.Storage.DataDir, "settings.json")
	if err != nil {
		return fmt.Errorf("failed to initialize settings storage: %w", err)
	}

	// 3. Vocabulary sources
	provider, cache, err := buildProvider(cfg, entry)
	if err != nil {
		return fmt.Errorf("failed to initialize vocabulary: %w", err)
	}
	if cache != nil {
		defer cache.Close()
	}

	// 4. Engine
	eng, err := engine.NewEngine(cfg, entry, provider, store)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer eng.Close()

	if err := eng.Start(); err != nil {
		entry.WithError(err).Warn("Failed to restore settings")
	}

	// 5. API Server
	server := api.NewServer(eng, entry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			entry.WithError(err).Warn("Server shutdown failed")
		}
	}()

	if err := server.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	entry.Info("Shutting down")
	return nil
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load(), nil
}

// buildProvider chains the cached remote source, when configured, ahead of
// the bundled vocabulary.
func buildProvider(cfg *config.Config, log *logrus.Entry) (vocab.Provider, *vocab.Cache, error) {
	bundled := vocab.NewBundledProvider()
	if cfg.Vocab.RemoteURL == "" {
		return vocab.NewChainProvider(log, bundled), nil, nil
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		return nil, nil, err
	}
	cache, err := vocab.OpenCache(filepath.Join(cfg.Storage.DataDir, "vocab.db"))
	if err != nil {
		return nil, nil, err
	}

	remote := vocab.NewRemoteProvider(cfg.Vocab.RemoteURL, cfg.Vocab.RequestTimeout, log)
	cached := vocab.NewCachedProvider(cache, remote, cfg.Vocab.CacheMaxAge, log)
	log.WithField("url", cfg.Vocab.RemoteURL).Info("Using remote vocabulary with local cache")
	return vocab.NewChainProvider(log, cached, bundled), cache, nil
}
