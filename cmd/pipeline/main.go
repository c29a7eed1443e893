package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tguilloux/surebet/internal/namemap"
	"github.com/tguilloux/surebet/internal/pipeline"
	"github.com/tguilloux/surebet/internal/pkg/config"
	"github.com/tguilloux/surebet/internal/pkg/logging"
	"github.com/tguilloux/surebet/internal/pkg/storage"
)

const defaultConfigPath = "configs/production.yaml"

type flags struct {
	configPath string
	window     time.Duration // how far back to pick up raw records
}

func main() {
	if err := run(); err != nil {
		slog.Error("Pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()

	appConfig, err := config.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyEnvOverrides(appConfig)
	logger := logging.Setup(&appConfig.Logging, "pipeline")

	store, err := storage.NewPostgresStorage(&appConfig.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	defer store.Close()

	mapper, err := namemap.New(namemap.NewFileStore(appConfig.Mapping.File))
	if err != nil {
		return fmt.Errorf("failed to load mapping: %w", err)
	}

	var notifier pipeline.Notifier
	if appConfig.Telegram.Enabled {
		tn, err := pipeline.NewTelegramNotifier(&appConfig.Telegram, logger)
		if err != nil {
			return fmt.Errorf("failed to setup telegram: %w", err)
		}
		notifier = tn
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := pipeline.New(store, store, mapper, notifier, appConfig, logger)
	since := time.Now().Add(-cfg.window)
	report, err := p.Run(ctx, since)
	if err != nil {
		return err
	}
	logger.Info("done",
		"records_in", report.RecordsIn,
		"normalized", report.Normalized,
		"opportunities", report.Opportunities)
	return nil
}

// applyEnvOverrides lets deployments keep the Telegram secrets out of the
// config file.
func applyEnvOverrides(cfg *config.Config) {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Telegram.BotToken = token
	}
	if chat := os.Getenv("TELEGRAM_CHAT_ID"); chat != "" {
		if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
}

func parseFlags() flags {
	var cfg flags

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.DurationVar(&cfg.window, "window", time.Hour, "Process raw records scraped within this window")
	flag.Parse()
	return cfg
}
