package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tguilloux/surebet/internal/pkg/config"
	"github.com/tguilloux/surebet/internal/pkg/logging"
	"github.com/tguilloux/surebet/internal/pkg/storage"
	"github.com/tguilloux/surebet/internal/scraper"
)

const defaultConfigPath = "configs/production.yaml"

type flags struct {
	configPath string
	bookmaker  string // override enabled_bookmakers, e.g. "winamax"
	interval   time.Duration
}

func main() {
	if err := run(); err != nil {
		slog.Error("Scraper failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()

	appConfig, err := config.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.Setup(&appConfig.Logging, "scraper")

	if cfg.bookmaker != "" {
		appConfig.Scraper.EnabledBookmakers = []string{cfg.bookmaker}
	}

	store, err := storage.NewPostgresStorage(&appConfig.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	defer store.Close()

	fetcher := scraper.NewFetcher(&appConfig.Scraper, logger)
	scrapers, err := scraper.ForConfig(&appConfig.Scraper, fetcher)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.interval <= 0 {
		return scrapeOnce(ctx, scrapers, appConfig, store, logger)
	}

	logger.Info("scraping on interval", "every", cfg.interval)
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()
	for {
		if err := scrapeOnce(ctx, scrapers, appConfig, store, logger); err != nil {
			logger.Error("scrape cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func scrapeOnce(ctx context.Context, scrapers []scraper.Scraper, cfg *config.Config, store storage.EventStorage, logger *slog.Logger) error {
	total := 0
	for _, s := range scrapers {
		targets := cfg.TargetsFor(string(s.Name()))
		if len(targets) == 0 {
			logger.Warn("no targets configured", "bookmaker", s.Name())
			continue
		}
		for _, target := range targets {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := s.Scrape(ctx, target)
			if err != nil {
				logger.Error("scrape failed", "bookmaker", s.Name(), "url", target.URL, "error", err)
				continue
			}
			if err := store.StoreRawEvents(ctx, records); err != nil {
				return fmt.Errorf("store events from %s: %w", s.Name(), err)
			}
			total += len(records)
			logger.Info("target scraped", "bookmaker", s.Name(), "tournament", target.Tournament, "events", len(records))
		}
	}
	logger.Info("scrape cycle complete", "events", total)
	return nil
}

func parseFlags() flags {
	var cfg flags

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&cfg.bookmaker, "bookmaker", "", "Override enabled_bookmakers: scrape a single site. Empty = use config")
	flag.DurationVar(&cfg.interval, "interval", 0, "Rescrape on interval (e.g. 10m). 0 = scrape once and exit")
	flag.Parse()
	return cfg
}
