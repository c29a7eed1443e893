package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Postgres   PostgresConfig   `yaml:"postgres"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	Mapping    MappingConfig    `yaml:"mapping"`
	Correlator CorrelatorConfig `yaml:"correlator"`
	Arbitrage  ArbitrageConfig  `yaml:"arbitrage"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type ScraperConfig struct {
	EnabledBookmakers []string `yaml:"enabled_bookmakers"`
	TimeoutSeconds    int      `yaml:"timeout_seconds"`
	Headless          bool     `yaml:"headless"`
	UserAgent         string   `yaml:"user_agent"`
	ScreenshotDir     string   `yaml:"screenshot_dir"` // empty disables screenshots
	Targets           []Target `yaml:"targets"`
}

// Timeout is the per-page navigation budget.
func (c *ScraperConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Target is one bookmaker listing page and the classification labels its
// records inherit (the sites expose one URL per tournament).
type Target struct {
	Bookmaker  string `yaml:"bookmaker"`
	Sport      string `yaml:"sport"`
	Category   string `yaml:"category"`
	Tournament string `yaml:"tournament"`
	URL        string `yaml:"url"`
}

type MappingConfig struct {
	File string `yaml:"file"`
}

type CorrelatorConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // default 0.6
	Bookmakers          int     `yaml:"bookmakers"`           // number of integrated sites
}

type ArbitrageConfig struct {
	// RequireDistinctBookmakers forbids one bookmaker supplying two legs of
	// the same combination. Off by default: a single-site hedge across
	// outcomes is still a hedge.
	RequireDistinctBookmakers bool `yaml:"require_distinct_bookmakers"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"` // TELEGRAM_BOT_TOKEN overrides
	ChatID   int64  `yaml:"chat_id"`   // TELEGRAM_CHAT_ID overrides
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Scraper.TimeoutSeconds <= 0 {
		c.Scraper.TimeoutSeconds = 30
	}
	if c.Correlator.SimilarityThreshold <= 0 {
		c.Correlator.SimilarityThreshold = 0.6
	}
	if c.Correlator.Bookmakers <= 0 {
		c.Correlator.Bookmakers = len(c.Scraper.EnabledBookmakers)
	}
	if c.Mapping.File == "" {
		c.Mapping.File = "data/mapping.yml"
	}
}

// TargetsFor returns the scrape targets configured for one bookmaker.
func (c *Config) TargetsFor(bookmaker string) []Target {
	var out []Target
	for _, t := range c.Scraper.Targets {
		if t.Bookmaker == bookmaker {
			out = append(out, t)
		}
	}
	return out
}
