// Command mapper walks the recently scraped raw records and asks a human to
// resolve every name the alias table does not know yet. Run it after adding
// a bookmaker or a tournament, then rerun the pipeline.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/tguilloux/surebet/internal/namemap"
	"github.com/tguilloux/surebet/internal/pkg/config"
	"github.com/tguilloux/surebet/internal/pkg/logging"
	"github.com/tguilloux/surebet/internal/pkg/models"
	"github.com/tguilloux/surebet/internal/pkg/storage"
)

const defaultConfigPath = "configs/production.yaml"

type flags struct {
	configPath string
	window     time.Duration
}

func main() {
	if err := run(); err != nil {
		slog.Error("Mapper failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()

	appConfig, err := config.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(&appConfig.Logging, "mapper")

	store, err := storage.NewPostgresStorage(&appConfig.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	defer store.Close()

	mapper, err := namemap.New(namemap.NewFileStore(appConfig.Mapping.File))
	if err != nil {
		return fmt.Errorf("failed to load mapping: %w", err)
	}

	ctx := context.Background()
	raws, err := store.LoadRawEventsSince(ctx, time.Now().Add(-cfg.window))
	if err != nil {
		return fmt.Errorf("load raw events: %w", err)
	}
	if len(raws) == 0 {
		fmt.Println("No raw records in the window, nothing to map.")
		return nil
	}

	resolve := stdinResolver(bufio.NewScanner(os.Stdin))

	// Sports and categories first: team domains are keyed by the canonical
	// sport, so those must resolve before the team walk.
	if err := mapper.EnsureMapped(namemap.DomainSport, distinctSports(raws), resolve); err != nil {
		return err
	}
	if err := mapper.EnsureMapped(namemap.DomainCategory, distinctCategories(raws), resolve); err != nil {
		return err
	}
	for sport, teams := range teamsBySport(raws, mapper) {
		if err := mapper.EnsureMapped(sport, teams, resolve); err != nil {
			return err
		}
	}

	fmt.Println("Mapping complete.")
	return nil
}

// stdinResolver prompts on the terminal for each unknown name. An empty
// answer keeps the raw name as its own canonical form.
func stdinResolver(scanner *bufio.Scanner) namemap.Resolver {
	return func(domain, raw string) (string, error) {
		fmt.Printf("\nUnknown name in %q: %q\n", domain, raw)
		fmt.Print("Canonical name (empty = keep as is): ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("input closed")
		}
		answer := scanner.Text()
		if answer == "" {
			return raw, nil
		}
		return answer, nil
	}
}

func distinctSports(raws []models.RawEventRecord) []string {
	return distinct(raws, func(r models.RawEventRecord) string { return r.Sport })
}

func distinctCategories(raws []models.RawEventRecord) []string {
	return distinct(raws, func(r models.RawEventRecord) string { return r.Category })
}

func distinct(raws []models.RawEventRecord, field func(models.RawEventRecord) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range raws {
		v := field(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// teamsBySport groups the team names under their canonical sport domain.
// Sports were just ensured, so canonicalization cannot miss here.
func teamsBySport(raws []models.RawEventRecord, mapper *namemap.Mapper) map[string][]string {
	out := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for _, r := range raws {
		sport, err := mapper.Canonicalize(namemap.DomainSport, r.Sport)
		if err != nil {
			continue
		}
		if seen[sport] == nil {
			seen[sport] = make(map[string]bool)
		}
		for _, name := range []string{r.HomeNameRaw, r.AwayNameRaw} {
			if name == "" || seen[sport][name] {
				continue
			}
			seen[sport][name] = true
			out[sport] = append(out[sport], name)
		}
	}
	for sport := range out {
		sort.Strings(out[sport])
	}
	return out
}

func parseFlags() flags {
	var cfg flags

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.DurationVar(&cfg.window, "window", 24*time.Hour, "Scan raw records scraped within this window")
	flag.Parse()
	return cfg
}
