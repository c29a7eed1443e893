package scraper

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tguilloux/surebet/internal/pkg/config"
	"github.com/tguilloux/surebet/internal/pkg/models"
)

// Factory builds a scraper bound to the shared fetcher.
type Factory func(f *Fetcher) Scraper

var (
	registryMu sync.RWMutex
	registry   = make(map[models.Bookmaker]Factory)
)

// Register makes a scraper factory available under the given bookmaker name.
// Each site file calls it from init().
func Register(name models.Bookmaker, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("scraper: duplicate registration for %q", name))
	}
	registry[name] = factory
}

// New builds the scraper registered under name.
func New(name models.Bookmaker, f *Fetcher) (Scraper, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("scraper: unknown bookmaker %q (available: %v)", name, Available())
	}
	return factory(f), nil
}

// Available lists the registered bookmaker names in stable order.
func Available() []models.Bookmaker {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]models.Bookmaker, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// ForConfig builds every enabled scraper from the config, failing on
// unknown names so typos surface at startup.
func ForConfig(cfg *config.ScraperConfig, f *Fetcher) ([]Scraper, error) {
	scrapers := make([]Scraper, 0, len(cfg.EnabledBookmakers))
	for _, raw := range cfg.EnabledBookmakers {
		name, ok := models.ParseBookmaker(raw)
		if !ok {
			return nil, fmt.Errorf("scraper: unknown bookmaker %q in config", raw)
		}
		s, err := New(name, f)
		if err != nil {
			return nil, err
		}
		scrapers = append(scrapers, s)
	}
	return scrapers, nil
}
