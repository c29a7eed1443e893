// Package scraper turns bookmaker listing pages into RawEventRecords.
// Each site gets its own file with its selector table; the shared parts are
// the headless fetcher and the registry.
package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tguilloux/surebet/internal/pkg/config"
	"github.com/tguilloux/surebet/internal/pkg/models"
)

// Scraper extracts the events of one bookmaker listing page.
type Scraper interface {
	Name() models.Bookmaker
	Scrape(ctx context.Context, target config.Target) ([]models.RawEventRecord, error)
}

// selectorTable groups one site's CSS selectors for easy maintenance when
// the site ships a redesign.
type selectorTable struct {
	event string
	date  string
	team  string
	odd   string
}

// parseOdd converts a displayed odd ("2,40") to its decimal value.
// Valid odds are strictly greater than 1.
func parseOdd(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("scraper: bad odd %q: %w", s, err)
	}
	if v <= 1.0 {
		return 0, fmt.Errorf("scraper: odd %v out of range", v)
	}
	return v, nil
}
