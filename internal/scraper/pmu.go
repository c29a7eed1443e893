package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tguilloux/surebet/internal/pkg/config"
	"github.com/tguilloux/surebet/internal/pkg/models"
)

var pmuCSS = selectorTable{
	event: "div.sb-event-list__event--desktop",
	date:  "span.sb-event-list__event__time",
	team:  "span.sb-event-list__competitor--prematch",
	odd:   "span.sb-event-list__selection__outcome-value",
}

type pmu struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

func init() {
	Register(models.BookmakerPmu, func(f *Fetcher) Scraper {
		return &pmu{fetcher: f, logger: slog.Default().With("scraper", "pmu")}
	})
}

func (p *pmu) Name() models.Bookmaker { return models.BookmakerPmu }

func (p *pmu) Scrape(ctx context.Context, target config.Target) ([]models.RawEventRecord, error) {
	html, err := p.fetcher.HTML(ctx, target.URL, "pmu")
	if err != nil {
		return nil, err
	}
	return p.extract(html, target, time.Now())
}

func (p *pmu) extract(html string, target config.Target, now time.Time) ([]models.RawEventRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("pmu: parse html: %w", err)
	}

	var records []models.RawEventRecord
	doc.Find(pmuCSS.event).Each(func(i int, ev *goquery.Selection) {
		rec, err := p.extractEvent(ev, target, now)
		if err != nil {
			p.logger.Debug("skipping event", "index", i, "error", err)
			return
		}
		records = append(records, rec)
	})
	if len(records) == 0 {
		return nil, fmt.Errorf("pmu: no events extracted from %s", target.URL)
	}
	return records, nil
}

func (p *pmu) extractEvent(ev *goquery.Selection, target config.Target, now time.Time) (models.RawEventRecord, error) {
	var rec models.RawEventRecord

	teams := ev.Find(pmuCSS.team)
	if teams.Length() != 2 {
		return rec, fmt.Errorf("pmu: expected 2 competitors, got %d", teams.Length())
	}

	odds := ev.Find(pmuCSS.odd)
	var home, draw, away float64
	var err error
	switch odds.Length() {
	case 3:
		if home, err = parseOdd(odds.Eq(0).Text()); err != nil {
			return rec, err
		}
		if draw, err = parseOdd(odds.Eq(1).Text()); err != nil {
			return rec, err
		}
		if away, err = parseOdd(odds.Eq(2).Text()); err != nil {
			return rec, err
		}
	case 2:
		if home, err = parseOdd(odds.Eq(0).Text()); err != nil {
			return rec, err
		}
		if away, err = parseOdd(odds.Eq(1).Text()); err != nil {
			return rec, err
		}
	default:
		return rec, fmt.Errorf("pmu: expected 2 or 3 outcomes, got %d", odds.Length())
	}

	dateText := strings.TrimSpace(ev.Find(pmuCSS.date).First().Text())
	if dateText == "" {
		return rec, fmt.Errorf("pmu: missing time label")
	}

	rec = models.RawEventRecord{
		Bookmaker:       models.BookmakerPmu,
		Sport:           target.Sport,
		Category:        target.Category,
		Tournament:      target.Tournament,
		HomeNameRaw:     strings.TrimSpace(teams.Eq(0).Text()),
		AwayNameRaw:     strings.TrimSpace(teams.Eq(1).Text()),
		HomeOdd:         home,
		DrawOdd:         draw,
		AwayOdd:         away,
		DateRaw:         dateText,
		ScrapeTimestamp: now,
		URL:             target.URL,
	}
	return rec, nil
}
