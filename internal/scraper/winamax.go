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

// Last verified against the site in August 2026. The class names are
// styled-components hashes and churn on every frontend release.
var winamaxCSS = selectorTable{
	event: `div[data-testid*="match-card"]`,
	date:  "span.sc-jNwOwP",
	team:  "span.sc-kDrquE",
	odd:   "span.sc-fxLEgV",
}

type winamax struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

func init() {
	Register(models.BookmakerWinamax, func(f *Fetcher) Scraper {
		return &winamax{fetcher: f, logger: slog.Default().With("scraper", "winamax")}
	})
}

func (w *winamax) Name() models.Bookmaker { return models.BookmakerWinamax }

func (w *winamax) Scrape(ctx context.Context, target config.Target) ([]models.RawEventRecord, error) {
	html, err := w.fetcher.HTML(ctx, target.URL, "winamax")
	if err != nil {
		return nil, err
	}
	return w.extract(html, target, time.Now())
}

func (w *winamax) extract(html string, target config.Target, now time.Time) ([]models.RawEventRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("winamax: parse html: %w", err)
	}

	var records []models.RawEventRecord
	doc.Find(winamaxCSS.event).Each(func(i int, card *goquery.Selection) {
		rec, err := w.extractCard(card, target, now)
		if err != nil {
			w.logger.Debug("skipping card", "index", i, "error", err)
			return
		}
		records = append(records, rec)
	})
	if len(records) == 0 {
		return nil, fmt.Errorf("winamax: no events extracted from %s", target.URL)
	}
	return records, nil
}

func (w *winamax) extractCard(card *goquery.Selection, target config.Target, now time.Time) (models.RawEventRecord, error) {
	var rec models.RawEventRecord

	teams := card.Find(winamaxCSS.team)
	if teams.Length() != 2 {
		return rec, fmt.Errorf("winamax: expected 2 team labels, got %d", teams.Length())
	}

	odds := card.Find(winamaxCSS.odd)
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
		return rec, fmt.Errorf("winamax: expected 2 or 3 odds, got %d", odds.Length())
	}

	dateText := strings.TrimSpace(card.Find(winamaxCSS.date).First().Text())
	if dateText == "" {
		return rec, fmt.Errorf("winamax: missing date label")
	}

	rec = models.RawEventRecord{
		Bookmaker:       models.BookmakerWinamax,
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
