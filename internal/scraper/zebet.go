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

var zebetCSS = selectorTable{
	event: "psel-event-main.psel-event",
	date:  "time.psel-timer",
	team:  "span.psel-opponent__name",
	odd:   "span.psel-outcome__data",
}

type zebet struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

func init() {
	Register(models.BookmakerZebet, func(f *Fetcher) Scraper {
		return &zebet{fetcher: f, logger: slog.Default().With("scraper", "zebet")}
	})
}

func (z *zebet) Name() models.Bookmaker { return models.BookmakerZebet }

func (z *zebet) Scrape(ctx context.Context, target config.Target) ([]models.RawEventRecord, error) {
	html, err := z.fetcher.HTML(ctx, target.URL, "zebet")
	if err != nil {
		return nil, err
	}
	return z.extract(html, target, time.Now())
}

func (z *zebet) extract(html string, target config.Target, now time.Time) ([]models.RawEventRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("zebet: parse html: %w", err)
	}

	var records []models.RawEventRecord
	doc.Find(zebetCSS.event).Each(func(i int, ev *goquery.Selection) {
		rec, err := z.extractEvent(ev, target, now)
		if err != nil {
			z.logger.Debug("skipping event", "index", i, "error", err)
			return
		}
		records = append(records, rec)
	})
	if len(records) == 0 {
		return nil, fmt.Errorf("zebet: no events extracted from %s", target.URL)
	}
	return records, nil
}

func (z *zebet) extractEvent(ev *goquery.Selection, target config.Target, now time.Time) (models.RawEventRecord, error) {
	var rec models.RawEventRecord

	teams := ev.Find(zebetCSS.team)
	if teams.Length() != 2 {
		return rec, fmt.Errorf("zebet: expected 2 opponents, got %d", teams.Length())
	}

	odds := ev.Find(zebetCSS.odd)
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
		return rec, fmt.Errorf("zebet: expected 2 or 3 outcomes, got %d", odds.Length())
	}

	dateText := strings.TrimSpace(ev.Find(zebetCSS.date).First().Text())
	if dateText == "" {
		return rec, fmt.Errorf("zebet: missing timer label")
	}

	rec = models.RawEventRecord{
		Bookmaker:       models.BookmakerZebet,
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
