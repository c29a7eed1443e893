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

const netbetBaseURL = "https://www.netbet.fr"

// Netbet does not put odds on its listing page, so scraping is two-step:
// collect the event links, then render each event page. The match-result
// market is the first open bet container; its spans interleave odds with
// trend arrows, hence the stride-2 indexing.
type netbet struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

func init() {
	Register(models.BookmakerNetbet, func(f *Fetcher) Scraper {
		return &netbet{fetcher: f, logger: slog.Default().With("scraper", "netbet")}
	})
}

func (n *netbet) Name() models.Bookmaker { return models.BookmakerNetbet }

func (n *netbet) Scrape(ctx context.Context, target config.Target) ([]models.RawEventRecord, error) {
	listHTML, err := n.fetcher.HTML(ctx, target.URL, "netbet")
	if err != nil {
		return nil, err
	}
	links, err := n.eventLinks(listHTML)
	if err != nil {
		return nil, err
	}

	var records []models.RawEventRecord
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		pageHTML, err := n.fetcher.HTML(ctx, link, "netbet_event")
		if err != nil {
			n.logger.Warn("event page fetch failed", "url", link, "error", err)
			continue
		}
		rec, err := n.extractEvent(pageHTML, link, target, time.Now())
		if err != nil {
			n.logger.Debug("skipping event", "url", link, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("netbet: no events extracted from %s", target.URL)
	}
	return records, nil
}

func (n *netbet) eventLinks(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("netbet: parse listing: %w", err)
	}
	var links []string
	seen := make(map[string]bool)
	doc.Find("a.snc-link-to-event").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, netbetBaseURL+href)
	})
	if len(links) == 0 {
		return nil, fmt.Errorf("netbet: no event links on listing page")
	}
	return links, nil
}

func (n *netbet) extractEvent(html, url string, target config.Target, now time.Time) (models.RawEventRecord, error) {
	var rec models.RawEventRecord
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return rec, fmt.Errorf("netbet: parse event page: %w", err)
	}

	teams := doc.Find("div.container-vertical")
	if teams.Length() != 2 {
		return rec, fmt.Errorf("netbet: expected 2 team containers, got %d", teams.Length())
	}

	market := doc.Find("div.parent-container-event.open").First()
	if market.Length() == 0 {
		return rec, fmt.Errorf("netbet: no open market on page")
	}
	spans := market.Find("span.container-odd-and-trend")

	var home, draw, away float64
	switch {
	case market.Find("div.over-3").Length() > 0:
		if spans.Length() < 5 {
			return rec, fmt.Errorf("netbet: three-way market has %d odd spans", spans.Length())
		}
		if home, err = parseOdd(spans.Eq(0).Text()); err != nil {
			return rec, err
		}
		if draw, err = parseOdd(spans.Eq(2).Text()); err != nil {
			return rec, err
		}
		if away, err = parseOdd(spans.Eq(4).Text()); err != nil {
			return rec, err
		}
	case market.Find("div.over-2").Length() > 0:
		if spans.Length() < 3 {
			return rec, fmt.Errorf("netbet: two-way market has %d odd spans", spans.Length())
		}
		if home, err = parseOdd(spans.Eq(0).Text()); err != nil {
			return rec, err
		}
		if away, err = parseOdd(spans.Eq(2).Text()); err != nil {
			return rec, err
		}
	default:
		return rec, fmt.Errorf("netbet: unrecognized market layout")
	}

	dateText := strings.TrimSpace(doc.Find("div.date-event").First().Text())
	if dateText == "" {
		return rec, fmt.Errorf("netbet: missing date label")
	}

	rec = models.RawEventRecord{
		Bookmaker:       models.BookmakerNetbet,
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
		URL:             url,
	}
	return rec, nil
}
