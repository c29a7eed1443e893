// Package pipeline chains the offline stages: load raw scrapes, normalize
// dates and names, correlate records across bookmakers, and search each
// group for an arbitrage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tguilloux/surebet/internal/arbitrage"
	"github.com/tguilloux/surebet/internal/correlate"
	"github.com/tguilloux/surebet/internal/datetext"
	"github.com/tguilloux/surebet/internal/namemap"
	"github.com/tguilloux/surebet/internal/pkg/config"
	"github.com/tguilloux/surebet/internal/pkg/models"
	"github.com/tguilloux/surebet/internal/pkg/storage"
)

type Pipeline struct {
	events   storage.EventStorage
	opps     storage.OpportunityStorage
	mapper   *namemap.Mapper
	notifier Notifier // nil disables notifications
	cfg      *config.Config
	logger   *slog.Logger
}

func New(events storage.EventStorage, opps storage.OpportunityStorage, mapper *namemap.Mapper, notifier Notifier, cfg *config.Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		events:   events,
		opps:     opps,
		mapper:   mapper,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Report summarizes one pipeline run.
type Report struct {
	RecordsIn     int
	DateErrors    int
	NameErrors    int
	Normalized    int
	Buckets       int
	Groups        int
	Combinations  int
	Opportunities int
}

// bucketKey groups records that can possibly be the same fixture: same
// kickoff day and same canonical sport/category. The day is the formatted
// date, not a time.Time: struct equality on time.Time also compares the
// location pointer, so two midnights with equivalent but distinct locations
// would split one fixture across two buckets.
type bucketKey struct {
	day      string // YYYY-MM-DD
	sport    string
	category string
}

// Run executes one full pass over the raw records scraped since the cutoff.
// Records that fail date or name normalization are skipped and counted, not
// fatal: one bookmaker changing its date wording must not sink the batch.
// An ambiguous alias table is fatal, it means the mapping file needs a human.
func (p *Pipeline) Run(ctx context.Context, since time.Time) (Report, error) {
	var report Report

	raws, err := p.events.LoadRawEventsSince(ctx, since)
	if err != nil {
		return report, fmt.Errorf("load raw events: %w", err)
	}
	report.RecordsIn = len(raws)
	if len(raws) == 0 {
		p.logger.Info("no raw events to process", "since", since)
		return report, nil
	}

	normalized, err := p.normalize(raws, &report)
	if err != nil {
		return report, err
	}
	report.Normalized = len(normalized)
	if len(normalized) == 0 {
		return report, nil
	}

	if err := p.events.StoreNormalizedEvents(ctx, normalized); err != nil {
		return report, fmt.Errorf("store normalized events: %w", err)
	}

	buckets := p.bucket(normalized)
	report.Buckets = len(buckets)

	keys := make([]bucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.day != b.day {
			return a.day < b.day
		}
		if a.sport != b.sport {
			return a.sport < b.sport
		}
		return a.category < b.category
	})

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := p.processBucket(ctx, key, buckets[key], normalized, &report); err != nil {
			return report, err
		}
	}

	p.logger.Info("pipeline run complete",
		"records_in", report.RecordsIn,
		"date_errors", report.DateErrors,
		"name_errors", report.NameErrors,
		"buckets", report.Buckets,
		"groups", report.Groups,
		"opportunities", report.Opportunities)
	return report, nil
}

func (p *Pipeline) normalize(raws []models.RawEventRecord, report *Report) ([]models.NormalizedEventRecord, error) {
	normalized := make([]models.NormalizedEventRecord, 0, len(raws))
	for _, raw := range raws {
		kickoff, err := datetext.Normalize(raw.Bookmaker, raw.DateRaw, raw.ScrapeTimestamp)
		if err != nil {
			var perr *datetext.ParseError
			if errors.As(err, &perr) {
				report.DateErrors++
				p.logger.Warn("unparseable date", "bookmaker", raw.Bookmaker, "raw", raw.DateRaw)
				continue
			}
			return nil, err
		}

		sportStd, err := p.canonicalize(namemap.DomainSport, raw.Sport, report)
		if err != nil {
			return nil, err
		}
		categoryStd, err := p.canonicalize(namemap.DomainCategory, raw.Category, report)
		if err != nil {
			return nil, err
		}
		if sportStd == "" || categoryStd == "" {
			continue
		}

		// Team aliases live under the canonical sport, so "Jets" in hockey
		// and "Jets" in football never collide.
		homeStd, err := p.canonicalize(sportStd, raw.HomeNameRaw, report)
		if err != nil {
			return nil, err
		}
		awayStd, err := p.canonicalize(sportStd, raw.AwayNameRaw, report)
		if err != nil {
			return nil, err
		}
		if homeStd == "" || awayStd == "" {
			continue
		}

		normalized = append(normalized, models.NormalizedEventRecord{
			RawEventRecord: raw,
			DateNormalized: datetext.Day(kickoff),
			KickoffTime:    kickoff,
			SportStd:       sportStd,
			CategoryStd:    categoryStd,
			HomeNameStd:    homeStd,
			AwayNameStd:    awayStd,
		})
	}
	return normalized, nil
}

// canonicalize resolves one raw label. Unmapped labels are counted and
// reported as empty; the record is dropped rather than guessed at.
func (p *Pipeline) canonicalize(domain, raw string, report *Report) (string, error) {
	std, err := p.mapper.Canonicalize(domain, raw)
	if err == nil {
		return std, nil
	}
	var unmapped *namemap.UnmappedError
	if errors.As(err, &unmapped) {
		report.NameErrors++
		p.logger.Warn("unmapped name", "domain", domain, "raw", raw)
		return "", nil
	}
	return "", err
}

func (p *Pipeline) bucket(normalized []models.NormalizedEventRecord) map[bucketKey][]correlate.Record {
	buckets := make(map[bucketKey][]correlate.Record)
	for i, rec := range normalized {
		key := bucketKey{day: rec.DateNormalized.Format("2006-01-02"), sport: rec.SportStd, category: rec.CategoryStd}
		buckets[key] = append(buckets[key], correlate.Record{
			Index:     i,
			Bookmaker: rec.Bookmaker,
			TeamKey:   correlate.TeamKey(rec.HomeNameStd, rec.AwayNameStd),
		})
	}
	return buckets
}

func (p *Pipeline) processBucket(ctx context.Context, key bucketKey, records []correlate.Record, normalized []models.NormalizedEventRecord, report *Report) error {
	groups := correlate.GroupBucket(records, p.cfg.Correlator.Bookmakers, p.cfg.Correlator.SimilarityThreshold)
	report.Groups += len(groups)

	for _, group := range groups {
		if group.Size() < 2 {
			continue
		}

		quotes := make([]arbitrage.Quote, 0, group.Size())
		for _, idx := range group.Indices {
			rec := normalized[idx]
			quotes = append(quotes, arbitrage.Quote{
				Bookmaker: rec.Bookmaker,
				Home:      rec.HomeOdd,
				Draw:      rec.DrawOdd,
				Away:      rec.AwayOdd,
			})
		}

		combo, ok := arbitrage.Evaluate(quotes, p.cfg.Arbitrage.RequireDistinctBookmakers)
		if !ok {
			continue
		}
		report.Combinations++
		if !combo.IsArbitrage() {
			continue
		}

		first := normalized[group.Indices[0]]
		opp := &models.ArbitrageOpportunity{
			ID:          models.NewOpportunityID(),
			MatchName:   first.HomeNameStd + " vs " + first.AwayNameStd,
			Sport:       key.sport,
			Category:    key.category,
			MatchDate:   first.KickoffTime,
			Legs:        combo.Legs,
			ImpliedSum:  combo.ImpliedSum,
			Margin:      combo.Margin(),
			IsArbitrage: true,
			FoundAt:     time.Now().UTC(),
		}

		if err := p.opps.StoreOpportunity(ctx, opp); err != nil {
			return fmt.Errorf("store opportunity: %w", err)
		}
		report.Opportunities++
		p.logger.Info("arbitrage found",
			"match", opp.MatchName,
			"margin", opp.Margin,
			"legs", len(opp.Legs),
			"similarity", group.Similarity)

		if p.notifier != nil {
			if err := p.notifier.NotifyOpportunity(ctx, opp); err != nil {
				p.logger.Error("notification failed", "match", opp.MatchName, "error", err)
			}
		}
	}
	return nil
}
