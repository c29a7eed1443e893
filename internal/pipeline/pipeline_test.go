package pipeline

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/tguilloux/surebet/internal/namemap"
	"github.com/tguilloux/surebet/internal/pkg/config"
	"github.com/tguilloux/surebet/internal/pkg/models"
)

type fakeStorage struct {
	raws       []models.RawEventRecord
	normalized []models.NormalizedEventRecord
	opps       []*models.ArbitrageOpportunity
}

func (f *fakeStorage) LoadRawEventsSince(_ context.Context, _ time.Time) ([]models.RawEventRecord, error) {
	return f.raws, nil
}

func (f *fakeStorage) StoreRawEvents(_ context.Context, records []models.RawEventRecord) error {
	f.raws = append(f.raws, records...)
	return nil
}

func (f *fakeStorage) StoreNormalizedEvents(_ context.Context, records []models.NormalizedEventRecord) error {
	f.normalized = append(f.normalized, records...)
	return nil
}

func (f *fakeStorage) StoreOpportunity(_ context.Context, opp *models.ArbitrageOpportunity) error {
	f.opps = append(f.opps, opp)
	return nil
}

type fakeNotifier struct {
	sent []*models.ArbitrageOpportunity
}

func (f *fakeNotifier) NotifyOpportunity(_ context.Context, opp *models.ArbitrageOpportunity) error {
	f.sent = append(f.sent, opp)
	return nil
}

type memStore struct{ table namemap.Table }

func (s *memStore) Load() (namemap.Table, error) { return s.table, nil }
func (s *memStore) Save(t namemap.Table) error   { s.table = t; return nil }

func testMapper(t *testing.T) *namemap.Mapper {
	t.Helper()
	store := &memStore{table: namemap.Table{
		namemap.DomainSport: {
			"hockey": {"hockey sur glace", "ice hockey"},
		},
		namemap.DomainCategory: {
			"usa": {"etats-unis", "nhl usa"},
		},
		"hockey": {
			"Winnipeg Jets": {"Jets", "WPG Jets"},
			"LA Kings":      {"Los Angeles Kings", "Kings"},
			"Dallas Stars":  {"Stars"},
		},
	}}
	m, err := namemap.New(store)
	if err != nil {
		t.Fatalf("namemap.New: %v", err)
	}
	return m
}

func testConfig() *config.Config {
	return &config.Config{
		Correlator: config.CorrelatorConfig{
			SimilarityThreshold: 0.6,
			Bookmakers:          3,
		},
	}
}

var scrapedAt = time.Date(2025, 1, 10, 22, 0, 0, 0, time.UTC)

func rawRecord(b models.Bookmaker, home, away string, odds [3]float64, dateRaw string) models.RawEventRecord {
	return models.RawEventRecord{
		Bookmaker:       b,
		Sport:           "hockey sur glace",
		Category:        "etats-unis",
		Tournament:      "nhl",
		HomeNameRaw:     home,
		AwayNameRaw:     away,
		HomeOdd:         odds[0],
		DrawOdd:         odds[1],
		AwayOdd:         odds[2],
		DateRaw:         dateRaw,
		ScrapeTimestamp: scrapedAt,
	}
}

// Three bookmakers quote the same fixture under different alias spellings
// and date wordings. Picking the best odd per outcome across them yields an
// implied sum below 1, so the run must produce exactly one stored and
// notified opportunity.
func TestRunFindsArbitrage(t *testing.T) {
	st := &fakeStorage{raws: []models.RawEventRecord{
		rawRecord(models.BookmakerWinamax, "Jets", "Kings", [3]float64{2.90, 3.10, 2.80}, "Demain à 19:00"),
		rawRecord(models.BookmakerZebet, "WPG Jets", "LA Kings", [3]float64{2.70, 3.25, 2.85}, "Le 11/01 à 19h00"),
		rawRecord(models.BookmakerPmu, "Winnipeg Jets", "Los Angeles Kings", [3]float64{2.75, 3.15, 2.95}, "Demain à 19:00"),
	}}
	notif := &fakeNotifier{}
	p := New(st, st, testMapper(t), notif, testConfig(), slog.Default())

	report, err := p.Run(context.Background(), scrapedAt.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.RecordsIn != 3 || report.Normalized != 3 {
		t.Errorf("records in/normalized = %d/%d, want 3/3", report.RecordsIn, report.Normalized)
	}
	if report.Buckets != 1 {
		t.Errorf("buckets = %d, want 1", report.Buckets)
	}
	if report.Opportunities != 1 {
		t.Fatalf("opportunities = %d, want 1", report.Opportunities)
	}
	if len(st.normalized) != 3 {
		t.Errorf("stored %d normalized records, want 3", len(st.normalized))
	}
	if len(st.opps) != 1 || len(notif.sent) != 1 {
		t.Fatalf("stored/notified = %d/%d, want 1/1", len(st.opps), len(notif.sent))
	}

	opp := st.opps[0]
	if opp.MatchName != "Winnipeg Jets vs LA Kings" {
		t.Errorf("match name = %q", opp.MatchName)
	}
	if opp.Sport != "hockey" || opp.Category != "usa" {
		t.Errorf("labels = %q/%q", opp.Sport, opp.Category)
	}
	if !opp.IsArbitrage || opp.Margin <= 0 {
		t.Errorf("margin = %v, IsArbitrage = %v", opp.Margin, opp.IsArbitrage)
	}
	// Best odds are 2.90 (winamax), 3.25 (zebet), 2.95 (pmu).
	wantSum := 1/2.90 + 1/3.25 + 1/2.95
	if diff := opp.ImpliedSum - wantSum; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("implied sum = %v, want %v", opp.ImpliedSum, wantSum)
	}
	if opp.ID == "" {
		t.Error("opportunity ID is empty")
	}
}

// The same three quotes without a profitable cross-product must still
// correlate but must store nothing.
func TestRunNoArbitrage(t *testing.T) {
	st := &fakeStorage{raws: []models.RawEventRecord{
		rawRecord(models.BookmakerWinamax, "Jets", "Kings", [3]float64{1.80, 3.50, 2.00}, "Demain à 19:00"),
		rawRecord(models.BookmakerZebet, "WPG Jets", "LA Kings", [3]float64{1.75, 3.40, 2.05}, "Le 11/01 à 19h00"),
	}}
	p := New(st, st, testMapper(t), nil, testConfig(), slog.Default())

	report, err := p.Run(context.Background(), scrapedAt.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Groups != 1 {
		t.Errorf("groups = %d, want 1", report.Groups)
	}
	if report.Opportunities != 0 || len(st.opps) != 0 {
		t.Errorf("expected no opportunities, got %d", len(st.opps))
	}
}

// A record whose date cannot be parsed or whose team is unknown is skipped
// and counted; the rest of the batch still flows through.
func TestRunSkipsBadRecords(t *testing.T) {
	badDate := rawRecord(models.BookmakerWinamax, "Jets", "Kings", [3]float64{2.40, 3.60, 2.10}, "mercredi prochain peut-être")
	badTeam := rawRecord(models.BookmakerZebet, "Sharks", "LA Kings", [3]float64{2.10, 3.95, 2.20}, "Le 11/01 à 19h00")
	good := rawRecord(models.BookmakerPmu, "Winnipeg Jets", "Stars", [3]float64{2.20, 3.40, 2.45}, "Demain à 19:00")

	st := &fakeStorage{raws: []models.RawEventRecord{badDate, badTeam, good}}
	p := New(st, st, testMapper(t), nil, testConfig(), slog.Default())

	report, err := p.Run(context.Background(), scrapedAt.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.DateErrors != 1 {
		t.Errorf("date errors = %d, want 1", report.DateErrors)
	}
	if report.NameErrors != 1 {
		t.Errorf("name errors = %d, want 1", report.NameErrors)
	}
	if report.Normalized != 1 {
		t.Errorf("normalized = %d, want 1", report.Normalized)
	}
	// A lone record forms a singleton group; no arbitrage from one bookmaker.
	if report.Opportunities != 0 {
		t.Errorf("opportunities = %d, want 0", report.Opportunities)
	}
}

// Records on different days must never be correlated, whatever the names.
func TestRunBucketsByDay(t *testing.T) {
	st := &fakeStorage{raws: []models.RawEventRecord{
		rawRecord(models.BookmakerWinamax, "Jets", "Kings", [3]float64{2.40, 3.60, 2.10}, "Demain à 19:00"),
		rawRecord(models.BookmakerZebet, "WPG Jets", "LA Kings", [3]float64{2.10, 3.95, 2.45}, "Le 13/01 à 19h00"),
	}}
	p := New(st, st, testMapper(t), nil, testConfig(), slog.Default())

	report, err := p.Run(context.Background(), scrapedAt.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Buckets != 2 {
		t.Errorf("buckets = %d, want 2", report.Buckets)
	}
	if report.Opportunities != 0 {
		t.Errorf("opportunities = %d, want 0 across distinct days", report.Opportunities)
	}
}

// Normalized dates inherit the scrape timestamp's location. Two feeds can
// carry equivalent but distinct locations for the same wall clock; those
// records describe the same day and must share a bucket.
func TestRunBucketsAcrossEquivalentLocations(t *testing.T) {
	utcRec := rawRecord(models.BookmakerWinamax, "Jets", "Kings", [3]float64{2.90, 3.10, 2.80}, "Demain à 19:00")
	zoneRec := rawRecord(models.BookmakerZebet, "WPG Jets", "LA Kings", [3]float64{2.70, 3.25, 2.95}, "Le 11/01 à 19h00")
	zoneRec.ScrapeTimestamp = scrapedAt.In(time.FixedZone("UTC", 0))

	st := &fakeStorage{raws: []models.RawEventRecord{utcRec, zoneRec}}
	p := New(st, st, testMapper(t), nil, testConfig(), slog.Default())

	report, err := p.Run(context.Background(), scrapedAt.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Buckets != 1 {
		t.Fatalf("buckets = %d, want 1 for the same day in equivalent locations", report.Buckets)
	}
	if report.Groups != 1 {
		t.Errorf("groups = %d, want 1", report.Groups)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	st := &fakeStorage{}
	p := New(st, st, testMapper(t), nil, testConfig(), slog.Default())

	report, err := p.Run(context.Background(), scrapedAt)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.RecordsIn != 0 || report.Opportunities != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
}
