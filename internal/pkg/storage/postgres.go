package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/tguilloux/surebet/internal/pkg/config"
	"github.com/tguilloux/surebet/internal/pkg/models"
)

// Ensure PostgresStorage implements both storage interfaces
var (
	_ EventStorage       = (*PostgresStorage)(nil)
	_ OpportunityStorage = (*PostgresStorage)(nil)
)

// PostgresStorage keeps raw events, normalized events and arbitrage
// opportunities in PostgreSQL.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage opens the connection, pings it and initializes the
// schema.
func NewPostgresStorage(cfg *config.PostgresConfig) (*PostgresStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL storage initialized")
	return s, nil
}

func (s *PostgresStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS raw_events (
		id SERIAL PRIMARY KEY,
		bookmaker VARCHAR(50) NOT NULL,
		sport VARCHAR(200) NOT NULL,
		category VARCHAR(200) NOT NULL,
		tournament VARCHAR(200) NOT NULL DEFAULT '',
		home_name_raw VARCHAR(200) NOT NULL,
		away_name_raw VARCHAR(200) NOT NULL,
		home_odd DECIMAL(10, 4) NOT NULL,
		draw_odd DECIMAL(10, 4),
		away_odd DECIMAL(10, 4) NOT NULL,
		date_raw VARCHAR(200) NOT NULL,
		scrape_timestamp TIMESTAMP NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_raw_events_scrape_timestamp ON raw_events(scrape_timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_raw_events_bookmaker ON raw_events(bookmaker);

	CREATE TABLE IF NOT EXISTS normalized_events (
		id SERIAL PRIMARY KEY,
		bookmaker VARCHAR(50) NOT NULL,
		sport_std VARCHAR(200) NOT NULL,
		category_std VARCHAR(200) NOT NULL,
		home_name_std VARCHAR(200) NOT NULL,
		away_name_std VARCHAR(200) NOT NULL,
		home_odd DECIMAL(10, 4) NOT NULL,
		draw_odd DECIMAL(10, 4),
		away_odd DECIMAL(10, 4) NOT NULL,
		date_normalized DATE NOT NULL,
		kickoff_time TIMESTAMP NOT NULL,
		scrape_timestamp TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_normalized_events_bucket ON normalized_events(date_normalized, sport_std, category_std);

	CREATE TABLE IF NOT EXISTS arbitrages (
		id VARCHAR(36) PRIMARY KEY,
		match_name VARCHAR(500) NOT NULL,
		sport VARCHAR(200) NOT NULL,
		category VARCHAR(200) NOT NULL,
		match_date DATE NOT NULL,
		legs JSONB NOT NULL,
		implied_sum DECIMAL(10, 6) NOT NULL,
		margin DECIMAL(10, 6) NOT NULL,
		is_arbitrage BOOLEAN NOT NULL,
		found_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_arbitrages_found_at ON arbitrages(found_at DESC);
	CREATE INDEX IF NOT EXISTS idx_arbitrages_margin ON arbitrages(margin DESC);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// StoreRawEvents appends a scraped batch.
func (s *PostgresStorage) StoreRawEvents(ctx context.Context, records []models.RawEventRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO raw_events
			(bookmaker, sport, category, tournament, home_name_raw, away_name_raw,
			 home_odd, draw_odd, away_odd, date_raw, scrape_timestamp, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			string(r.Bookmaker), r.Sport, r.Category, r.Tournament,
			r.HomeNameRaw, r.AwayNameRaw,
			r.HomeOdd, nullableOdd(r.DrawOdd), r.AwayOdd,
			r.DateRaw, r.ScrapeTimestamp, r.URL,
		); err != nil {
			return fmt.Errorf("insert raw event for %s: %w", r.Bookmaker, err)
		}
	}
	return tx.Commit()
}

// LoadRawEventsSince returns every raw record scraped at or after since,
// oldest first so batch indices are stable between runs.
func (s *PostgresStorage) LoadRawEventsSince(ctx context.Context, since time.Time) ([]models.RawEventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bookmaker, sport, category, tournament, home_name_raw, away_name_raw,
		       home_odd, draw_odd, away_odd, date_raw, scrape_timestamp, url
		FROM raw_events
		WHERE scrape_timestamp >= $1
		ORDER BY scrape_timestamp, id`, since)
	if err != nil {
		return nil, fmt.Errorf("query raw events: %w", err)
	}
	defer rows.Close()

	var out []models.RawEventRecord
	for rows.Next() {
		var r models.RawEventRecord
		var bookmaker string
		var draw sql.NullFloat64
		if err := rows.Scan(
			&bookmaker, &r.Sport, &r.Category, &r.Tournament,
			&r.HomeNameRaw, &r.AwayNameRaw,
			&r.HomeOdd, &draw, &r.AwayOdd,
			&r.DateRaw, &r.ScrapeTimestamp, &r.URL,
		); err != nil {
			return nil, fmt.Errorf("scan raw event: %w", err)
		}
		r.Bookmaker = models.Bookmaker(bookmaker)
		if draw.Valid {
			r.DrawOdd = draw.Float64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StoreNormalizedEvents archives a normalized batch.
func (s *PostgresStorage) StoreNormalizedEvents(ctx context.Context, records []models.NormalizedEventRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO normalized_events
			(bookmaker, sport_std, category_std, home_name_std, away_name_std,
			 home_odd, draw_odd, away_odd, date_normalized, kickoff_time, scrape_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			string(r.Bookmaker), r.SportStd, r.CategoryStd,
			r.HomeNameStd, r.AwayNameStd,
			r.HomeOdd, nullableOdd(r.DrawOdd), r.AwayOdd,
			r.DateNormalized, r.KickoffTime, r.ScrapeTimestamp,
		); err != nil {
			return fmt.Errorf("insert normalized event for %s: %w", r.Bookmaker, err)
		}
	}
	return tx.Commit()
}

// StoreOpportunity persists one arbitrage report, legs as JSONB.
func (s *PostgresStorage) StoreOpportunity(ctx context.Context, opp *models.ArbitrageOpportunity) error {
	legs, err := json.Marshal(opp.Legs)
	if err != nil {
		return fmt.Errorf("marshal legs: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO arbitrages
			(id, match_name, sport, category, match_date, legs,
			 implied_sum, margin, is_arbitrage, found_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		opp.ID, opp.MatchName, opp.Sport, opp.Category, opp.MatchDate, legs,
		opp.ImpliedSum, opp.Margin, opp.IsArbitrage, opp.FoundAt,
	)
	if err != nil {
		return fmt.Errorf("insert arbitrage %s: %w", opp.ID, err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func nullableOdd(v float64) sql.NullFloat64 {
	if v > 1.0 {
		return sql.NullFloat64{Float64: v, Valid: true}
	}
	return sql.NullFloat64{}
}
