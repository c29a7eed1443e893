package storage

import (
	"context"
	"time"

	"github.com/tguilloux/surebet/internal/pkg/models"
)

// EventStorage archives scraped records and serves them back to the
// pipeline. Raw records are append-only; normalized records are the derived
// archive the reporting side reads.
type EventStorage interface {
	StoreRawEvents(ctx context.Context, records []models.RawEventRecord) error
	LoadRawEventsSince(ctx context.Context, since time.Time) ([]models.RawEventRecord, error)
	StoreNormalizedEvents(ctx context.Context, records []models.NormalizedEventRecord) error
}

// OpportunityStorage persists found arbitrage opportunities.
type OpportunityStorage interface {
	StoreOpportunity(ctx context.Context, opp *models.ArbitrageOpportunity) error
}
