package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome names the three slots of the 1X2 market.
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeDraw Outcome = "draw"
	OutcomeAway Outcome = "away"
)

// CorrelationGroup is a set of record indices (into one normalized batch)
// believed to be the same physical fixture. At most one index per bookmaker.
// Groups are ephemeral: built per bucket, consumed by the arbitrage search,
// never persisted on their own.
type CorrelationGroup struct {
	Indices []int `json:"indices"`
	// Similarity is the average pairwise team-key similarity the group was
	// committed with (1.0 for singletons).
	Similarity float64 `json:"similarity"`
}

// Size returns the number of bookmakers in the group.
func (g CorrelationGroup) Size() int { return len(g.Indices) }

// Leg is one hedged bet inside an arbitrage combination.
type Leg struct {
	Bookmaker Bookmaker `json:"bookmaker"`
	Outcome   Outcome   `json:"outcome"`
	Odd       float64   `json:"odd"`
	// StakeShare is the fraction of the total stake on this leg,
	// (1/odd)/sum, so every outcome pays the same.
	StakeShare float64 `json:"stake_share"`
}

// ArbitrageOpportunity is the best odds combination found for one
// correlation group.
type ArbitrageOpportunity struct {
	ID        string    `json:"id"`
	MatchName string    `json:"match_name"` // "home_std vs away_std"
	Sport     string    `json:"sport"`
	Category  string    `json:"category"`
	MatchDate time.Time `json:"match_date"`

	Legs []Leg `json:"legs"`

	// ImpliedSum is 1/home + 1/draw + 1/away (two terms for 2-way markets).
	ImpliedSum float64 `json:"implied_sum"`
	// Margin is 1 - ImpliedSum; positive means guaranteed profit.
	Margin float64 `json:"margin"`
	// IsArbitrage is true when ImpliedSum < 1.
	IsArbitrage bool `json:"is_arbitrage"`

	FoundAt time.Time `json:"found_at"`
}

// NewOpportunityID returns a fresh identifier for a stored opportunity.
func NewOpportunityID() string {
	return uuid.NewString()
}
