// Package arbitrage searches the odds of one correlated fixture for the
// combination with the lowest total implied probability. A sum below 1 is a
// guaranteed profit: staking each outcome proportionally to its implied
// probability pays out more than the total stake whatever happens.
package arbitrage

import (
	"math"

	"github.com/tguilloux/surebet/internal/pkg/models"
)

// Quote is one bookmaker's 1X2 offer inside a correlation group.
// A zero slot means the bookmaker does not price that outcome.
type Quote struct {
	Bookmaker models.Bookmaker
	Home      float64
	Draw      float64
	Away      float64
}

// Combination is the best odds assignment found for a group.
type Combination struct {
	Legs []models.Leg
	// ImpliedSum is the total implied probability of the legs.
	ImpliedSum float64
}

// Margin is the guaranteed profit fraction, positive only for true arbitrage.
func (c Combination) Margin() float64 { return 1.0 - c.ImpliedSum }

// IsArbitrage reports whether the combination locks in a profit.
func (c Combination) IsArbitrage() bool { return c.ImpliedSum < 1.0 }

// Evaluate finds the minimum-sum combination over the cross-product of one
// odd per outcome slot. Slots only carry the quotes that actually price
// them, so a missing draw (2-way sport) degrades to a two-term sum and a
// single bookmaker's hole skips only its own combinations.
//
// requireDistinct forbids one bookmaker covering two legs of the same
// combination. The production default allows it (hedging across markets of
// one site is still a hedge); the flag exists because the profitability of
// such a combination depends on the site netting rules.
//
// Groups of fewer than two quotes cannot arbitrage and return ok=false, as
// does a group whose home or away slot is empty.
func Evaluate(quotes []Quote, requireDistinct bool) (Combination, bool) {
	if len(quotes) < 2 {
		return Combination{}, false
	}

	home := slot(quotes, models.OutcomeHome)
	away := slot(quotes, models.OutcomeAway)
	if len(home) == 0 || len(away) == 0 {
		return Combination{}, false
	}

	slots := [][]models.Leg{home}
	if draw := slot(quotes, models.OutcomeDraw); len(draw) > 0 {
		slots = append(slots, draw)
	}
	slots = append(slots, away)

	best := Combination{ImpliedSum: math.MaxFloat64}
	found := false

	pick := make([]models.Leg, 0, len(slots))
	var walk func(depth int, sum float64)
	walk = func(depth int, sum float64) {
		if depth == len(slots) {
			if sum < best.ImpliedSum {
				best = Combination{Legs: append([]models.Leg(nil), pick...), ImpliedSum: sum}
				found = true
			}
			return
		}
		for _, leg := range slots[depth] {
			if requireDistinct && usesBookmaker(pick, leg.Bookmaker) {
				continue
			}
			pick = append(pick, leg)
			walk(depth+1, sum+1.0/leg.Odd)
			pick = pick[:len(pick)-1]
		}
	}
	walk(0, 0)

	if !found {
		return Combination{}, false
	}
	for i := range best.Legs {
		best.Legs[i].StakeShare = (1.0 / best.Legs[i].Odd) / best.ImpliedSum
	}
	return best, true
}

func slot(quotes []Quote, outcome models.Outcome) []models.Leg {
	var legs []models.Leg
	for _, q := range quotes {
		odd := 0.0
		switch outcome {
		case models.OutcomeHome:
			odd = q.Home
		case models.OutcomeDraw:
			odd = q.Draw
		case models.OutcomeAway:
			odd = q.Away
		}
		if odd > 1.0 {
			legs = append(legs, models.Leg{Bookmaker: q.Bookmaker, Outcome: outcome, Odd: odd})
		}
	}
	return legs
}

func usesBookmaker(legs []models.Leg, b models.Bookmaker) bool {
	for _, l := range legs {
		if l.Bookmaker == b {
			return true
		}
	}
	return false
}
