package arbitrage

import (
	"math"
	"testing"

	"github.com/tguilloux/surebet/internal/pkg/models"
)

const eps = 1e-9

func TestEvaluate_FindsArbitrage(t *testing.T) {
	// Best triple (2.90, 3.25, 2.95) sums to ~0.9915, margin ~0.85%.
	quotes := []Quote{
		{Bookmaker: models.BookmakerNetbet, Home: 2.85, Draw: 3.20, Away: 2.90},
		{Bookmaker: models.BookmakerWinamax, Home: 2.90, Draw: 3.25, Away: 2.95},
	}
	combo, ok := Evaluate(quotes, false)
	if !ok {
		t.Fatal("Evaluate returned no combination")
	}
	wantSum := 1/2.90 + 1/3.25 + 1/2.95
	if math.Abs(combo.ImpliedSum-wantSum) > eps {
		t.Errorf("ImpliedSum = %v, want %v", combo.ImpliedSum, wantSum)
	}
	if !combo.IsArbitrage() {
		t.Error("IsArbitrage = false, want true")
	}
	if math.Abs(combo.Margin()-(1-wantSum)) > eps {
		t.Errorf("Margin = %v, want %v", combo.Margin(), 1-wantSum)
	}
	// Every winning leg must come from Winamax, whose odds dominate.
	for _, leg := range combo.Legs {
		if leg.Bookmaker != models.BookmakerWinamax {
			t.Errorf("leg %v taken from %s, want winamax", leg.Outcome, leg.Bookmaker)
		}
	}
}

func TestEvaluate_NoOpportunity(t *testing.T) {
	quotes := []Quote{
		{Bookmaker: models.BookmakerNetbet, Home: 1.80, Draw: 3.50, Away: 2.00},
		{Bookmaker: models.BookmakerZebet, Home: 1.75, Draw: 3.40, Away: 1.95},
	}
	combo, ok := Evaluate(quotes, false)
	if !ok {
		t.Fatal("Evaluate returned no combination")
	}
	wantSum := 1/1.80 + 1/3.50 + 1/2.00
	if math.Abs(combo.ImpliedSum-wantSum) > eps {
		t.Errorf("ImpliedSum = %v, want %v", combo.ImpliedSum, wantSum)
	}
	if combo.IsArbitrage() {
		t.Errorf("IsArbitrage = true for implied sum %v", combo.ImpliedSum)
	}
}

func TestEvaluate_CrossBookmakerMix(t *testing.T) {
	// The minimum must mix sources: best home at netbet, rest at zebet.
	quotes := []Quote{
		{Bookmaker: models.BookmakerNetbet, Home: 2.60, Draw: 3.20, Away: 2.10},
		{Bookmaker: models.BookmakerZebet, Home: 2.20, Draw: 3.60, Away: 2.50},
	}
	combo, ok := Evaluate(quotes, false)
	if !ok {
		t.Fatal("Evaluate returned no combination")
	}
	want := map[models.Outcome]models.Bookmaker{
		models.OutcomeHome: models.BookmakerNetbet,
		models.OutcomeDraw: models.BookmakerZebet,
		models.OutcomeAway: models.BookmakerZebet,
	}
	for _, leg := range combo.Legs {
		if leg.Bookmaker != want[leg.Outcome] {
			t.Errorf("%s leg from %s, want %s", leg.Outcome, leg.Bookmaker, want[leg.Outcome])
		}
	}
}

func TestEvaluate_RequireDistinctBookmakers(t *testing.T) {
	// Zebet has the best odds on every slot; with the constraint on, a
	// three-leg combination cannot take more than one of them.
	quotes := []Quote{
		{Bookmaker: models.BookmakerZebet, Home: 2.60, Draw: 4.00, Away: 2.80},
		{Bookmaker: models.BookmakerNetbet, Home: 2.00, Draw: 3.00, Away: 2.10},
		{Bookmaker: models.BookmakerWinamax, Home: 2.10, Draw: 3.10, Away: 2.20},
	}
	combo, ok := Evaluate(quotes, true)
	if !ok {
		t.Fatal("Evaluate returned no combination")
	}
	seen := map[models.Bookmaker]int{}
	for _, leg := range combo.Legs {
		seen[leg.Bookmaker]++
	}
	for b, n := range seen {
		if n > 1 {
			t.Errorf("bookmaker %s supplies %d legs with distinct constraint on", b, n)
		}
	}

	unconstrained, _ := Evaluate(quotes, false)
	if unconstrained.ImpliedSum > combo.ImpliedSum {
		t.Errorf("unconstrained sum %v worse than constrained %v", unconstrained.ImpliedSum, combo.ImpliedSum)
	}
}

func TestEvaluate_TwoWayMarket(t *testing.T) {
	quotes := []Quote{
		{Bookmaker: models.BookmakerWinamax, Home: 2.30, Away: 1.95},
		{Bookmaker: models.BookmakerZebet, Home: 2.10, Away: 2.15},
	}
	combo, ok := Evaluate(quotes, false)
	if !ok {
		t.Fatal("Evaluate returned no combination")
	}
	if len(combo.Legs) != 2 {
		t.Fatalf("got %d legs for a 2-way market, want 2", len(combo.Legs))
	}
	wantSum := 1/2.30 + 1/2.15
	if math.Abs(combo.ImpliedSum-wantSum) > eps {
		t.Errorf("ImpliedSum = %v, want %v", combo.ImpliedSum, wantSum)
	}
	if !combo.IsArbitrage() {
		t.Error("2.30/2.15 two-way should be an arbitrage")
	}
}

func TestEvaluate_PartialDrawCoverage(t *testing.T) {
	// Only one source prices the draw; its combinations still count, the
	// other source only contributes home/away legs.
	quotes := []Quote{
		{Bookmaker: models.BookmakerWinamax, Home: 2.40, Draw: 3.95, Away: 2.45},
		{Bookmaker: models.BookmakerNetbet, Home: 2.50, Away: 2.60},
	}
	combo, ok := Evaluate(quotes, false)
	if !ok {
		t.Fatal("Evaluate returned no combination")
	}
	if len(combo.Legs) != 3 {
		t.Fatalf("got %d legs, want 3", len(combo.Legs))
	}
	wantSum := 1/2.50 + 1/3.95 + 1/2.60
	if math.Abs(combo.ImpliedSum-wantSum) > eps {
		t.Errorf("ImpliedSum = %v, want %v", combo.ImpliedSum, wantSum)
	}
}

func TestEvaluate_StakeShares(t *testing.T) {
	quotes := []Quote{
		{Bookmaker: models.BookmakerNetbet, Home: 2.40, Draw: 3.95, Away: 2.45},
		{Bookmaker: models.BookmakerZebet, Home: 2.30, Draw: 3.80, Away: 2.35},
	}
	combo, ok := Evaluate(quotes, false)
	if !ok {
		t.Fatal("Evaluate returned no combination")
	}
	total := 0.0
	for _, leg := range combo.Legs {
		total += leg.StakeShare
		// Equal payout: stake share times odd is the same for every leg.
		if payout := leg.StakeShare * leg.Odd; math.Abs(payout-1/combo.ImpliedSum) > eps {
			t.Errorf("leg %v payout = %v, want %v", leg.Outcome, payout, 1/combo.ImpliedSum)
		}
	}
	if math.Abs(total-1.0) > eps {
		t.Errorf("stake shares sum to %v, want 1", total)
	}
}

func TestEvaluate_TooSmall(t *testing.T) {
	if _, ok := Evaluate([]Quote{{Bookmaker: models.BookmakerPmu, Home: 2.0, Draw: 3.0, Away: 4.0}}, false); ok {
		t.Error("singleton group produced a combination")
	}
	if _, ok := Evaluate(nil, false); ok {
		t.Error("empty group produced a combination")
	}
}
