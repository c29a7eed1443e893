// Package correlate links the per-bookmaker records of one bucket
// (same day, sport and category) into groups that represent one physical
// fixture each.
package correlate

import (
	"github.com/tguilloux/surebet/internal/pkg/models"
)

// DefaultSimilarityThreshold is the minimum average pairwise similarity a
// multi-bookmaker combination must exceed to be committed as one fixture.
const DefaultSimilarityThreshold = 0.6

// Record is one bucket entry: the caller's batch index, the source
// bookmaker, and the cleaned "home - away" comparison key.
type Record struct {
	Index     int
	Bookmaker models.Bookmaker
	TeamKey   string
}

// candidate is one scored combination during the greedy search.
type candidate struct {
	records    []Record
	similarity float64
}

// GroupBucket partitions a bucket into correlation groups, preferring
// full-bookmaker matches: combination sizes run from nBookmakers down to 1,
// and within a size the best-scoring combination is committed first so a
// mediocre match cannot block a better one. The result is total — every
// record lands in exactly one group — and no group holds two records from
// the same bookmaker.
//
// Greedy set packing, not globally optimal; the shrinking pool guarantees
// termination. Buckets are independent, so callers may run them in parallel;
// within one bucket the search is strictly sequential.
func GroupBucket(records []Record, nBookmakers int, threshold float64) []models.CorrelationGroup {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if nBookmakers < 1 {
		nBookmakers = 1
	}

	var groups []models.CorrelationGroup
	remaining := make([]Record, len(records))
	copy(remaining, records)

	for comboSize := nBookmakers; comboSize >= 1; comboSize-- {
		for {
			best, found := bestCombination(remaining, comboSize)
			if !found || best.similarity <= threshold {
				break
			}
			groups = append(groups, toGroup(best))
			remaining = without(remaining, best.records)
		}
	}

	// Leftovers become singleton groups: with any threshold below 1.0 the
	// size-1 pass has already drained them (singletons score 1.0), so this
	// only fires for degenerate thresholds, keeping the partition total.
	for _, r := range remaining {
		groups = append(groups, models.CorrelationGroup{Indices: []int{r.Index}, Similarity: 1.0})
	}
	return groups
}

// bestCombination scans every comboSize-subset of remaining whose bookmakers
// are pairwise distinct and returns the highest-scoring one. The explicit
// found flag is the termination branch of the greedy loop.
func bestCombination(remaining []Record, comboSize int) (candidate, bool) {
	best := candidate{similarity: -1}
	found := false

	combo := make([]Record, 0, comboSize)
	var walk func(start int)
	walk = func(start int) {
		if len(combo) == comboSize {
			sim := averageSimilarity(combo)
			if sim > best.similarity {
				best = candidate{records: append([]Record(nil), combo...), similarity: sim}
				found = true
			}
			return
		}
		for i := start; i <= len(remaining)-(comboSize-len(combo)); i++ {
			r := remaining[i]
			if hasBookmaker(combo, r.Bookmaker) {
				continue
			}
			combo = append(combo, r)
			walk(i + 1)
			combo = combo[:len(combo)-1]
		}
	}
	walk(0)
	return best, found
}

// averageSimilarity is the mean pairwise Ratio over the combination's team
// keys; a singleton trivially scores 1.0.
func averageSimilarity(combo []Record) float64 {
	if len(combo) == 1 {
		return 1.0
	}
	sum, pairs := 0.0, 0
	for i := 0; i < len(combo); i++ {
		for j := i + 1; j < len(combo); j++ {
			sum += Ratio(combo[i].TeamKey, combo[j].TeamKey)
			pairs++
		}
	}
	return sum / float64(pairs)
}

func hasBookmaker(combo []Record, b models.Bookmaker) bool {
	for _, r := range combo {
		if r.Bookmaker == b {
			return true
		}
	}
	return false
}

func toGroup(c candidate) models.CorrelationGroup {
	indices := make([]int, len(c.records))
	for i, r := range c.records {
		indices[i] = r.Index
	}
	return models.CorrelationGroup{Indices: indices, Similarity: c.similarity}
}

func without(remaining []Record, used []Record) []Record {
	usedIdx := make(map[int]bool, len(used))
	for _, r := range used {
		usedIdx[r.Index] = true
	}
	out := remaining[:0]
	for _, r := range remaining {
		if !usedIdx[r.Index] {
			out = append(out, r)
		}
	}
	return out
}
