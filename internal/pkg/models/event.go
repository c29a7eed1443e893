package models

import (
	"time"
)

// Bookmaker identifies one integrated bookmaker site.
type Bookmaker string

const (
	BookmakerWinamax Bookmaker = "winamax"
	BookmakerZebet   Bookmaker = "zebet"
	BookmakerNetbet  Bookmaker = "netbet"
	BookmakerPmu     Bookmaker = "pmu"
)

// AllBookmakers lists every integrated bookmaker in registration order.
var AllBookmakers = []Bookmaker{
	BookmakerWinamax,
	BookmakerZebet,
	BookmakerNetbet,
	BookmakerPmu,
}

// ParseBookmaker maps a config/storage string to a known Bookmaker.
func ParseBookmaker(s string) (Bookmaker, bool) {
	for _, b := range AllBookmakers {
		if string(b) == s {
			return b, true
		}
	}
	return "", false
}

// RawEventRecord is one fixture as observed on one bookmaker site.
// Raw fields are kept exactly as scraped; normalization never mutates them.
type RawEventRecord struct {
	Bookmaker   Bookmaker `json:"bookmaker"`
	Sport       string    `json:"sport"`
	Category    string    `json:"category"`
	Tournament  string    `json:"tournament"`
	HomeNameRaw string    `json:"home_name_raw"`
	AwayNameRaw string    `json:"away_name_raw"`

	HomeOdd float64 `json:"home_odd"`
	DrawOdd float64 `json:"draw_odd"` // 0 when the sport has no draw outcome
	AwayOdd float64 `json:"away_odd"`

	DateRaw         string    `json:"date_raw"`
	ScrapeTimestamp time.Time `json:"scrape_timestamp"`
	URL             string    `json:"url"`
}

// HasDraw reports whether the record carries a draw odd (3-way market).
func (r RawEventRecord) HasDraw() bool {
	return r.DrawOdd > 1.0
}

// NormalizedEventRecord is a RawEventRecord plus the derived fields the
// correlator needs. The raw record stays embedded untouched for auditability.
type NormalizedEventRecord struct {
	RawEventRecord

	// DateNormalized is the fixture date at day granularity (midnight UTC of
	// the kickoff day). Grouping only needs the day.
	DateNormalized time.Time `json:"date_normalized"`
	// KickoffTime is the full normalized timestamp, kept as metadata.
	KickoffTime time.Time `json:"kickoff_time"`

	// SportStd/CategoryStd are the canonical classification labels; buckets
	// are keyed on them so "foot us" and "football americain" group together.
	SportStd    string `json:"sport_std"`
	CategoryStd string `json:"category_std"`

	HomeNameStd string `json:"home_name_std"`
	AwayNameStd string `json:"away_name_std"`
}
