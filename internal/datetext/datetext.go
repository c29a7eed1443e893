// Package datetext normalizes the free-text kickoff expressions each
// bookmaker site renders ("Demain à 01:00", "À 02h00", "LIVE dans 25 min",
// "29 déc. 2024 à 19:00") into absolute timestamps, relative to the moment
// the record was scraped.
package datetext

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tguilloux/surebet/internal/pkg/models"
)

// ParseError means the raw text matched none of the known grammars for the
// bookmaker. The record cannot be bucketed without a date, so callers skip it.
type ParseError struct {
	Bookmaker models.Bookmaker
	Raw       string
	Reason    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("datetext: %s: cannot parse %q: %s", e.Bookmaker, e.Raw, e.Reason)
}

// grammar parses one bookmaker's date vocabulary against a reference time.
type grammar func(raw string, ref time.Time) (time.Time, error)

var grammars = map[models.Bookmaker]grammar{
	models.BookmakerWinamax: parseLongForm,
	models.BookmakerPmu:     parseLongForm,
	models.BookmakerZebet:   parseShortForm,
	models.BookmakerNetbet:  parseNetbet,
}

// Normalize resolves raw against the grammar of the given bookmaker.
// Seconds are always zeroed; minutes are required, never guessed.
func Normalize(b models.Bookmaker, raw string, ref time.Time) (time.Time, error) {
	g, ok := grammars[b]
	if !ok {
		return time.Time{}, &ParseError{Bookmaker: b, Raw: raw, Reason: "unknown bookmaker"}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &ParseError{Bookmaker: b, Raw: raw, Reason: "empty date text"}
	}
	t, err := g(raw, ref)
	if err != nil {
		return time.Time{}, &ParseError{Bookmaker: b, Raw: raw, Reason: err.Error()}
	}
	return t, nil
}

// Day truncates a kickoff timestamp to its day (midnight, same location).
// Bucketing only compares days.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// frMonths is the fixed abbreviation table used by Winamax, PMU and Netbet.
var frMonths = []string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juill.", "août", "sept.", "oct.", "nov.", "déc.",
}

// frWeekdays is Monday-first, matching Python's weekday() numbering that the
// offset formula was written against.
var frWeekdays = []string{
	"lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi", "dimanche",
}

// frWeekdaysAbbrev is the short form Netbet renders ("mar. 24 déc. 02:00").
var frWeekdaysAbbrev = []string{
	"lun.", "mar.", "mer.", "jeu.", "ven.", "sam.", "dim.",
}

func monthIndex(s string) (time.Month, bool) {
	for i, m := range frMonths {
		if m == s {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

func weekdayIndex(s string, table []string) (int, bool) {
	s = strings.ToLower(s)
	for i, d := range table {
		if d == s {
			return i, true
		}
	}
	return -1, false
}

// parseLongForm handles the Winamax/PMU vocabulary:
//
//	"Aujourd’hui à 19:35"
//	"Demain à 01:00"
//	"mardi à 19:35"
//	"29 déc. 2024 à 19:00"
func parseLongForm(raw string, ref time.Time) (time.Time, error) {
	if t, ok := cutMarker(raw, "Aujourd’hui à ", "Aujourd'hui à "); ok {
		return setClock(ref, t)
	}
	if t, ok := cutMarker(raw, "Demain à "); ok {
		return setClock(ref.AddDate(0, 0, 1), t)
	}

	day, clock, ok := strings.Cut(raw, " à ")
	if !ok {
		return time.Time{}, fmt.Errorf("no %q separator", " à ")
	}

	fields := strings.Fields(day)
	switch len(fields) {
	case 3: // '29 déc. 2024'
		dd, err := strconv.Atoi(fields[0])
		if err != nil {
			return time.Time{}, fmt.Errorf("bad day number %q", fields[0])
		}
		month, ok := monthIndex(fields[1])
		if !ok {
			return time.Time{}, fmt.Errorf("unknown month %q", fields[1])
		}
		yyyy, err := strconv.Atoi(fields[2])
		if err != nil {
			return time.Time{}, fmt.Errorf("bad year %q", fields[2])
		}
		d := time.Date(yyyy, month, dd, 0, 0, 0, 0, ref.Location())
		return setClock(d, clock)
	case 2: // '29 déc.' — year omitted, assume the reference year
		dd, err := strconv.Atoi(fields[0])
		if err != nil {
			return time.Time{}, fmt.Errorf("bad day number %q", fields[0])
		}
		month, ok := monthIndex(fields[1])
		if !ok {
			return time.Time{}, fmt.Errorf("unknown month %q", fields[1])
		}
		d := time.Date(ref.Year(), month, dd, 0, 0, 0, 0, ref.Location())
		return setClock(d, clock)
	case 1: // 'mardi'
		target, ok := weekdayIndex(fields[0], frWeekdays)
		if !ok {
			return time.Time{}, fmt.Errorf("unknown weekday %q", fields[0])
		}
		return setClock(ref.AddDate(0, 0, weekdayOffset(ref, target)), clock)
	default:
		return time.Time{}, fmt.Errorf("unrecognized day expression %q", day)
	}
}

// parseShortForm handles the Zebet/Netbet vocabulary:
//
//	"À 02h00"
//	"Demain à 01H30"
//	"Le 18/12 à 01h30"
func parseShortForm(raw string, ref time.Time) (time.Time, error) {
	if t, ok := cutMarker(raw, "À "); ok {
		return setClock(ref, t)
	}
	if t, ok := cutMarker(raw, "Demain à "); ok {
		return setClock(ref.AddDate(0, 0, 1), t)
	}

	day, clock, ok := strings.Cut(raw, " à ")
	if !ok {
		return time.Time{}, fmt.Errorf("no %q separator", " à ")
	}
	day = strings.TrimPrefix(day, "Le ")
	ddStr, mmStr, ok := strings.Cut(day, "/")
	if !ok {
		return time.Time{}, fmt.Errorf("expected DD/MM, got %q", day)
	}
	dd, err := strconv.Atoi(ddStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad day number %q", ddStr)
	}
	mm, err := strconv.Atoi(mmStr)
	if err != nil || mm < 1 || mm > 12 {
		return time.Time{}, fmt.Errorf("bad month number %q", mmStr)
	}
	// Year comes from the reference, exactly like the day/month replacement
	// the sites themselves imply.
	d := time.Date(ref.Year(), time.Month(mm), dd, 0, 0, 0, 0, ref.Location())
	return setClock(d, clock)
}

// parseNetbet is the short form plus the two event-page variants:
//
//	"LIVE dans 25 min"
//	"mar. 24 déc. 02:00"
func parseNetbet(raw string, ref time.Time) (time.Time, error) {
	if rest, ok := cutMarker(raw, "LIVE dans "); ok {
		minStr, found := strings.CutSuffix(rest, " min")
		if !found {
			return time.Time{}, fmt.Errorf("expected %q suffix in %q", " min", raw)
		}
		n, err := strconv.Atoi(strings.TrimSpace(minStr))
		if err != nil {
			return time.Time{}, fmt.Errorf("bad minute offset %q", minStr)
		}
		t := ref.Add(time.Duration(n) * time.Minute)
		return t.Truncate(time.Minute), nil
	}

	if fields := strings.Fields(raw); len(fields) == 4 {
		if _, ok := weekdayIndex(fields[0], frWeekdaysAbbrev); ok {
			dd, err := strconv.Atoi(fields[1])
			if err != nil {
				return time.Time{}, fmt.Errorf("bad day number %q", fields[1])
			}
			month, ok := monthIndex(fields[2])
			if !ok {
				return time.Time{}, fmt.Errorf("unknown month %q", fields[2])
			}
			d := time.Date(ref.Year(), month, dd, 0, 0, 0, 0, ref.Location())
			return setClock(d, fields[3])
		}
	}

	return parseShortForm(raw, ref)
}

// cutMarker strips the first matching prefix and reports whether one matched.
func cutMarker(raw string, prefixes ...string) (string, bool) {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(raw, p); ok {
			return rest, true
		}
	}
	return "", false
}

// setClock parses an "HH:MM" or "HHhMM" token and applies it to the day of d,
// zeroing seconds. Both hour and minutes are required.
func setClock(d time.Time, clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	sep := strings.IndexAny(clock, ":hH")
	if sep < 0 {
		return time.Time{}, fmt.Errorf("no hour/minute separator in %q", clock)
	}
	hh, err := strconv.Atoi(clock[:sep])
	if err != nil || hh < 0 || hh > 23 {
		return time.Time{}, fmt.Errorf("bad hour in %q", clock)
	}
	mm, err := strconv.Atoi(clock[sep+1:])
	if err != nil || mm < 0 || mm > 59 {
		return time.Time{}, fmt.Errorf("bad minutes in %q", clock)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, d.Location()), nil
}
