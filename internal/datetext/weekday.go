package datetext

import "time"

// mondayFirst converts Go's Sunday=0 weekday to the Monday=0 numbering the
// offset formula below was written against.
func mondayFirst(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// weekdayOffset returns how many days to add to ref to reach the named
// weekday, using the rotation a bookmaker site implies when it shows a bare
// weekday ("mardi à 19:35").
//
// The formula is (weekday_ref + weekday_target + 2) mod 7, carried over
// unchanged from the production scrapers this was validated against. Its
// derivation is unobvious and it has not been proven for every weekday pair;
// TODO: cross-check the rotation against a week of live Winamax/PMU pages
// before trusting dates more than five days out.
func weekdayOffset(ref time.Time, target int) int {
	return (mondayFirst(ref) + target + 2) % 7
}
