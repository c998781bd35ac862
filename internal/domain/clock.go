package domain

import "time"

// Location resolves a named timezone. The second return is false when the
// identifier was not recognized and UTC was substituted; callers that care
// (batch runs) can log it, everyone else degrades silently instead of losing
// a user's notifications over a bad settings row.
func Location(tz string) (*time.Location, bool) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC, false
	}
	return loc, true
}

// LocalHour returns the hour (0..23) of the instant in the user's timezone.
func LocalHour(tz string, now time.Time) int {
	loc, _ := Location(tz)
	return now.In(loc).Hour()
}

// LocalWeekday returns the weekday (Sunday=0..Saturday=6) of the instant in
// the user's timezone.
func LocalWeekday(tz string, now time.Time) int {
	loc, _ := Location(tz)
	return int(now.In(loc).Weekday())
}

// LocalDateKey returns the user-local calendar date as YYYY-MM-DD. It is the
// dedup window key: one delivery per job type per date key.
func LocalDateKey(tz string, now time.Time) string {
	loc, _ := Location(tz)
	return now.In(loc).Format("2006-01-02")
}

// StartOfLocalDay returns midnight of the user-local day containing the
// instant, expressed in UTC. Ledger entries at or after it count as "today".
func StartOfLocalDay(tz string, now time.Time) time.Time {
	loc, _ := Location(tz)
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC()
}
