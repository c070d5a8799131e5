package utils

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// NormalizeDate parses a registry date in any of the common WHOIS/RDAP layouts
// and renders it as RFC3339 in UTC. ok is false when the value cannot be parsed;
// callers keep the raw string in that case.
func NormalizeDate(raw string) (string, time.Time, bool) {
	v := strings.TrimSpace(raw)
	if !strings.ContainsAny(v, "0123456789") {
		return raw, time.Time{}, false
	}
	// Some registries append a zone label after the offset, e.g. "2020-01-01 00:00:00 (UTC+8)".
	if i := strings.Index(v, " ("); i > 0 {
		v = v[:i]
	}
	t, err := dateparse.ParseIn(v, time.UTC)
	if err != nil {
		return raw, time.Time{}, false
	}
	t = t.UTC()
	return t.Format(time.RFC3339), t, true
}

// YearsSince returns the number of whole calendar years between from and now.
func YearsSince(from, now time.Time) int {
	from, now = from.UTC(), now.UTC()
	years := now.Year() - from.Year()
	if now.Month() < from.Month() || (now.Month() == from.Month() && now.Day() < from.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// DaysUntil returns whole days from now until to. Future spans drop the partial day;
// past spans round down, so any moment after to gives a negative count.
func DaysUntil(to, now time.Time) int {
	d := to.Sub(now)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// DerivedAges computes domainAge and remainingDays from normalized dates.
// Either pointer is nil when its input date did not parse.
func DerivedAges(created, expires string, now time.Time) (*int, *int) {
	var age, remaining *int
	if _, t, ok := NormalizeDate(created); ok {
		v := YearsSince(t, now)
		age = &v
	}
	if _, t, ok := NormalizeDate(expires); ok {
		v := DaysUntil(t, now)
		remaining = &v
	}
	return age, remaining
}
