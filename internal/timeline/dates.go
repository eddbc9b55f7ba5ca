package timeline

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the precision a fuzzy date string was supplied at.
type Granularity int

const (
	GranularityDay Granularity = iota
	GranularityMonth
	GranularityYear
)

func (g Granularity) String() string {
	switch g {
	case GranularityDay:
		return "day"
	case GranularityMonth:
		return "month"
	case GranularityYear:
		return "year"
	}
	return "unknown"
}

// dateLayouts are tried most-specific first, mirroring the accepted input
// granularities YYYY-MM-DD, YYYY-MM, YYYY.
var dateLayouts = []struct {
	layout      string
	granularity Granularity
}{
	{"2006-01-02", GranularityDay},
	{"2006-01", GranularityMonth},
	{"2006", GranularityYear},
}

// ParseFuzzyDate parses an ISO-like date string at whichever granularity it
// was supplied. Year-only values resolve to January 1 of that year and
// year-month values to the first of that month, both at UTC midnight.
// Anything else fails; callers treat the failure as non-fatal and exclude
// the event from chart plotting only.
func ParseFuzzyDate(s string) (time.Time, Granularity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, 0, fmt.Errorf("empty date")
	}
	for _, l := range dateLayouts {
		if t, err := time.ParseInLocation(l.layout, s, time.UTC); err == nil {
			return t, l.granularity, nil
		}
	}
	return time.Time{}, 0, fmt.Errorf("date %q does not match YYYY, YYYY-MM, or YYYY-MM-DD", s)
}
