package timeline

import (
	"strings"

	"github.com/kalambet/fabula/internal/storage"
)

// Filter selects a subsequence of events. Every set field must match
// (logical AND); the zero Filter passes everything.
type Filter struct {
	Story     string // exact match
	Era       string // exact match
	Character string // case-insensitive list membership
	Category  string // case-insensitive list membership
	Keyword   string // case-insensitive substring over title, date_text, notes
}

// IsZero reports whether no criteria are set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Apply returns the events matching the filter, preserving input order.
// The input slice is never mutated.
func (f Filter) Apply(events []storage.Event) []storage.Event {
	if f.IsZero() {
		return events
	}
	out := make([]storage.Event, 0, len(events))
	for _, e := range events {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Matches reports whether a single event satisfies every set criterion.
func (f Filter) Matches(e storage.Event) bool {
	if f.Story != "" && strings.TrimSpace(e.Story) != f.Story {
		return false
	}
	if f.Era != "" && strings.TrimSpace(e.Era) != f.Era {
		return false
	}
	if f.Character != "" && !containsFold(e.Characters, f.Character) {
		return false
	}
	if f.Category != "" && !containsFold(e.Categories, f.Category) {
		return false
	}
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		blob := strings.ToLower(e.Title + "\n" + e.DateText + "\n" + e.Notes)
		if !strings.Contains(blob, kw) {
			return false
		}
	}
	return true
}

func containsFold(list []string, want string) bool {
	for _, v := range list {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
