// Package timeline holds the domain logic for narrative timeline events:
// validation, fuzzy date parsing, filtering, display ordering, and chart
// span derivation. Everything here is pure; storage mutation lives in the
// storage package.
package timeline

import (
	"fmt"
	"strings"

	"github.com/kalambet/fabula/internal/storage"
)

// ValidationError reports a required field missing on add/edit. The store
// is left untouched whenever one is returned.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// ValidateEvent checks the required fields (title, date_text).
func ValidateEvent(e storage.Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return &ValidationError{Field: "title"}
	}
	if strings.TrimSpace(e.DateText) == "" {
		return &ValidationError{Field: "date_text"}
	}
	return nil
}

// Normalize trims every string field and cleans the list fields. Blank
// optional fields become empty strings, never a literal placeholder.
func Normalize(e storage.Event) storage.Event {
	e.Title = strings.TrimSpace(e.Title)
	e.DateText = strings.TrimSpace(e.DateText)
	e.StartDate = strings.TrimSpace(e.StartDate)
	e.EndDate = strings.TrimSpace(e.EndDate)
	e.Era = strings.TrimSpace(e.Era)
	e.Story = strings.TrimSpace(e.Story)
	e.Notes = strings.TrimSpace(e.Notes)
	e.Characters = CleanList(e.Characters)
	e.Categories = CleanList(e.Categories)
	return e
}

// SplitList turns delimited form text into a clean name list. Both commas
// and semicolons split, so text pasted from a flattened CSV cell or a
// pre-filled form field parses the same way as typed input.
func SplitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})
	return CleanList(parts)
}

// NormalizeAll normalizes every event in an imported batch.
func NormalizeAll(events []storage.Event) []storage.Event {
	for i := range events {
		events[i] = Normalize(events[i])
	}
	return events
}

// CleanList trims entries, drops empties, and dedupes case-insensitively
// while preserving first-seen order and casing.
func CleanList(parts []string) []string {
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// JoinList renders a name list for display and CSV flattening.
func JoinList(parts []string) string {
	return strings.Join(parts, "; ")
}
