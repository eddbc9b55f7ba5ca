package timeline

import (
	"testing"

	"github.com/kalambet/fabula/internal/storage"
)

func testEvents() []storage.Event {
	return []storage.Event{
		{
			ID: "1", Title: "Founding", DateText: "Year of Ash", Story: "Overmorrow",
			Era: "Sepia Age", Characters: []string{"Maren"}, Categories: []string{"politics"},
			Notes: "The city rises.",
		},
		{
			ID: "2", Title: "War Begins", DateText: "Second Spring", Story: "Overmorrow",
			Era: "Iron Age", Characters: []string{"Tobias", "Maren"}, Categories: []string{"war"},
			Notes: "Border skirmish escalates.",
		},
		{
			ID: "3", Title: "The Long Voyage", DateText: "Spring 1842", Story: "Stelo Vienas",
			Era: "Sepia Age", Characters: []string{"Ilse"}, Categories: []string{"travel", "war"},
			Notes: "",
		},
	}
}

func ids(events []storage.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestFilter_Zero(t *testing.T) {
	events := testEvents()
	got := Filter{}.Apply(events)
	if len(got) != len(events) {
		t.Errorf("zero filter: got %d events, want %d", len(got), len(events))
	}
}

func TestFilter_Apply(t *testing.T) {
	events := testEvents()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"story exact", Filter{Story: "Overmorrow"}, []string{"1", "2"}},
		{"era exact", Filter{Era: "Sepia Age"}, []string{"1", "3"}},
		{"character membership", Filter{Character: "maren"}, []string{"1", "2"}},
		{"category membership", Filter{Category: "War"}, []string{"2", "3"}},
		{"keyword in title", Filter{Keyword: "voyage"}, []string{"3"}},
		{"keyword in date_text", Filter{Keyword: "second spring"}, []string{"2"}},
		{"keyword in notes", Filter{Keyword: "CITY"}, []string{"1"}},
		{"AND combination", Filter{Story: "Overmorrow", Category: "war"}, []string{"2"}},
		{"AND excludes all", Filter{Story: "Stelo Vienas", Character: "Maren"}, []string{}},
		{"keyword not in story field", Filter{Keyword: "overmorrow"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(tt.filter.Apply(events))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
			// Every event left out must fail at least one predicate.
			matched := make(map[string]bool)
			for _, id := range got {
				matched[id] = true
			}
			for _, e := range events {
				if !matched[e.ID] && tt.filter.Matches(e) {
					t.Errorf("event %s matches but was excluded", e.ID)
				}
			}
		})
	}
}

func TestFilter_DoesNotMutate(t *testing.T) {
	events := testEvents()
	before := ids(events)
	Filter{Story: "Overmorrow"}.Apply(events)
	after := ids(events)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("input mutated: %v -> %v", before, after)
		}
	}
}
