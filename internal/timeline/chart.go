package timeline

import (
	"sort"
	"time"

	"github.com/kalambet/fabula/internal/storage"
)

// Span is one plottable chart entry derived from an event's parsed dates.
type Span struct {
	EventID    string    `json:"event_id"`
	Title      string    `json:"title"`
	Story      string    `json:"story"`
	Era        string    `json:"era"`
	Categories []string  `json:"categories"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// ChartSpans derives the plottable spans for the chart view. The start is
// the parsed start_date, falling back to end_date when start_date is absent
// or unparseable; the end falls back to the start for point events. Events
// without any parseable date are silently omitted — they stay visible in
// the card view. Spans come back ordered along the time axis.
func ChartSpans(events []storage.Event) []Span {
	spans := make([]Span, 0, len(events))
	for _, e := range events {
		start, _, err := ParseFuzzyDate(e.StartDate)
		if err != nil {
			start, _, err = ParseFuzzyDate(e.EndDate)
			if err != nil {
				continue
			}
		}
		end, _, err := ParseFuzzyDate(e.EndDate)
		if err != nil || end.Before(start) {
			end = start
		}
		spans = append(spans, Span{
			EventID:    e.ID,
			Title:      e.Title,
			Story:      e.Story,
			Era:        e.Era,
			Categories: e.Categories,
			Start:      start,
			End:        end,
		})
	}
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start.Before(spans[j].Start)
	})
	return spans
}
