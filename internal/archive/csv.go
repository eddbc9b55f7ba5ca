package archive

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kalambet/fabula/internal/storage"
	"github.com/kalambet/fabula/internal/timeline"
)

// csvHeader lists the interchange keys as CSV columns, in their canonical order.
var csvHeader = []string{
	"id", "title", "date_text", "start_date", "end_date",
	"era", "story", "characters", "categories", "notes", "sort_index",
}

// WriteCSV writes one row per event. List-valued fields are flattened with
// a semicolon delimiter between values.
func WriteCSV(w io.Writer, events []storage.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range events {
		row := []string{
			e.ID, e.Title, e.DateText, e.StartDate, e.EndDate,
			e.Era, e.Story,
			timeline.JoinList(e.Characters),
			timeline.JoinList(e.Categories),
			e.Notes,
			strconv.Itoa(e.SortIndex),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a CSV export back into events. List-valued fields are
// split on the semicolon delimiter on a best-effort basis: a semicolon
// inside a free-text value is indistinguishable from the delimiter, so
// such values do not round-trip losslessly (accepted limitation).
func ReadCSV(r io.Reader) ([]storage.Event, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, &FormatError{Detail: err.Error()}
	}
	if len(records) == 0 {
		return nil, &FormatError{Detail: "missing header row"}
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"title", "date_text"} {
		if _, ok := col[required]; !ok {
			return nil, &FormatError{Detail: fmt.Sprintf("missing required column %q", required)}
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	events := make([]storage.Event, 0, len(records)-1)
	for n, row := range records[1:] {
		e := storage.Event{
			ID:         field(row, "id"),
			Title:      field(row, "title"),
			DateText:   field(row, "date_text"),
			StartDate:  field(row, "start_date"),
			EndDate:    field(row, "end_date"),
			Era:        field(row, "era"),
			Story:      field(row, "story"),
			Characters: splitFlattened(field(row, "characters")),
			Categories: splitFlattened(field(row, "categories")),
			Notes:      field(row, "notes"),
		}
		if strings.TrimSpace(e.Title) == "" {
			return nil, &FormatError{Detail: fmt.Sprintf("row %d: missing required key %q", n+1, "title")}
		}
		if strings.TrimSpace(e.DateText) == "" {
			return nil, &FormatError{Detail: fmt.Sprintf("row %d: missing required key %q", n+1, "date_text")}
		}
		if raw := strings.TrimSpace(field(row, "sort_index")); raw != "" {
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return nil, &FormatError{Detail: fmt.Sprintf("row %d: sort_index %q is not an integer", n+1, raw)}
			}
			e.SortIndex = idx
		}
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		events = append(events, e)
	}
	return events, nil
}

func splitFlattened(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ";")
	return timeline.CleanList(parts)
}
