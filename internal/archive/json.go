// Package archive converts the event store to and from its interchange
// representations: a JSON list (full fidelity) and a flat CSV table.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/kalambet/fabula/internal/storage"
)

// FormatError reports structurally invalid import input: malformed syntax,
// a non-list top level, wrong field types, or a missing required key. The
// import is aborted and the existing store left unchanged.
type FormatError struct {
	Detail string
}

func (e *FormatError) Error() string {
	return "invalid timeline data: " + e.Detail
}

// WriteJSON writes the events as an indented JSON list with the interchange
// keys (id, title, date_text, start_date, end_date, era, story, characters,
// categories, notes, sort_index).
func WriteJSON(w io.Writer, events []storage.Event) error {
	if events == nil {
		events = []storage.Event{}
	}
	for i := range events {
		if events[i].Characters == nil {
			events[i].Characters = []string{}
		}
		if events[i].Categories == nil {
			events[i].Categories = []string{}
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

// ReadJSON parses a JSON event list. Unknown keys are ignored; missing
// optional keys default to absent/empty; events without an id are assigned
// a fresh one. Returns *FormatError on malformed input, a wrong top-level
// shape, mistyped fields, or a blank required field.
func ReadJSON(r io.Reader) ([]storage.Event, error) {
	var events []storage.Event
	dec := json.NewDecoder(r)
	if err := dec.Decode(&events); err != nil {
		return nil, &FormatError{Detail: err.Error()}
	}
	// A top-level null decodes to a nil slice without error. Treating it as
	// an empty list would let a replace-mode import wipe the store.
	if events == nil {
		return nil, &FormatError{Detail: "top-level value is not a list"}
	}
	for i := range events {
		if strings.TrimSpace(events[i].Title) == "" {
			return nil, &FormatError{Detail: fmt.Sprintf("event %d: missing required key %q", i, "title")}
		}
		if strings.TrimSpace(events[i].DateText) == "" {
			return nil, &FormatError{Detail: fmt.Sprintf("event %d: missing required key %q", i, "date_text")}
		}
		if events[i].ID == "" {
			events[i].ID = uuid.New().String()
		}
	}
	return events, nil
}
