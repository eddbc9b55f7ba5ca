package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Event is one narrative timeline record. StartDate and EndDate are
// freeform ISO-like strings (YYYY, YYYY-MM, or YYYY-MM-DD); they are parsed
// lazily by the chart layer and never validated on write. Position is the
// insertion counter that preserves list order; it is internal and not part
// of the interchange format.
type Event struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	DateText   string   `json:"date_text"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Era        string   `json:"era"`
	Story      string   `json:"story"`
	Characters []string `json:"characters"`
	Categories []string `json:"categories"`
	Notes      string   `json:"notes"`
	SortIndex  int      `json:"sort_index"`
	Position   int64    `json:"-"`
}
