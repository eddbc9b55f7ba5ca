package timeline

import (
	"sort"

	"github.com/kalambet/fabula/internal/storage"
)

// SortForDisplay orders events ascending by sort_index; equal indexes keep
// their relative input order (the store hands events over in insertion
// order, so ties fall back to it). Returns a new slice.
func SortForDisplay(events []storage.Event) []storage.Event {
	out := make([]storage.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortIndex < out[j].SortIndex
	})
	return out
}
