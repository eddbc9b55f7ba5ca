package storage

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEvent(id string) Event {
	return Event{
		ID:         id,
		Title:      "The Founding",
		DateText:   "Year of Ash",
		StartDate:  "1997",
		EndDate:    "1997-03",
		Era:        "Sepia Age",
		Story:      "Overmorrow",
		Characters: []string{"Maren", "Tobias"},
		Categories: []string{"politics", "war"},
		Notes:      "The city is founded on the ash plain.",
		SortIndex:  1,
	}
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestIndexesExist verifies the events indexes are created by the migration.
func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	indexes := []string{"idx_events_position", "idx_events_story", "idx_events_era"}
	for _, idx := range indexes {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master for %q: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("index %q not found in sqlite_master", idx)
		}
	}
}

// TestSaveAndGetEvent saves an event and retrieves it by ID with all fields intact.
func TestSaveAndGetEvent(t *testing.T) {
	s := openTestStore(t)

	want := sampleEvent("ev-001")
	if err := s.SaveEvent(want); err != nil {
		t.Fatalf("SaveEvent: %v", err)
	}

	got, err := s.GetEvent("ev-001")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	want.Position = got.Position
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetEvent = %+v, want %+v", got, want)
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetEvent("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEvent(missing) err = %v, want ErrNotFound", err)
	}
}

// TestListEvents_InsertionOrder verifies list order follows save order,
// not id or title order.
func TestListEvents_InsertionOrder(t *testing.T) {
	s := openTestStore(t)

	ids := []string{"z-last-id", "a-first-id", "m-mid-id"}
	for _, id := range ids {
		e := sampleEvent(id)
		e.Title = "event " + id
		if err := s.SaveEvent(e); err != nil {
			t.Fatalf("SaveEvent(%s): %v", id, err)
		}
	}

	events, err := s.ListEvents()
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	for i, id := range ids {
		if events[i].ID != id {
			t.Errorf("events[%d].ID = %q, want %q", i, events[i].ID, id)
		}
	}
}

func TestUpdateEvent(t *testing.T) {
	s := openTestStore(t)

	e := sampleEvent("ev-001")
	if err := s.SaveEvent(e); err != nil {
		t.Fatalf("SaveEvent: %v", err)
	}

	e.Title = "The Second Founding"
	e.SortIndex = 3
	e.Characters = []string{"Maren"}
	if err := s.UpdateEvent(e); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}

	got, err := s.GetEvent("ev-001")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if got.Title != "The Second Founding" || got.SortIndex != 3 {
		t.Errorf("updated event = %+v", got)
	}
	if !reflect.DeepEqual(got.Characters, []string{"Maren"}) {
		t.Errorf("Characters = %v, want [Maren]", got.Characters)
	}
}

func TestUpdateEvent_NotFound(t *testing.T) {
	s := openTestStore(t)

	err := s.UpdateEvent(sampleEvent("missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateEvent(missing) err = %v, want ErrNotFound", err)
	}
}

// TestDeleteEvent_Idempotent deletes a missing id twice: both attempts fail
// with ErrNotFound and the store is never altered.
func TestDeleteEvent_Idempotent(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveEvent(sampleEvent("keep")); err != nil {
		t.Fatalf("SaveEvent: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.DeleteEvent("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("delete attempt %d: err = %v, want ErrNotFound", i+1, err)
		}
	}

	n, err := s.CountEvents()
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if n != 1 {
		t.Errorf("CountEvents = %d, want 1", n)
	}
}

func TestDeleteEvent(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveEvent(sampleEvent("ev-001")); err != nil {
		t.Fatalf("SaveEvent: %v", err)
	}
	if err := s.DeleteEvent("ev-001"); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if _, err := s.GetEvent("ev-001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEvent after delete: err = %v, want ErrNotFound", err)
	}
}

// TestReplaceAllEvents verifies the import path swaps the full store and
// reassigns positions in slice order.
func TestReplaceAllEvents(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveEvent(sampleEvent("old")); err != nil {
		t.Fatalf("SaveEvent: %v", err)
	}

	incoming := []Event{sampleEvent("new-b"), sampleEvent("new-a")}
	if err := s.ReplaceAllEvents(incoming); err != nil {
		t.Fatalf("ReplaceAllEvents: %v", err)
	}

	events, err := s.ListEvents()
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].ID != "new-b" || events[1].ID != "new-a" {
		t.Errorf("order after replace = [%s %s], want [new-b new-a]", events[0].ID, events[1].ID)
	}
	if _, err := s.GetEvent("old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old event should be gone, got err = %v", err)
	}
}

func TestDistinctValues(t *testing.T) {
	s := openTestStore(t)

	for i, story := range []string{"Overmorrow", "Stelo Vienas", "Overmorrow", ""} {
		e := sampleEvent(fmt.Sprintf("ev-%03d", i))
		e.Story = story
		e.Era = ""
		e.Characters = []string{"Maren", "Ilse"}
		e.Categories = nil
		if err := s.SaveEvent(e); err != nil {
			t.Fatalf("SaveEvent: %v", err)
		}
	}

	stories, err := s.DistinctStories()
	if err != nil {
		t.Fatalf("DistinctStories: %v", err)
	}
	if !reflect.DeepEqual(stories, []string{"Overmorrow", "Stelo Vienas"}) {
		t.Errorf("DistinctStories = %v", stories)
	}

	eras, err := s.DistinctEras()
	if err != nil {
		t.Fatalf("DistinctEras: %v", err)
	}
	if len(eras) != 0 {
		t.Errorf("DistinctEras = %v, want empty", eras)
	}

	chars, err := s.DistinctCharacters()
	if err != nil {
		t.Fatalf("DistinctCharacters: %v", err)
	}
	if !reflect.DeepEqual(chars, []string{"Ilse", "Maren"}) {
		t.Errorf("DistinctCharacters = %v", chars)
	}

	cats, err := s.DistinctCategories()
	if err != nil {
		t.Fatalf("DistinctCategories: %v", err)
	}
	if len(cats) != 0 {
		t.Errorf("DistinctCategories = %v, want empty", cats)
	}
}

func TestProfileKeys(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetProfileKey("saga_title", "Overmorrow Chronicle"); err != nil {
		t.Fatalf("SetProfileKey: %v", err)
	}
	if err := s.SetProfileKey("saga_title", "Stelo Vienas Chronicle"); err != nil {
		t.Fatalf("SetProfileKey (upsert): %v", err)
	}

	v, err := s.GetProfileKey("saga_title")
	if err != nil {
		t.Fatalf("GetProfileKey: %v", err)
	}
	if v != "Stelo Vienas Chronicle" {
		t.Errorf("GetProfileKey = %q", v)
	}

	if _, err := s.GetProfileKey("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProfileKey(missing) err = %v, want ErrNotFound", err)
	}

	all, err := s.GetAllProfileKeys()
	if err != nil {
		t.Fatalf("GetAllProfileKeys: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("GetAllProfileKeys = %v", all)
	}
}
