package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for timeline events and the
// timeline profile.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "fabula.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Events ---

const eventColumns = "id, title, date_text, start_date, end_date, era, story, characters, categories, notes, sort_index, position"

// SaveEvent inserts a new event at the end of the insertion order.
func (s *Store) SaveEvent(e Event) error {
	characters, categories, err := marshalLists(e)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRow("SELECT COALESCE(MAX(position), 0) + 1 FROM events").Scan(&next); err != nil {
		return fmt.Errorf("allocating position: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.DateText, e.StartDate, e.EndDate, e.Era, e.Story,
		characters, categories, e.Notes, e.SortIndex, next,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// GetEvent returns a single event by id, or ErrNotFound.
func (s *Store) GetEvent(id string) (Event, error) {
	row := s.db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, err
	}
	return e, nil
}

// UpdateEvent replaces every field of the event except id and position.
// Returns ErrNotFound if the id does not resolve to a record.
func (s *Store) UpdateEvent(e Event) error {
	characters, categories, err := marshalLists(e)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		UPDATE events
		SET title = ?, date_text = ?, start_date = ?, end_date = ?, era = ?, story = ?,
		    characters = ?, categories = ?, notes = ?, sort_index = ?
		WHERE id = ?`,
		e.Title, e.DateText, e.StartDate, e.EndDate, e.Era, e.Story,
		characters, categories, e.Notes, e.SortIndex, e.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvent removes an event. Returns ErrNotFound if the id is absent;
// the store is never altered in that case, so repeated deletes are safe.
func (s *Store) DeleteEvent(id string) error {
	res, err := s.db.Exec(`DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEvents returns all events in insertion order.
func (s *Store) ListEvents() ([]Event, error) {
	rows, err := s.db.Query(`SELECT ` + eventColumns + ` FROM events ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// CountEvents returns the number of stored events.
func (s *Store) CountEvents() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n)
	return n, err
}

// ReplaceAllEvents atomically replaces the whole store with the given
// events, assigning positions in slice order. Used by JSON import in
// replace mode: either every event lands or the existing store is untouched.
func (s *Store) ReplaceAllEvents(events []Event) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM events"); err != nil {
		return fmt.Errorf("clearing events: %w", err)
	}

	for i, e := range events {
		characters, categories, err := marshalLists(e)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO events (`+eventColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Title, e.DateText, e.StartDate, e.EndDate, e.Era, e.Story,
			characters, categories, e.Notes, e.SortIndex, int64(i+1),
		); err != nil {
			return fmt.Errorf("inserting event %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// DistinctStories returns the sorted set of non-empty story labels.
func (s *Store) DistinctStories() ([]string, error) {
	return s.distinctColumn("story")
}

// DistinctEras returns the sorted set of non-empty era labels.
func (s *Store) DistinctEras() ([]string, error) {
	return s.distinctColumn("era")
}

func (s *Store) distinctColumn(column string) ([]string, error) {
	// column is one of two fixed identifiers; never user input.
	rows, err := s.db.Query("SELECT DISTINCT " + column + " FROM events WHERE " + column + " != '' ORDER BY " + column + " ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// DistinctCharacters returns the sorted set of character names across all events.
func (s *Store) DistinctCharacters() ([]string, error) {
	return s.distinctListColumn("characters")
}

// DistinctCategories returns the sorted set of category tags across all events.
func (s *Store) DistinctCategories() ([]string, error) {
	return s.distinctListColumn("categories")
}

func (s *Store) distinctListColumn(column string) ([]string, error) {
	rows, err := s.db.Query("SELECT " + column + " FROM events")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var values []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("parsing %s column: %w", column, err)
		}
		for _, v := range list {
			if v != "" && !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(values)
	return values, nil
}

func marshalLists(e Event) (characters, categories string, err error) {
	cb, err := json.Marshal(emptyIfNil(e.Characters))
	if err != nil {
		return "", "", fmt.Errorf("marshalling characters: %w", err)
	}
	gb, err := json.Marshal(emptyIfNil(e.Categories))
	if err != nil {
		return "", "", fmt.Errorf("marshalling categories: %w", err)
	}
	return string(cb), string(gb), nil
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (Event, error) {
	var e Event
	var characters, categories string
	if err := row.Scan(
		&e.ID, &e.Title, &e.DateText, &e.StartDate, &e.EndDate, &e.Era, &e.Story,
		&characters, &categories, &e.Notes, &e.SortIndex, &e.Position,
	); err != nil {
		return Event{}, err
	}
	if err := json.Unmarshal([]byte(characters), &e.Characters); err != nil {
		return Event{}, fmt.Errorf("parsing characters for event %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(categories), &e.Categories); err != nil {
		return Event{}, fmt.Errorf("parsing categories for event %s: %w", e.ID, err)
	}
	return e, nil
}

// --- Timeline profile ---

// SetProfileKey upserts a timeline profile value (saga title, author, ...).
func (s *Store) SetProfileKey(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO timeline_profile (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetProfileKey returns a single profile value, or ErrNotFound.
func (s *Store) GetProfileKey(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM timeline_profile WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// GetAllProfileKeys returns the full timeline profile as a map.
func (s *Store) GetAllProfileKeys() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM timeline_profile")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, rows.Err()
}
