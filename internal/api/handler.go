// Package api exposes the timeline management surface: a chi REST API
// consumed by the CLI (and the web UI's fetches) plus an MCP server for
// agent integration.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/fabula/internal/archive"
	"github.com/kalambet/fabula/internal/storage"
	"github.com/kalambet/fabula/internal/timeline"
)

const maxRequestBodySize = 1 << 20  // 1MB
const maxImportBodySize = 10 << 20 // 10MB

// Deps holds dependencies for the management API handler.
type Deps struct {
	Store *storage.Store
	Token string
}

// EventRequest is the create payload: the interchange fields minus id.
type EventRequest struct {
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
}

// EventPatch updates any subset of fields; nil means unchanged.
type EventPatch struct {
	Title      *string   `json:"title"`
	DateText   *string   `json:"date_text"`
	StartDate  *string   `json:"start_date"`
	EndDate    *string   `json:"end_date"`
	Era        *string   `json:"era"`
	Story      *string   `json:"story"`
	Characters *[]string `json:"characters"`
	Categories *[]string `json:"categories"`
	Notes      *string   `json:"notes"`
	SortIndex  *int      `json:"sort_index"`
}

// NewHandler returns the HTTP handler for /health and the authenticated
// /api subtree.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/events", handleListEvents(deps))
		r.Post("/events", handleCreateEvent(deps))
		r.Get("/events/{id}", handleGetEvent(deps))
		r.Patch("/events/{id}", handlePatchEvent(deps))
		r.Delete("/events/{id}", handleDeleteEvent(deps))
		r.Get("/chart", handleChart(deps))
		r.Get("/export/json", handleExportJSON(deps))
		r.Get("/export/csv", handleExportCSV(deps))
		r.Post("/import/json", handleImportJSON(deps))
		r.Get("/profile", handleGetProfile(deps))
		r.Patch("/profile", handlePatchProfile(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// filterFromQuery maps the filter query params (story, era, character,
// category, q) onto a timeline.Filter.
func filterFromQuery(r *http.Request) timeline.Filter {
	q := r.URL.Query()
	return timeline.Filter{
		Story:     q.Get("story"),
		Era:       q.Get("era"),
		Character: q.Get("character"),
		Category:  q.Get("category"),
		Keyword:   q.Get("q"),
	}
}

func handleListEvents(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := deps.Store.ListEvents()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list events: %v", err)
			return
		}

		events = timeline.SortForDisplay(filterFromQuery(r).Apply(events))
		if events == nil {
			events = []storage.Event{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(events)
	}
}

func handleCreateEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req EventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		e := timeline.Normalize(storage.Event{
			ID:         uuid.New().String(),
			Title:      req.Title,
			DateText:   req.DateText,
			StartDate:  req.StartDate,
			EndDate:    req.EndDate,
			Era:        req.Era,
			Story:      req.Story,
			Characters: req.Characters,
			Categories: req.Categories,
			Notes:      req.Notes,
			SortIndex:  req.SortIndex,
		})
		if err := timeline.ValidateEvent(e); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.SaveEvent(e); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save event: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(e)
	}
}

func handleGetEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		e, err := deps.Store.GetEvent(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "event not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get event: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(e)
	}
}

func handlePatchEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var patch EventPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		e, err := deps.Store.GetEvent(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "event not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get event: %v", err)
			return
		}

		applyPatch(&e, patch)
		e = timeline.Normalize(e)
		if err := timeline.ValidateEvent(e); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		if err := deps.Store.UpdateEvent(e); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found", "event not found")
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update event: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(e)
	}
}

func applyPatch(e *storage.Event, p EventPatch) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.DateText != nil {
		e.DateText = *p.DateText
	}
	if p.StartDate != nil {
		e.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		e.EndDate = *p.EndDate
	}
	if p.Era != nil {
		e.Era = *p.Era
	}
	if p.Story != nil {
		e.Story = *p.Story
	}
	if p.Characters != nil {
		e.Characters = *p.Characters
	}
	if p.Categories != nil {
		e.Categories = *p.Categories
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	if p.SortIndex != nil {
		e.SortIndex = *p.SortIndex
	}
}

func handleDeleteEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteEvent(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "event not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete event: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleChart(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := deps.Store.ListEvents()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list events: %v", err)
			return
		}

		spans := timeline.ChartSpans(filterFromQuery(r).Apply(events))
		if spans == nil {
			spans = []timeline.Span{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(spans)
	}
}

func handleExportJSON(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := deps.Store.ListEvents()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list events: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="fabula_timeline.json"`)
		if err := archive.WriteJSON(w, events); err != nil {
			// Headers already sent; nothing sensible left to do.
			return
		}
	}
}

func handleExportCSV(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := deps.Store.ListEvents()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list events: %v", err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="fabula_timeline.csv"`)
		if err := archive.WriteCSV(w, events); err != nil {
			return
		}
	}
}

func handleImportJSON(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
		defer r.Body.Close()

		mode := r.URL.Query().Get("mode")
		if mode == "" {
			mode = "replace"
		}
		if mode != "replace" && mode != "merge" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "mode must be replace or merge")
			return
		}

		events, err := archive.ReadJSON(r.Body)
		if err != nil {
			var ferr *archive.FormatError
			if errors.As(err, &ferr) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", ferr)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "failed to read import: %v", err)
			return
		}

		count, err := importEvents(deps.Store, events, mode)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to import events: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "imported", "mode": mode, "count": count})
	}
}

// importEvents applies a parsed import. Replace swaps the whole store
// atomically; merge appends new ids and overwrites colliding ones in place.
func importEvents(store *storage.Store, events []storage.Event, mode string) (int, error) {
	events = timeline.NormalizeAll(events)

	if mode == "replace" {
		if err := store.ReplaceAllEvents(events); err != nil {
			return 0, err
		}
		return len(events), nil
	}

	for _, e := range events {
		_, err := store.GetEvent(e.ID)
		switch {
		case err == nil:
			if err := store.UpdateEvent(e); err != nil {
				return 0, fmt.Errorf("updating event %s: %w", e.ID, err)
			}
		case errors.Is(err, storage.ErrNotFound):
			if err := store.SaveEvent(e); err != nil {
				return 0, fmt.Errorf("saving event %s: %w", e.ID, err)
			}
		default:
			return 0, err
		}
	}
	return len(events), nil
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Store.GetAllProfileKeys()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}
}

func handlePatchProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var fields map[string]string
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		for key, value := range fields {
			if err := deps.Store.SetProfileKey(key, value); err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to set field %q: %v", key, err)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
