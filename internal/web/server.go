// Package web serves the browser UI: a card timeline with filters and
// forms, an SVG chart view, and import/export endpoints. It talks to the
// store directly and stays behind localhost like the rest of the server.
package web

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kalambet/fabula/internal/archive"
	"github.com/kalambet/fabula/internal/storage"
	"github.com/kalambet/fabula/internal/timeline"
)

const maxUploadSize = 10 << 20 // 10MB

type Server struct {
	store *storage.Store
	tmpl  *template.Template
}

func NewServer(store *storage.Store) (*Server, error) {
	if store == nil {
		return nil, errors.New("web: missing store")
	}

	tmpl, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return nil, err
	}
	if _, err := tmpl.New("edit").Parse(editHTML); err != nil {
		return nil, err
	}

	return &Server{store: store, tmpl: tmpl}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("POST /events", s.handleAddEvent)
	mux.HandleFunc("GET /events/{id}/edit", s.handleEditForm)
	mux.HandleFunc("POST /events/{id}/edit", s.handleEditEvent)
	mux.HandleFunc("POST /events/{id}/delete", s.handleDeleteEvent)
	mux.HandleFunc("POST /profile", s.handleProfile)
	mux.HandleFunc("GET /export.json", s.handleExportJSON)
	mux.HandleFunc("GET /export.csv", s.handleExportCSV)
	mux.HandleFunc("POST /import", s.handleImport)
	mux.HandleFunc("GET /static/app.css", s.handleCSS)
	return withSecurityHeaders(mux)
}

type eventCard struct {
	ID         string
	Title      string
	DateText   string
	StartDate  string
	EndDate    string
	Era        string
	Story      string
	Characters string
	Categories string
	Notes      string
	SortIndex  int
	Plottable  bool
}

type indexModel struct {
	SagaTitle  string
	Author     string
	View       string
	Filter     timeline.Filter
	Stories    []string
	Eras       []string
	Characters []string
	Categories []string
	Events     []eventCard
	Total      int
	Chart      template.HTML
	Message    string
	Error      string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	events, err := s.store.ListEvents()
	if err != nil {
		http.Error(w, "failed to list events", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	filter := timeline.Filter{
		Story:     q.Get("story"),
		Era:       q.Get("era"),
		Character: q.Get("character"),
		Category:  q.Get("category"),
		Keyword:   q.Get("q"),
	}

	filtered := timeline.SortForDisplay(filter.Apply(events))

	model := indexModel{
		View:    q.Get("view"),
		Filter:  filter,
		Total:   len(events),
		Message: q.Get("msg"),
		Error:   q.Get("err"),
	}
	if model.View != "chart" {
		model.View = "cards"
	}

	profile, err := s.store.GetAllProfileKeys()
	if err == nil {
		model.SagaTitle = profile["saga_title"]
		model.Author = profile["author"]
	}

	model.Stories, _ = s.store.DistinctStories()
	model.Eras, _ = s.store.DistinctEras()
	model.Characters, _ = s.store.DistinctCharacters()
	model.Categories, _ = s.store.DistinctCategories()

	for _, e := range filtered {
		_, _, startErr := timeline.ParseFuzzyDate(e.StartDate)
		_, _, endErr := timeline.ParseFuzzyDate(e.EndDate)
		model.Events = append(model.Events, eventCard{
			ID:         e.ID,
			Title:      e.Title,
			DateText:   e.DateText,
			StartDate:  e.StartDate,
			EndDate:    e.EndDate,
			Era:        e.Era,
			Story:      e.Story,
			Characters: timeline.JoinList(e.Characters),
			Categories: timeline.JoinList(e.Categories),
			Notes:      e.Notes,
			SortIndex:  e.SortIndex,
			Plottable:  startErr == nil || endErr == nil,
		})
	}

	if model.View == "chart" {
		model.Chart = renderChartSVG(timeline.ChartSpans(filter.Apply(events)))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = s.tmpl.ExecuteTemplate(w, "index", model)
}

func eventFromForm(r *http.Request) storage.Event {
	return timeline.Normalize(storage.Event{
		Title:      r.FormValue("title"),
		DateText:   r.FormValue("date_text"),
		StartDate:  r.FormValue("start_date"),
		EndDate:    r.FormValue("end_date"),
		Era:        r.FormValue("era"),
		Story:      r.FormValue("story"),
		Characters: timeline.SplitList(r.FormValue("characters")),
		Categories: timeline.SplitList(r.FormValue("categories")),
		Notes:      r.FormValue("notes"),
		SortIndex:  atoiOrZero(r.FormValue("sort_index")),
	})
}

func atoiOrZero(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	e := eventFromForm(r)
	e.ID = uuid.New().String()

	if err := timeline.ValidateEvent(e); err != nil {
		redirectWithError(w, r, "/", err.Error())
		return
	}
	if err := s.store.SaveEvent(e); err != nil {
		redirectWithError(w, r, "/", "failed to save event")
		return
	}
	redirectWithMessage(w, r, "/", fmt.Sprintf("Added %q", e.Title))
}

type editModel struct {
	Event      eventCard
	Characters string
	Categories string
	Error      string
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.GetEvent(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to get event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = s.tmpl.ExecuteTemplate(w, "edit", editModel{
		Event: eventCard{
			ID:        e.ID,
			Title:     e.Title,
			DateText:  e.DateText,
			StartDate: e.StartDate,
			EndDate:   e.EndDate,
			Era:       e.Era,
			Story:     e.Story,
			Notes:     e.Notes,
			SortIndex: e.SortIndex,
		},
		Characters: strings.Join(e.Characters, ", "),
		Categories: strings.Join(e.Categories, ", "),
		Error:      r.URL.Query().Get("err"),
	})
}

func (s *Server) handleEditEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := s.store.GetEvent(id)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to get event", http.StatusInternalServerError)
		return
	}

	e := eventFromForm(r)
	e.ID = existing.ID
	e.Position = existing.Position

	if err := timeline.ValidateEvent(e); err != nil {
		redirectWithError(w, r, "/events/"+url.PathEscape(id)+"/edit", err.Error())
		return
	}
	if err := s.store.UpdateEvent(e); err != nil {
		redirectWithError(w, r, "/", "failed to update event")
		return
	}
	redirectWithMessage(w, r, "/", fmt.Sprintf("Updated %q", e.Title))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteEvent(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		redirectWithError(w, r, "/", "event not found")
		return
	}
	if err != nil {
		redirectWithError(w, r, "/", "failed to delete event")
		return
	}
	redirectWithMessage(w, r, "/", "Event deleted")
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	for _, key := range []string{"saga_title", "author"} {
		if err := s.store.SetProfileKey(key, r.FormValue(key)); err != nil {
			redirectWithError(w, r, "/", "failed to update profile")
			return
		}
	}
	redirectWithMessage(w, r, "/", "Profile updated")
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents()
	if err != nil {
		http.Error(w, "failed to list events", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="fabula_timeline.json"`)
	_ = archive.WriteJSON(w, events)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents()
	if err != nil {
		http.Error(w, "failed to list events", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="fabula_timeline.csv"`)
	_ = archive.WriteCSV(w, events)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		redirectWithError(w, r, "/", "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		redirectWithError(w, r, "/", "no file selected")
		return
	}
	defer file.Close()

	events, err := readUpload(file, header.Filename)
	if err != nil {
		var ferr *archive.FormatError
		if errors.As(err, &ferr) {
			redirectWithError(w, r, "/", ferr.Error())
			return
		}
		redirectWithError(w, r, "/", "failed to read upload")
		return
	}

	mode := r.FormValue("mode")
	if mode != "merge" {
		mode = "replace"
	}

	if err := s.applyImport(events, mode); err != nil {
		redirectWithError(w, r, "/", "failed to import events")
		return
	}
	redirectWithMessage(w, r, "/", fmt.Sprintf("Imported %d events (%s)", len(events), mode))
}

// readUpload dispatches on the uploaded file's extension: .csv goes through
// the CSV reader, everything else is treated as JSON.
func readUpload(file io.Reader, name string) ([]storage.Event, error) {
	if strings.HasSuffix(strings.ToLower(name), ".csv") {
		return archive.ReadCSV(file)
	}
	return archive.ReadJSON(file)
}

func (s *Server) applyImport(events []storage.Event, mode string) error {
	events = timeline.NormalizeAll(events)

	if mode == "replace" {
		return s.store.ReplaceAllEvents(events)
	}
	for _, e := range events {
		_, err := s.store.GetEvent(e.ID)
		switch {
		case err == nil:
			if err := s.store.UpdateEvent(e); err != nil {
				return err
			}
		case errors.Is(err, storage.ErrNotFound):
			if err := s.store.SaveEvent(e); err != nil {
				return err
			}
		default:
			return err
		}
	}
	return nil
}

func (s *Server) handleCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(appCSS))
}

func redirectWithMessage(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?msg="+url.QueryEscape(msg), http.StatusSeeOther)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	sep := "?"
	if u, err := url.Parse(path); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	http.Redirect(w, r, path+sep+"err="+url.QueryEscape(msg), http.StatusSeeOther)
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; base-uri 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}
