package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/samber/mo"

	"caldesign/internal/calendar"
	"caldesign/internal/cover"
	"caldesign/internal/export"
	"caldesign/internal/ics"
	appLog "caldesign/internal/log"
	"caldesign/internal/model"
	"caldesign/internal/templates"
)

func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, templates.All())
}

func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot().response())
}

func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	var u stateUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid state body: "+err.Error())
		return
	}

	s.sessionMu.Lock()
	next, err := s.session.apply(u)
	if err == nil {
		s.session = next
	}
	s.sessionMu.Unlock()

	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, next.response())
}

// eventsResponse is the JSON shape of GET /api/events.
type eventsResponse struct {
	Year   int           `json:"year"`
	Month  int           `json:"month"`
	Events []model.Event `json:"events"`
}

// monthFromQuery reads year and zero-based month, defaulting to the session.
func (s *Server) monthFromQuery(r *http.Request) (int, int, error) {
	sess := s.snapshot()
	year, month := sess.Year, sess.Month
	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("web: year %q: %w", v, calendar.ErrInvalidInput)
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("web: month %q: %w", v, calendar.ErrInvalidInput)
		}
		month = n
	}
	if _, _, err := calendar.MonthBounds(year, month); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.monthFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, err := calendar.EventsInMonth(s.store.Snapshot(), year, month)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Year: year, Month: month, Events: events})
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	if err := decodeJSON(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body: "+err.Error())
		return
	}
	ev.Source = ""
	added, err := s.store.Add(ev)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Info("event added", "id", added.ID, "date", added.Date, "category", added.Category)
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.Remove(id) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	appLog.Info("event removed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEventsICS(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.monthFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, err := calendar.EventsInMonth(s.store.Snapshot(), year, month)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	first, _, _ := calendar.MonthBounds(year, month)
	var buf bytes.Buffer
	if err := ics.WriteICS(&buf, first.Time().Format("January 2006"), events, s.now()); err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to write calendar")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="calendar-%d-%02d.ics"`, year, month+1))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleGrid(w http.ResponseWriter, _ *http.Request) {
	l, err := s.layout(s.snapshot())
	if err != nil {
		appLog.Error("compose failed", err)
		writeError(w, http.StatusInternalServerError, "failed to compose calendar")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	html, err := s.pageHTML(s.snapshot())
	if err != nil {
		appLog.Error("render failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render calendar")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (s *Server) handleUploadCover(w http.ResponseWriter, r *http.Request) {
	img, err := cover.Decode(r.Body)
	switch {
	case errors.Is(err, cover.ErrTooLarge), errors.Is(err, cover.ErrTooManyPixels):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, cover.ErrUnsupported):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.sessionMu.Lock()
	s.session.Cover = mo.Some(img)
	s.session.CoverTransform = cover.Transform{}.Normalize()
	resp := s.session.response()
	s.sessionMu.Unlock()

	appLog.Info("cover uploaded", "width", img.Width, "height", img.Height)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCoverTransform(w http.ResponseWriter, r *http.Request) {
	var t cover.Transform
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid transform body: "+err.Error())
		return
	}

	s.sessionMu.Lock()
	s.session.CoverTransform = t.Normalize()
	resp := s.session.response()
	s.sessionMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteCover(w http.ResponseWriter, _ *http.Request) {
	s.sessionMu.Lock()
	s.session.Cover = mo.None[cover.Image]()
	s.session.CoverTransform = cover.Transform{}.Normalize()
	resp := s.session.response()
	s.sessionMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	opts, err := s.exportOptions(r.URL.Query().Get("format"), r.URL.Query().Get("quality"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.snapshot()
	data, err := s.exportSession(r.Context(), sess, opts)
	if err != nil {
		appLog.Error("export failed", err, "format", opts.Format, "quality", opts.Quality)
		writeError(w, http.StatusInternalServerError, "Export failed. Please try again.")
		return
	}

	name := export.FileName(sess.Year, sess.Month, opts.Format)
	w.Header().Set("Content-Type", opts.Format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	summary := s.Refresh(r.Context())
	writeJSON(w, http.StatusOK, summary)
}
