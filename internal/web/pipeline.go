package web

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caldesign/internal/calendar"
	"caldesign/internal/export"
	"caldesign/internal/ics"
	appLog "caldesign/internal/log"
	"caldesign/internal/model"
	"caldesign/internal/render"
)

// ErrNoExporter is returned when export is requested without a browser.
var ErrNoExporter = errors.New("web: no exporter configured")

// Months imported around the session month on each refresh.
const (
	refreshMonthsBack  = 6
	refreshMonthsAhead = 12
)

func (s *Server) layout(sess session) (calendar.Layout, error) {
	return calendar.Compose(calendar.Input{
		Year:     sess.Year,
		Month:    sess.Month,
		StartDay: sess.StartDay,
		Events:   s.store.Snapshot(),
		Today:    s.today(),
	})
}

func (s *Server) pageHTML(sess session) ([]byte, error) {
	l, err := s.layout(sess)
	if err != nil {
		return nil, err
	}
	page := render.Page{
		Layout:          l,
		Template:        sess.Template,
		WeekendsColored: sess.WeekendsColored,
	}
	if img, ok := sess.Cover.Get(); ok {
		page.CoverURL = img.DataURL
		page.CoverTransform = sess.CoverTransform.CSS()
	}
	return render.HTML(page)
}

// exportOptions resolves request overrides against the configured defaults.
func (s *Server) exportOptions(format, quality string) (export.Options, error) {
	if format == "" {
		format = s.cfg.Export.Format
	}
	if quality == "" {
		quality = s.cfg.Export.Quality
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return export.Options{}, err
	}
	q, err := export.ParseQuality(quality)
	if err != nil {
		return export.Options{}, err
	}
	size, err := export.ParsePageSize(s.cfg.Export.PageSize)
	if err != nil {
		return export.Options{}, err
	}
	orient, err := export.ParseOrientation(s.cfg.Export.Orientation)
	if err != nil {
		return export.Options{}, err
	}
	return export.Options{
		Format:        f,
		Quality:       q,
		PageSize:      size,
		Orientation:   orient,
		SheetWidthMM:  render.SheetWidthMM,
		SheetHeightMM: render.SheetHeightMM,
	}, nil
}

// exportSession renders sess and hands the page to the exporter.
func (s *Server) exportSession(ctx context.Context, sess session, opts export.Options) ([]byte, error) {
	if s.exporter == nil {
		return nil, ErrNoExporter
	}
	html, err := s.pageHTML(sess)
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(ctx, html, opts)
}

// ExportMonth exports a zero-based month with the session's other choices
// into dir and returns the written path. An empty format uses the
// configured default.
func (s *Server) ExportMonth(ctx context.Context, year, month int, format, dir string) (string, error) {
	opts, err := s.exportOptions(format, "")
	if err != nil {
		return "", err
	}
	sess := s.snapshot()
	sess.Year, sess.Month = year, month
	if _, _, err := calendar.MonthBounds(year, month); err != nil {
		return "", err
	}

	data, err := s.exportSession(ctx, sess, opts)
	if err != nil {
		return "", err
	}
	path, err := export.WriteFile(dir, export.FileName(year, month, opts.Format), data)
	if err != nil {
		return "", err
	}
	appLog.Info("export written", "path", path, "bytes", len(data))
	return path, nil
}

// ExportCurrent exports the session month into the configured output dir.
func (s *Server) ExportCurrent(ctx context.Context) (string, error) {
	sess := s.snapshot()
	return s.ExportMonth(ctx, sess.Year, sess.Month, "", s.cfg.Export.OutputDir)
}

// SetMonth moves the session to a zero-based month.
func (s *Server) SetMonth(year, month int) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	next, err := s.session.apply(stateUpdate{Year: &year, Month: &month})
	if err != nil {
		return err
	}
	s.session = next
	return nil
}

// RefreshSummary reports the outcome of an ICS import.
type RefreshSummary struct {
	Sources   int      `json:"sources"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Truncated []string `json:"truncated,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

func (s *Server) sources() []ics.Source {
	out := make([]ics.Source, 0, len(s.cfg.ICS))
	for _, c := range s.cfg.ICS {
		if c.URL == "" {
			continue
		}
		out = append(out, ics.Source{ID: c.SourceID(), URL: c.URL, Category: c.Category})
	}
	return out
}

// Refresh re-imports every configured ICS source around the session month.
// A source that fails to fetch or parse keeps its previously imported
// events.
func (s *Server) Refresh(ctx context.Context) RefreshSummary {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	sources := s.sources()
	summary := RefreshSummary{Sources: len(sources)}
	if len(sources) == 0 || s.fetcher == nil {
		return summary
	}

	sess := s.snapshot()
	first, _, _ := calendar.MonthBounds(sess.Year, sess.Month)
	from := model.DateOf(first.Time().AddDate(0, -refreshMonthsBack, 0))
	to := model.DateOf(first.Time().AddDate(0, refreshMonthsAhead+1, -1))

	results, fetchErrs := s.fetcher.FetchAll(ctx, sources)
	for _, err := range fetchErrs {
		summary.Errors = append(summary.Errors, err.Error())
	}
	if len(fetchErrs) > 0 {
		appLog.Error("one or more ICS fetches failed", errors.Join(fetchErrs...), "error_count", len(fetchErrs))
	}

	expandCfg := ics.ExpandConfig{
		DisplayLocation: s.loc,
		From:            from,
		To:              to,
		Classifier:      ics.Classifier{Keywords: s.cfg.CategoryKeywords},
	}
	for _, res := range results {
		parsed, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("ICS parse failed", err, "id", res.Source.ID)
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", res.Source.ID, err))
			continue
		}
		expanded, err := ics.ExpandEvents(parsed, expandCfg)
		if err != nil {
			appLog.Error("ICS expand failed", err, "id", res.Source.ID)
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", res.Source.ID, err))
			continue
		}
		added, skipped := s.store.ReplaceSource(res.Source.ID, expanded.Events)
		summary.Imported += added
		summary.Skipped += skipped
		summary.Truncated = append(summary.Truncated, expanded.TruncatedEvents...)
	}

	appLog.Info("ICS refresh finished",
		"sources", summary.Sources,
		"imported", summary.Imported,
		"skipped", summary.Skipped,
		"errors", len(summary.Errors),
		"range_start", from,
		"range_end", to,
		"at", s.now().In(s.loc).Format(time.RFC3339),
	)
	return summary
}

// CurrentLayout composes the session month.
func (s *Server) CurrentLayout() (calendar.Layout, bool, error) {
	sess := s.snapshot()
	l, err := s.layout(sess)
	return l, sess.WeekendsColored, err
}
