package web

import (
	"fmt"

	"github.com/samber/mo"

	"caldesign/internal/calendar"
	"caldesign/internal/config"
	"caldesign/internal/cover"
	appLog "caldesign/internal/log"
	"caldesign/internal/model"
	"caldesign/internal/templates"
)

// session is the designer's current choices. Month is zero-based.
type session struct {
	Year            int
	Month           int
	StartDay        calendar.WeekStart
	Template        model.Template
	WeekendsColored bool
	Cover           mo.Option[cover.Image]
	CoverTransform  cover.Transform
}

func newSession(cfg *config.Config, today model.Date) (session, error) {
	start, err := calendar.ParseWeekStart(cfg.WeekStart)
	if err != nil {
		return session{}, fmt.Errorf("web: %w", err)
	}
	tpl, err := templates.Lookup(cfg.Template)
	if err != nil {
		appLog.Warn("unknown template in config; using default", "template", cfg.Template)
		tpl = templates.Default()
	}

	sess := session{
		Year:            today.Year,
		Month:           int(today.Month) - 1,
		StartDay:        start,
		Template:        tpl,
		WeekendsColored: cfg.WeekendsColored,
		Cover:           mo.None[cover.Image](),
		CoverTransform: cover.Transform{
			Scale:    cfg.Cover.Scale,
			X:        cfg.Cover.OffsetX,
			Y:        cfg.Cover.OffsetY,
			Rotation: cfg.Cover.Rotation,
		}.Normalize(),
	}
	if cfg.Cover.Path != "" {
		img, err := cover.Load(cfg.Cover.Path)
		if err != nil {
			appLog.Error("failed to load cover image", err, "path", cfg.Cover.Path)
		} else {
			sess.Cover = mo.Some(img)
		}
	}
	return sess, nil
}

// stateResponse is the JSON shape of GET/PUT /api/state.
type stateResponse struct {
	Year            int                `json:"year"`
	Month           int                `json:"month"`
	MonthName       string             `json:"month_name"`
	StartDay        calendar.WeekStart `json:"start_day"`
	Template        string             `json:"template"`
	WeekendsColored bool               `json:"weekends_colored"`
	HasCover        bool               `json:"has_cover"`
	CoverTransform  cover.Transform    `json:"cover_transform"`
}

func (s session) response() stateResponse {
	first, _, _ := calendar.MonthBounds(s.Year, s.Month)
	return stateResponse{
		Year:            s.Year,
		Month:           s.Month,
		MonthName:       first.Time().Format("January 2006"),
		StartDay:        s.StartDay,
		Template:        s.Template.ID,
		WeekendsColored: s.WeekendsColored,
		HasCover:        s.Cover.IsPresent(),
		CoverTransform:  s.CoverTransform,
	}
}

// stateUpdate is a partial PUT /api/state body; nil fields are left alone.
type stateUpdate struct {
	Year            *int    `json:"year"`
	Month           *int    `json:"month"`
	StartDay        *int    `json:"start_day"`
	Template        *string `json:"template"`
	WeekendsColored *bool   `json:"weekends_colored"`
}

// apply returns s with u applied, or an error naming the first bad field.
func (s session) apply(u stateUpdate) (session, error) {
	if u.Year != nil {
		s.Year = *u.Year
	}
	if u.Month != nil {
		s.Month = *u.Month
	}
	if _, _, err := calendar.MonthBounds(s.Year, s.Month); err != nil {
		return s, err
	}
	if u.StartDay != nil {
		start := calendar.WeekStart(*u.StartDay)
		if !start.Valid() {
			return s, fmt.Errorf("web: start_day %d: %w", *u.StartDay, calendar.ErrInvalidInput)
		}
		s.StartDay = start
	}
	if u.Template != nil {
		tpl, err := templates.Lookup(*u.Template)
		if err != nil {
			return s, err
		}
		s.Template = tpl
	}
	if u.WeekendsColored != nil {
		s.WeekendsColored = *u.WeekendsColored
	}
	return s, nil
}

func (s *Server) snapshot() session {
	s.sessionMu.RLock()
	defer s.sessionMu.RUnlock()
	return s.session
}

func (s *Server) today() model.Date {
	return model.DateOf(s.now().In(s.loc))
}
