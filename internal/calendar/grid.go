package calendar

import (
	"errors"
	"fmt"
	"time"

	"caldesign/internal/model"
)

// ErrInvalidInput marks a caller contract violation: a month outside 0-11,
// an unknown start day, or an event without a valid date.
var ErrInvalidInput = errors.New("invalid input")

// WeekStart selects the first column of the grid.
type WeekStart int

const (
	Sunday WeekStart = 0
	Monday WeekStart = 1
)

func (s WeekStart) Valid() bool { return s == Sunday || s == Monday }

func (s WeekStart) Weekday() time.Weekday { return time.Weekday(s) }

func (s WeekStart) String() string {
	if s == Monday {
		return "monday"
	}
	return "sunday"
}

// ParseWeekStart accepts "sunday"/"monday" and "0"/"1".
func ParseWeekStart(v string) (WeekStart, error) {
	switch v {
	case "sunday", "0":
		return Sunday, nil
	case "monday", "1":
		return Monday, nil
	}
	return 0, fmt.Errorf("calendar: week start %q: %w", v, ErrInvalidInput)
}

// Cell is one slot of the month grid.
type Cell struct {
	Date      model.Date    `json:"date"`
	InMonth   bool          `json:"in_month"`
	IsToday   bool          `json:"is_today"`
	IsWeekend bool          `json:"is_weekend"`
	Events    []model.Event `json:"events"`
}

// Visible returns the first limit events of the cell and how many were cut.
func (c Cell) Visible(limit int) ([]model.Event, int) {
	return Visible(c.Events, limit)
}

func checkMonth(year, month int) error {
	if month < 0 || month > 11 {
		return fmt.Errorf("calendar: month %d out of range 0-11: %w", month, ErrInvalidInput)
	}
	if year < 1 || year > 9999 {
		return fmt.Errorf("calendar: year %d out of range: %w", year, ErrInvalidInput)
	}
	return nil
}

// MonthBounds returns the first and last day of the zero-based month.
func MonthBounds(year, month int) (first, last model.Date, err error) {
	if err := checkMonth(year, month); err != nil {
		return model.Date{}, model.Date{}, err
	}
	first = model.NewDate(year, time.Month(month+1), 1)
	// Day 0 of the next month normalizes to the last day of this one.
	last = model.DateOf(time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC))
	return first, last, nil
}

// BuildGrid returns every date shown for the month: whole weeks from the
// week holding the 1st through the week holding the last day.
func BuildGrid(year, month int, start WeekStart) ([]model.Date, error) {
	if !start.Valid() {
		return nil, fmt.Errorf("calendar: start day %d: %w", int(start), ErrInvalidInput)
	}
	first, last, err := MonthBounds(year, month)
	if err != nil {
		return nil, err
	}

	lead := (int(first.Weekday()) - int(start) + 7) % 7
	gridStart := first.AddDays(-lead)

	endWeekday := (int(start) + 6) % 7
	trail := (endWeekday - int(last.Weekday()) + 7) % 7
	gridEnd := last.AddDays(trail)

	dates := make([]model.Date, 0, 42)
	for d := gridStart; !d.After(gridEnd); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// IsWeekend reports Saturday or Sunday. The start-of-week setting moves
// columns around but never changes which days are weekend days.
func IsWeekend(d model.Date) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Cells tags each grid date for the given month and attaches its events.
func Cells(dates []model.Date, year, month int, today model.Date, events []model.Event) []Cell {
	cells := make([]Cell, 0, len(dates))
	for _, d := range dates {
		cells = append(cells, Cell{
			Date:      d,
			InMonth:   d.Year == year && int(d.Month) == month+1,
			IsToday:   d == today,
			IsWeekend: IsWeekend(d),
			Events:    EventsOnDate(events, d),
		})
	}
	return cells
}
