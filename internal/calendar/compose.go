package calendar

import (
	"fmt"
	"strings"
	"time"

	"caldesign/internal/model"
)

// Input is an immutable snapshot of everything the layout depends on.
// Month is zero-based (0 = January).
type Input struct {
	Year     int
	Month    int
	StartDay WeekStart
	Events   []model.Event
	Today    model.Date
}

// Layout is the composed month: the grid cells plus per-category summaries
// of the month's events.
type Layout struct {
	Year      int                              `json:"year"`
	Month     int                              `json:"month"`
	StartDay  WeekStart                        `json:"start_day"`
	Cells     []Cell                           `json:"cells"`
	Summaries map[model.Category][]model.Event `json:"summaries"`
}

// Compose builds the layout for in. Every event must carry a valid date.
func Compose(in Input) (Layout, error) {
	for _, ev := range in.Events {
		if !ev.Date.Valid() {
			return Layout{}, fmt.Errorf("calendar: event %q has malformed date %s: %w", ev.ID, ev.Date, ErrInvalidInput)
		}
	}

	dates, err := BuildGrid(in.Year, in.Month, in.StartDay)
	if err != nil {
		return Layout{}, err
	}
	monthEvents, err := EventsInMonth(in.Events, in.Year, in.Month)
	if err != nil {
		return Layout{}, err
	}

	return Layout{
		Year:      in.Year,
		Month:     in.Month,
		StartDay:  in.StartDay,
		Cells:     Cells(dates, in.Year, in.Month, in.Today, in.Events),
		Summaries: PartitionByCategory(monthEvents),
	}, nil
}

// Weeks groups the cells into rows of seven.
func (l Layout) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, len(l.Cells)/7)
	for i := 0; i+7 <= len(l.Cells); i += 7 {
		weeks = append(weeks, l.Cells[i:i+7])
	}
	return weeks
}

// MonthName returns e.g. "February 2024".
func (l Layout) MonthName() string {
	return fmt.Sprintf("%s %d", time.Month(l.Month+1), l.Year)
}

// Title returns the upper-cased month heading, e.g. "FEBRUARY 2024".
func (l Layout) Title() string {
	return strings.ToUpper(l.MonthName())
}

// MonthEvents concatenates the summaries in category order.
func (l Layout) MonthEvents() []model.Event {
	var out []model.Event
	for _, c := range model.Categories {
		out = append(out, l.Summaries[c]...)
	}
	return out
}

var weekdayShort = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayLabels returns the column headings for start.
func WeekdayLabels(start WeekStart) []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = weekdayShort[(int(start)+i)%7]
	}
	return out
}
