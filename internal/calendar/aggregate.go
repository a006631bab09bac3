package calendar

import (
	"caldesign/internal/model"
)

// EventsOnDate keeps the events dated d, in their original order.
func EventsOnDate(events []model.Event, d model.Date) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		if ev.Date == d {
			out = append(out, ev)
		}
	}
	return out
}

// EventsInMonth keeps the events of the zero-based month, in their original
// order.
func EventsInMonth(events []model.Event, year, month int) ([]model.Event, error) {
	if err := checkMonth(year, month); err != nil {
		return nil, err
	}
	out := make([]model.Event, 0)
	for _, ev := range events {
		if ev.Date.Year == year && int(ev.Date.Month) == month+1 {
			out = append(out, ev)
		}
	}
	return out, nil
}

// PartitionByCategory splits monthEvents by category. Every category key is
// present, with an empty slice when nothing matches.
func PartitionByCategory(monthEvents []model.Event) map[model.Category][]model.Event {
	out := make(map[model.Category][]model.Event, len(model.Categories))
	for _, c := range model.Categories {
		out[c] = make([]model.Event, 0)
	}
	for _, ev := range monthEvents {
		if _, ok := out[ev.Category]; ok {
			out[ev.Category] = append(out[ev.Category], ev)
		}
	}
	return out
}

// Visible truncates events to limit entries and reports the remainder.
// A negative limit shows everything.
func Visible(events []model.Event, limit int) (shown []model.Event, more int) {
	if limit < 0 || len(events) <= limit {
		return events, 0
	}
	return events[:limit], len(events) - limit
}
