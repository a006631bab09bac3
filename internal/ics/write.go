package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"caldesign/internal/model"
)

// ProductID identifies calendars written by WriteICS.
const ProductID = "-//caldesign//Calendar Designer//EN"

// WriteICS writes events as all-day VEVENTs. Each VEVENT carries the event
// category in CATEGORIES so a re-import classifies it the same way.
func WriteICS(w io.Writer, name string, events []model.Event, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		uid := ev.ID
		if uid == "" {
			uid = fmt.Sprintf("%s-%s", ev.Date, ev.Title)
		}
		ve := cal.AddEvent(uid + "@caldesign")
		start := ev.Date.Time()
		ve.SetDtStampTime(stamp.UTC())
		ve.SetAllDayStartAt(start)
		ve.SetAllDayEndAt(start.AddDate(0, 0, 1))
		ve.SetSummary(ev.Title)
		ve.SetProperty(ical.ComponentPropertyCategories, string(ev.Category))
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("ics: write calendar: %w", err)
	}
	return nil
}
