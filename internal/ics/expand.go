package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "caldesign/internal/log"
	"caldesign/internal/model"
)

const defaultMaxOccurrencesPerEvent = 500

// ExpandConfig controls how parsed events become dated calendar events.
type ExpandConfig struct {
	// DisplayLocation decides which date a timed event lands on. Nil means
	// time.Local.
	DisplayLocation *time.Location

	// From and To bound the expansion, both inclusive.
	From model.Date
	To   model.Date

	// MaxOccurrencesPerEvent caps runaway recurrences. Zero uses
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int

	Classifier Classifier
}

// ExpandResult holds the dated events and the UIDs that hit the cap.
type ExpandResult struct {
	Events          []model.Event
	TruncatedEvents []string
}

// occurrence is one concrete instance before it is split into days.
type occurrence struct {
	ev    ParsedEvent
	start time.Time
	end   time.Time
}

// ExpandEvents expands single and RRULE-based events (honoring EXDATE and
// RECURRENCE-ID overrides) into calendar events within [From, To]. All-day
// events spanning several days yield one event per day. The result is
// ordered by start time, then UID.
func ExpandEvents(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if !cfg.From.Valid() || !cfg.To.Valid() {
		return result, errors.New("expand: From and To must be valid dates")
	}
	if cfg.To.Before(cfg.From) {
		return result, errors.New("expand: To is before From")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Only the highest SEQUENCE of a UID (or of a UID's RECURRENCE-ID)
	// counts; older revisions of the same event are dropped.
	var uids []string
	baseByUID := make(map[string]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = keepLatestOverride(overridesByUID[ev.UID], ev)
			continue
		}
		prev, seen := baseByUID[ev.UID]
		if !seen {
			uids = append(uids, ev.UID)
		}
		if !seen || ev.Seq > prev.Seq {
			baseByUID[ev.UID] = ev
		}
	}

	var all []occurrence
	for _, uid := range uids {
		occ, truncated := expandEvent(baseByUID[uid], overridesByUID[uid], cfg)
		all = append(all, occ...)
		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Warn("expand: occurrences truncated", "uid", uid, "cap", cfg.MaxOccurrencesPerEvent)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].start.Equal(all[j].start) {
			return all[i].start.Before(all[j].start)
		}
		return all[i].ev.UID < all[j].ev.UID
	})

	for _, occ := range all {
		result.Events = append(result.Events, toEvents(occ, cfg)...)
	}
	return result, nil
}

func keepLatestOverride(overrides []ParsedEvent, ev ParsedEvent) []ParsedEvent {
	for i, o := range overrides {
		if o.Recurrence.Equal(*ev.Recurrence) {
			if ev.Seq > o.Seq {
				overrides[i] = ev
			}
			return overrides
		}
	}
	return append(overrides, ev)
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]occurrence, bool) {
	if ev.RawRRule == "" {
		return expandSingle(ev, overrides, cfg), false
	}
	return expandRecurring(ev, overrides, cfg)
}

// window returns the expansion range expressed in loc. All-day events are
// matched on their own calendar dates, timed events on display dates.
func window(ev ParsedEvent, cfg ExpandConfig) (time.Time, time.Time) {
	loc := cfg.DisplayLocation
	if ev.AllDay {
		loc = ev.Start.Location()
	}
	from := time.Date(cfg.From.Year, cfg.From.Month, cfg.From.Day, 0, 0, 0, 0, loc)
	to := time.Date(cfg.To.Year, cfg.To.Month, cfg.To.Day, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return from, to
}

func overlaps(start, end, from, to time.Time) bool {
	if !end.After(start) {
		// Zero-length events occupy their start instant.
		return !start.Before(from) && start.Before(to)
	}
	return start.Before(to) && end.After(from)
}

func expandSingle(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []occurrence {
	start, end := ev.Start, ev.End
	if o, ok := findOverride(overrides, start); ok {
		ev, start, end = o, o.Start, o.End
	}
	from, to := window(ev, cfg)
	if !overlaps(start, end, from, to) {
		return nil
	}
	return []occurrence{{ev: ev, start: start, end: end}}
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	dur := ev.End.Sub(ev.Start)
	from, to := window(ev, cfg)
	// Reach back by one duration so instances that began before the window
	// but still run into it are kept.
	starts := set.Between(from.Add(-dur).In(ev.Start.Location()), to.In(ev.Start.Location()), true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]occurrence, 0, len(starts))
	for _, s := range starts {
		occ := occurrence{ev: ev, start: s, end: s.Add(dur)}
		if ev.AllDay {
			days := int(dur.Hours()/24 + 0.5)
			if days < 1 {
				days = 1
			}
			day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
			occ.start, occ.end = day, day.AddDate(0, 0, days)
		}
		if o, ok := findOverride(overrides, occ.start); ok {
			occ = occurrence{ev: o, start: o.Start, end: o.End}
		}
		if overlaps(occ.start, occ.end, from, to) {
			out = append(out, occ)
		}
	}
	return out, hitCap
}

// findOverride returns the override whose RECURRENCE-ID equals start.
func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// toEvents turns an occurrence into one calendar event per covered day that
// falls inside [From, To].
func toEvents(occ occurrence, cfg ExpandConfig) []model.Event {
	category := cfg.Classifier.Classify(occ.ev)
	mk := func(d model.Date) model.Event {
		return model.Event{
			Date:     d,
			Title:    occ.ev.Summary,
			Category: category,
			Source:   occ.ev.Source.ID,
		}.WithDerived()
	}

	if !occ.ev.AllDay {
		d := model.DateOf(occ.start.In(cfg.DisplayLocation))
		if d.Before(cfg.From) || d.After(cfg.To) {
			return nil
		}
		return []model.Event{mk(d)}
	}

	var out []model.Event
	first := model.DateOf(occ.start)
	last := model.DateOf(occ.end).AddDays(-1)
	if last.Before(first) {
		last = first
	}
	for d := first; !d.After(last); d = d.AddDays(1) {
		if d.Before(cfg.From) || d.After(cfg.To) {
			continue
		}
		out = append(out, mk(d))
	}
	return out
}
