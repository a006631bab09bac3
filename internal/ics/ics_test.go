package ics

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caldesign/internal/model"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART:20240205T090000Z\r\n" +
	"DTEND:20240205T093000Z\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=4\r\n" +
	"EXDATE:20240212T090000Z\r\n" +
	"SUMMARY:Go meetup\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"RECURRENCE-ID:20240219T090000Z\r\n" +
	"DTSTART:20240220T090000Z\r\n" +
	"DTEND:20240220T093000Z\r\n" +
	"SUMMARY:Go meetup (moved)\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:trip\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20240228\r\n" +
	"DTEND;VALUE=DATE:20240302\r\n" +
	"SUMMARY:Ski trip\r\n" +
	"CATEGORIES:Holiday\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART:20240210T090000Z\r\n" +
	"SUMMARY:no uid\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

var src = Source{ID: "team", URL: "https://example.com/team.ics", Category: model.CategoryEvent}

func TestParseICS(t *testing.T) {
	events, err := ParseICS(src, []byte(sampleICS))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "standup", events[0].UID)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=4", events[0].RawRRule)
	require.Len(t, events[0].ExDates, 1)
	assert.False(t, events[0].AllDay)

	assert.True(t, events[1].IsOverride)

	assert.True(t, events[2].AllDay)
	assert.Equal(t, []string{"Holiday"}, events[2].Categories)

	_, err = ParseICS(src, nil)
	assert.Error(t, err)
}

func TestExpandEvents(t *testing.T) {
	parsed, err := ParseICS(src, []byte(sampleICS))
	require.NoError(t, err)

	res, err := ExpandEvents(parsed, ExpandConfig{
		DisplayLocation: time.UTC,
		From:            model.NewDate(2024, time.February, 1),
		To:              model.NewDate(2024, time.February, 29),
		Classifier:      Classifier{Keywords: map[model.Category][]string{model.CategoryTechTalk: {"meetup"}}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.TruncatedEvents)

	var got []string
	for _, ev := range res.Events {
		got = append(got, ev.Date.String()+" "+ev.Title+" "+string(ev.Category))
		assert.Equal(t, "team", ev.Source)
		assert.NotEmpty(t, ev.Icon)
	}
	assert.Equal(t, []string{
		"2024-02-05 Go meetup techtalk",
		"2024-02-20 Go meetup (moved) techtalk",
		"2024-02-26 Go meetup techtalk",
		"2024-02-28 Ski trip holiday",
		"2024-02-29 Ski trip holiday",
	}, got)
}

func TestExpandEventsCap(t *testing.T) {
	parsed := []ParsedEvent{{
		Source:   src,
		UID:      "daily",
		Summary:  "Daily",
		Start:    time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
		RawRRule: "FREQ=DAILY",
	}}
	res, err := ExpandEvents(parsed, ExpandConfig{
		DisplayLocation:        time.UTC,
		From:                   model.NewDate(2024, time.February, 1),
		To:                     model.NewDate(2024, time.February, 29),
		MaxOccurrencesPerEvent: 10,
	})
	require.NoError(t, err)
	assert.Len(t, res.Events, 10)
	assert.Equal(t, []string{"daily"}, res.TruncatedEvents)
}

func TestExpandEventsKeepsHighestSequence(t *testing.T) {
	at := func(day int) time.Time { return time.Date(2024, 2, day, 9, 0, 0, 0, time.UTC) }
	recur := at(13)
	parsed := []ParsedEvent{
		{Source: src, UID: "review", Seq: 2, Summary: "Review v2", Start: at(6), End: at(6).Add(time.Hour), RawRRule: "FREQ=WEEKLY;COUNT=3"},
		{Source: src, UID: "review", Seq: 0, Summary: "Review v0", Start: at(5), End: at(5).Add(time.Hour)},
		{Source: src, UID: "review", Seq: 1, Summary: "Moved old", Start: at(14), End: at(14).Add(time.Hour), Recurrence: &recur, IsOverride: true},
		{Source: src, UID: "review", Seq: 3, Summary: "Moved new", Start: at(15), End: at(15).Add(time.Hour), Recurrence: &recur, IsOverride: true},
	}
	res, err := ExpandEvents(parsed, ExpandConfig{
		DisplayLocation: time.UTC,
		From:            model.NewDate(2024, time.February, 1),
		To:              model.NewDate(2024, time.February, 29),
	})
	require.NoError(t, err)

	var got []string
	for _, ev := range res.Events {
		got = append(got, ev.Date.String()+" "+ev.Title)
	}
	assert.Equal(t, []string{
		"2024-02-06 Review v2",
		"2024-02-15 Moved new",
		"2024-02-20 Review v2",
	}, got)
}

func TestExpandEventsDisplayLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	parsed := []ParsedEvent{{
		Source:  src,
		UID:     "late",
		Summary: "Late call",
		Start:   time.Date(2024, 2, 29, 20, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 2, 29, 21, 0, 0, 0, time.UTC),
	}}
	res, err := ExpandEvents(parsed, ExpandConfig{
		DisplayLocation: seoul,
		From:            model.NewDate(2024, time.March, 1),
		To:              model.NewDate(2024, time.March, 31),
	})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, model.NewDate(2024, time.March, 1), res.Events[0].Date)
}

func TestExpandEventsBadRange(t *testing.T) {
	_, err := ExpandEvents(nil, ExpandConfig{
		From: model.NewDate(2024, time.March, 2),
		To:   model.NewDate(2024, time.March, 1),
	})
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	c := Classifier{Keywords: map[model.Category][]string{
		model.CategoryBirthday: {"bday"},
		model.CategoryTechTalk: {"talk"},
	}}

	tests := []struct {
		name string
		ev   ParsedEvent
		want model.Category
	}{
		{"categories property wins", ParsedEvent{Summary: "Tech talk", Categories: []string{"Birthday"}}, model.CategoryBirthday},
		{"spaced category name", ParsedEvent{Categories: []string{"Tech Talk"}}, model.CategoryTechTalk},
		{"keyword", ParsedEvent{Summary: "Ana's BDAY"}, model.CategoryBirthday},
		{"source default", ParsedEvent{Summary: "Dinner", Source: Source{Category: model.CategoryCelebration}}, model.CategoryCelebration},
		{"fallback", ParsedEvent{Summary: "Dinner"}, model.CategoryEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.ev))
		})
	}
}

func TestWriteICSRoundTrip(t *testing.T) {
	events := []model.Event{
		{ID: "a", Date: model.NewDate(2024, time.February, 14), Title: "Mom", Category: model.CategoryBirthday},
		{ID: "b", Date: model.NewDate(2024, time.February, 29), Title: "Leap party", Category: model.CategoryCelebration},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, "February 2024", events, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Contains(t, buf.String(), "DTSTART;VALUE=DATE:20240214")

	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 2)

	parsed, err := ParseICS(Source{ID: "roundtrip"}, buf.Bytes())
	require.NoError(t, err)
	res, err := ExpandEvents(parsed, ExpandConfig{
		DisplayLocation: time.UTC,
		From:            model.NewDate(2024, time.February, 1),
		To:              model.NewDate(2024, time.February, 29),
	})
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, events[0].Date, res.Events[0].Date)
	assert.Equal(t, model.CategoryBirthday, res.Events[0].Category)
	assert.Equal(t, model.CategoryCelebration, res.Events[1].Category)
}

func TestFetcherUsesETagAndCache(t *testing.T) {
	var hits, notModified atomic.Int32
	fail := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	source := Source{ID: "team", URL: srv.URL + "/team.ics"}
	ctx := context.Background()

	first, err := f.FetchOne(ctx, source)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, sampleICS, string(first.Body))

	second, err := f.FetchOne(ctx, source)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, int32(1), notModified.Load())

	fail.Store(true)
	third, err := f.FetchOne(ctx, source)
	require.NoError(t, err)
	assert.True(t, third.FromCache)
	assert.Equal(t, sampleICS, string(third.Body))
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchAllCollectsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	results, errs := f.FetchAll(context.Background(), []Source{
		{ID: "missing", URL: srv.URL + "/missing.ics"},
		{ID: "empty"},
	})
	assert.Empty(t, results)
	assert.Len(t, errs, 2)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://calendar.example.com/...(redacted)", redactURL("https://calendar.example.com/private/abc.ics?token=secret"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
