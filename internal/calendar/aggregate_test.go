package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caldesign/internal/model"
)

func ev(id string, d model.Date, c model.Category) model.Event {
	return model.Event{ID: id, Date: d, Title: id, Category: c}
}

func TestEventsOnDateKeepsInsertionOrder(t *testing.T) {
	valentine := date(2024, time.February, 14)
	events := []model.Event{
		ev("bday", valentine, model.CategoryBirthday),
		ev("other", date(2024, time.February, 15), model.CategoryEvent),
		ev("party", valentine, model.CategoryEvent),
	}

	got := EventsOnDate(events, valentine)
	require.Len(t, got, 2)
	assert.Equal(t, "bday", got[0].ID)
	assert.Equal(t, "party", got[1].ID)

	assert.Empty(t, EventsOnDate(nil, valentine))
	assert.NotNil(t, EventsOnDate(nil, valentine))
}

func TestEventsInMonth(t *testing.T) {
	events := []model.Event{
		ev("jan", date(2024, time.January, 31), model.CategoryEvent),
		ev("feb1", date(2024, time.February, 1), model.CategoryEvent),
		ev("feb-other-year", date(2023, time.February, 1), model.CategoryEvent),
		ev("feb29", date(2024, time.February, 29), model.CategoryHoliday),
	}

	got, err := EventsInMonth(events, 2024, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "feb1", got[0].ID)
	assert.Equal(t, "feb29", got[1].ID)

	got, err = EventsInMonth(events, 2024, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = EventsInMonth(events, 2024, 12)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestPartitionByCategory(t *testing.T) {
	d := date(2024, time.February, 10)
	monthEvents := []model.Event{
		ev("t1", d, model.CategoryTechTalk),
		ev("e1", d, model.CategoryEvent),
		ev("t2", d, model.CategoryTechTalk),
		ev("c1", d, model.CategoryCelebration),
	}

	got := PartitionByCategory(monthEvents)
	require.Len(t, got, 5)
	for _, c := range model.Categories {
		require.Contains(t, got, c)
		require.NotNil(t, got[c])
	}
	assert.Equal(t, []string{"t1", "t2"}, ids(got[model.CategoryTechTalk]))
	assert.Equal(t, []string{"e1"}, ids(got[model.CategoryEvent]))
	assert.Empty(t, got[model.CategoryHoliday])

	var all []model.Event
	for _, c := range model.Categories {
		all = append(all, got[c]...)
	}
	assert.ElementsMatch(t, monthEvents, all)
}

func TestPartitionByCategoryEmpty(t *testing.T) {
	got := PartitionByCategory(nil)
	require.Len(t, got, 5)
	for _, c := range model.Categories {
		assert.Empty(t, got[c])
	}
}

func TestVisible(t *testing.T) {
	d := date(2024, time.February, 10)
	events := []model.Event{ev("a", d, "event"), ev("b", d, "event"), ev("c", d, "event")}

	shown, more := Visible(events, 2)
	assert.Equal(t, []string{"a", "b"}, ids(shown))
	assert.Equal(t, 1, more)

	shown, more = Visible(events, 3)
	assert.Len(t, shown, 3)
	assert.Zero(t, more)

	shown, more = Visible(events, -1)
	assert.Len(t, shown, 3)
	assert.Zero(t, more)

	shown, more = Visible(nil, 2)
	assert.Empty(t, shown)
	assert.Zero(t, more)
}

func TestCellsReconstructMonthEvents(t *testing.T) {
	events := []model.Event{
		ev("prev", date(2024, time.January, 30), model.CategoryEvent),
		ev("a", date(2024, time.February, 14), model.CategoryBirthday),
		ev("b", date(2024, time.February, 14), model.CategoryEvent),
		ev("c", date(2024, time.February, 29), model.CategoryHoliday),
		ev("next", date(2024, time.March, 2), model.CategoryEvent),
		ev("far", date(2025, time.February, 14), model.CategoryEvent),
	}
	dates, err := BuildGrid(2024, 1, Sunday)
	require.NoError(t, err)

	var fromCells []model.Event
	for _, c := range Cells(dates, 2024, 1, model.Date{}, events) {
		if c.InMonth {
			fromCells = append(fromCells, c.Events...)
		}
	}
	monthEvents, err := EventsInMonth(events, 2024, 1)
	require.NoError(t, err)
	assert.Equal(t, monthEvents, fromCells)
}

func ids(events []model.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}
