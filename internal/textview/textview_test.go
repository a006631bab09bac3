package textview

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caldesign/internal/calendar"
	"caldesign/internal/model"
)

func TestRender(t *testing.T) {
	d := func(day int) model.Date { return model.NewDate(2024, time.February, day) }
	l, err := calendar.Compose(calendar.Input{
		Year:     2024,
		Month:    1,
		StartDay: calendar.Monday,
		Today:    d(14),
		Events: []model.Event{
			{ID: "1", Date: d(14), Title: "Standup", Category: model.CategoryEvent},
			{ID: "2", Date: d(14), Title: "Mom", Category: model.CategoryBirthday},
			{ID: "3", Date: d(14), Title: "Ski", Category: model.CategoryHoliday},
			{ID: "4", Date: d(20), Title: "A very long conference title", Category: model.CategoryTechTalk},
		},
	})
	require.NoError(t, err)

	out := Render(l, true)
	assert.Contains(t, out, "FEBRUARY 2024")
	assert.Contains(t, out, "+1 more")
	assert.Contains(t, out, "Standup")
	assert.NotContains(t, out, "Ski")
	assert.NotContains(t, out, "A very long conference title")
	assert.Contains(t, out, "Tech Talk: 1")
	assert.Contains(t, out, "Holiday: 1")
	assert.Contains(t, out, "Celebration: 0")

	mon := strings.Index(out, "Mon")
	sun := strings.Index(out, "Sun")
	assert.True(t, mon >= 0 && mon < sun)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 12))
	got := truncate("A very long conference title", 12)
	assert.LessOrEqual(t, lipgloss.Width(got), 12)
	assert.True(t, strings.HasSuffix(got, "…"))
}
