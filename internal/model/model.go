package model

import (
	"errors"
	"fmt"
	"strings"
)

// Category is one of the fixed event kinds used for styling and for the
// summary panels.
type Category string

const (
	CategoryEvent       Category = "event"
	CategoryHoliday     Category = "holiday"
	CategoryBirthday    Category = "birthday"
	CategoryTechTalk    Category = "techtalk"
	CategoryCelebration Category = "celebration"
)

// Categories lists every category in summary order.
var Categories = []Category{
	CategoryEvent,
	CategoryHoliday,
	CategoryBirthday,
	CategoryTechTalk,
	CategoryCelebration,
}

var ErrUnknownCategory = errors.New("unknown category")

type categoryInfo struct {
	label string
	icon  string
	color string
}

// categoryTable holds the display attributes each new event inherits.
var categoryTable = map[Category]categoryInfo{
	CategoryEvent:       {label: "Event", icon: "📅", color: "#3b82f6"},
	CategoryHoliday:     {label: "Holiday", icon: "🎉", color: "#ef4444"},
	CategoryBirthday:    {label: "Birthday", icon: "🎂", color: "#ec4899"},
	CategoryTechTalk:    {label: "Tech Talk", icon: "💻", color: "#22c55e"},
	CategoryCelebration: {label: "Celebration", icon: "🎊", color: "#eab308"},
}

// ParseCategory accepts the lowercase category names, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryTable[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

func (c Category) Label() string { return categoryTable[c].label }
func (c Category) Icon() string  { return categoryTable[c].icon }
func (c Category) Color() string { return categoryTable[c].color }

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Event is a single dated calendar entry. Date and ID never change once the
// event has been added to a store.
type Event struct {
	ID       string   `json:"id" yaml:"-"`
	Date     Date     `json:"date" yaml:"date"`
	Title    string   `json:"title" yaml:"title"`
	Category Category `json:"category" yaml:"category"`

	// Color and Icon are derived from Category when the event is created.
	Color string `json:"color" yaml:"-"`
	Icon  string `json:"icon" yaml:"-"`

	// Source is empty for events added by hand, or the ICS source ID the
	// event was imported from.
	Source string `json:"source,omitempty" yaml:"-"`
}

// Validate checks the fields a user must supply.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("event title cannot be empty")
	}
	if !e.Date.Valid() {
		return fmt.Errorf("event date %q is not a valid calendar date", e.Date.String())
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, string(e.Category))
	}
	return nil
}

// WithDerived returns a copy with Color and Icon filled from the category
// table.
func (e Event) WithDerived() Event {
	e.Color = e.Category.Color()
	e.Icon = e.Category.Icon()
	return e
}

// Template is a named bundle of presentation attributes. Values are CSS
// colour or background expressions.
type Template struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	HeaderBackground string              `json:"header_background"`
	HeaderText       string              `json:"header_text"`
	GridBorder       string              `json:"grid_border"`
	WeekendColor     string              `json:"weekend_color"`
	EventColors      map[Category]string `json:"event_colors"`
}

// EventColor returns the template colour for c, falling back to the
// category default.
func (t Template) EventColor(c Category) string {
	if col, ok := t.EventColors[c]; ok && col != "" {
		return col
	}
	return c.Color()
}
