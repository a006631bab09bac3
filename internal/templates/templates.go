package templates

import (
	"errors"
	"fmt"

	"caldesign/internal/model"
)

var ErrUnknownTemplate = errors.New("unknown template")

// DefaultID is used when no template is configured.
const DefaultID = "modern"

var presets = []model.Template{
	{
		ID:               "modern",
		Name:             "Modern Clean",
		HeaderBackground: "linear-gradient(to right, #2563eb, #9333ea)",
		HeaderText:       "#ffffff",
		GridBorder:       "#e5e7eb",
		WeekendColor:     "#ef4444",
		EventColors: map[model.Category]string{
			model.CategoryEvent:       "#3b82f6",
			model.CategoryHoliday:     "#ef4444",
			model.CategoryBirthday:    "#ec4899",
			model.CategoryTechTalk:    "#22c55e",
			model.CategoryCelebration: "#eab308",
		},
	},
	{
		ID:               "minimal",
		Name:             "Minimal Black",
		HeaderBackground: "#000000",
		HeaderText:       "#ffffff",
		GridBorder:       "#d1d5db",
		WeekendColor:     "#4b5563",
		EventColors: map[model.Category]string{
			model.CategoryEvent:       "#374151",
			model.CategoryHoliday:     "#dc2626",
			model.CategoryBirthday:    "#9333ea",
			model.CategoryTechTalk:    "#16a34a",
			model.CategoryCelebration: "#f97316",
		},
	},
	{
		ID:               "colorful",
		Name:             "Colorful Bright",
		HeaderBackground: "linear-gradient(to right, #ec4899, #ef4444, #eab308)",
		HeaderText:       "#ffffff",
		GridBorder:       "#fbcfe8",
		WeekendColor:     "#db2777",
		EventColors: map[model.Category]string{
			model.CategoryEvent:       "#60a5fa",
			model.CategoryHoliday:     "#f87171",
			model.CategoryBirthday:    "#f472b6",
			model.CategoryTechTalk:    "#4ade80",
			model.CategoryCelebration: "#facc15",
		},
	},
	{
		ID:               "professional",
		Name:             "Professional Navy",
		HeaderBackground: "linear-gradient(to right, #1e293b, #475569)",
		HeaderText:       "#ffffff",
		GridBorder:       "#cbd5e1",
		WeekendColor:     "#475569",
		EventColors: map[model.Category]string{
			model.CategoryEvent:       "#475569",
			model.CategoryHoliday:     "#b91c1c",
			model.CategoryBirthday:    "#e11d48",
			model.CategoryTechTalk:    "#059669",
			model.CategoryCelebration: "#d97706",
		},
	},
	{
		ID:               "pastel",
		Name:             "Soft Pastel",
		HeaderBackground: "linear-gradient(to right, #d8b4fe, #f9a8d4)",
		HeaderText:       "#581c87",
		GridBorder:       "#e9d5ff",
		WeekendColor:     "#a855f7",
		EventColors: map[model.Category]string{
			model.CategoryEvent:       "#93c5fd",
			model.CategoryHoliday:     "#fca5a5",
			model.CategoryBirthday:    "#f9a8d4",
			model.CategoryTechTalk:    "#86efac",
			model.CategoryCelebration: "#fde047",
		},
	},
}

// All returns the preset templates in gallery order.
func All() []model.Template {
	out := make([]model.Template, len(presets))
	copy(out, presets)
	return out
}

// Lookup finds a preset by ID.
func Lookup(id string) (model.Template, error) {
	for _, t := range presets {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
}

// Default returns the "modern" preset.
func Default() model.Template {
	t, _ := Lookup(DefaultID)
	return t
}
