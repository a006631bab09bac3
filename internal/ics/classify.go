package ics

import (
	"strings"

	"caldesign/internal/model"
)

// Classifier picks a category for an imported event.
type Classifier struct {
	// Keywords are matched case-insensitively against the summary.
	Keywords map[model.Category][]string
}

// Classify resolves the category in this order: a CATEGORIES value naming a
// known category, the first keyword match (categories checked in summary
// order), then the source default.
func (c Classifier) Classify(ev ParsedEvent) model.Category {
	for _, raw := range ev.Categories {
		if cat, err := model.ParseCategory(strings.ReplaceAll(raw, " ", "")); err == nil {
			return cat
		}
	}

	summary := strings.ToLower(ev.Summary)
	for _, cat := range model.Categories {
		for _, kw := range c.Keywords[cat] {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(summary, kw) {
				return cat
			}
		}
	}

	if ev.Source.Category.Valid() {
		return ev.Source.Category
	}
	return model.CategoryEvent
}
