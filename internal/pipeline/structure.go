package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"murmur/internal/services/openai"
)

// Default substitutions for a structuring response that fails to parse, and
// for any individual missing field in a parsed-but-partial structure.
const (
	defaultTitle    = "Untitled Memory"
	defaultCategory = "Other"
	defaultMood     = "neutral"
)

// categoryVocabulary is the fixed category set the structuring prompt asks
// for. Responses are normalized to canonical casing when they match.
var categoryVocabulary = []string{
	"Shopping", "Learning", "Meeting", "Personal", "Ideas",
	"Health", "Work", "Travel", "Other",
}

var categoryTitleCaser = cases.Title(language.English)

type structuredFields struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	ActionItems []string `json:"action_items"`
	Mood        string   `json:"mood"`
}

// parseStructured decodes the model's JSON content. Parse failure substitutes
// the full default structure; a partial parse is back-filled field by field.
func parseStructured(content string) structuredFields {
	var parsed structuredFields
	if err := openai.DecodeModelJSON(content, &parsed); err != nil {
		return structuredFields{
			Title:       defaultTitle,
			Category:    defaultCategory,
			ActionItems: []string{},
			Mood:        defaultMood,
		}
	}

	if strings.TrimSpace(parsed.Title) == "" {
		parsed.Title = defaultTitle
	}
	parsed.Category = normalizeCategory(parsed.Category)
	if parsed.ActionItems == nil {
		parsed.ActionItems = []string{}
	}
	if strings.TrimSpace(parsed.Mood) == "" {
		parsed.Mood = defaultMood
	}
	return parsed
}

func normalizeCategory(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultCategory
	}
	for _, canonical := range categoryVocabulary {
		if strings.EqualFold(canonical, trimmed) {
			return canonical
		}
	}
	// Off-vocabulary categories are kept, tidied to title casing.
	return categoryTitleCaser.String(trimmed)
}
