// Package fallback tells genuine AI output apart from the placeholder data
// the backend substitutes when its AI provider is unavailable.
//
// All functions are pure. Ambiguous or malformed input is treated as genuine
// rather than reported as an error. The text heuristics are brittle by
// nature; a Source field set by the server always takes precedence.
package fallback

import (
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/feedpulse/internal/client/models"
)

const (
	SourceFallback = "fallback"

	// GenericThemeName is the single theme the backend emits as placeholder.
	GenericThemeName = "General Feedback"

	// MinStoryLength is the rune count below which a story is not trusted.
	MinStoryLength = 50
)

var storyMarkers = []string{
	"[mock story]",
	"[fallback]",
	"as a user, i want to address the feedback",
}

// IsStoryFallback reports whether s looks like placeholder output.
func IsStoryFallback(s models.StoryMeta) bool {
	if isFallbackSource(s.Source) || strings.TrimSpace(s.Reason) != "" {
		return true
	}

	text := strings.TrimSpace(s.Text)
	lower := strings.ToLower(text)
	for _, m := range storyMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}

	return utf8.RuneCountInString(text) < MinStoryLength
}

// IsInsightsFallback reports whether in looks like placeholder output.
func IsInsightsFallback(in models.Insights) bool {
	if isFallbackSource(in.Source) || strings.TrimSpace(in.Reason) != "" {
		return true
	}
	if strings.TrimSpace(in.Source) != "" {
		return false
	}

	if strings.Contains(strings.ToLower(in.Summary), "unavailable") {
		return true
	}

	return len(in.Themes) == 1 && strings.TrimSpace(in.Themes[0].Name) == GenericThemeName
}

// IsSentimentFallback is always false: sentiment scores are trusted.
func IsSentimentFallback(models.Sentiment) bool {
	return false
}

func isFallbackSource(src string) bool {
	return strings.EqualFold(strings.TrimSpace(src), SourceFallback)
}
