package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/feedpulse/internal/client/fallback"
	"github.com/dmitrijs2005/feedpulse/internal/client/models"
)

const (
	timeLayout     = "2006-01-02 15:04"
	previewLength  = 60
	storyWarning     = "! AI story unavailable, showing fallback content"
	insightWarning   = "! AI insights unavailable, showing fallback content"
	sentimentWarning = "! Sentiment score may be a placeholder"
)

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func renderSentiment(w io.Writer, st models.Sentiment) {
	label := st.Label
	if label == "" {
		label = "unknown"
	}
	fmt.Fprintf(w, "Sentiment: %+.2f (%s)\n", st.Score, label)
	if fallback.IsSentimentFallback(st) {
		fmt.Fprintln(w, sentimentWarning)
	}
}

func renderHistory(w io.Writer, items []models.FeedbackItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No feedback yet.")
		return
	}
	for _, it := range items {
		label := it.SentimentLabel
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(w, "#%-5d %s  %-8s  %s\n", it.ID, it.CreatedAt.Local().Format(timeLayout), label, truncate(it.Text, previewLength))
	}
}

func renderItem(w io.Writer, it models.FeedbackItem) {
	fmt.Fprintf(w, "#%d  %s\n", it.ID, it.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(w, "Text: %s\n", it.Text)
	if it.Sentiment != nil {
		renderSentiment(w, models.Sentiment{Score: *it.Sentiment, Label: it.SentimentLabel})
	}
	renderStory(w, it.Story())
	renderInsights(w, it.InsightsWithMeta())
}

func renderStory(w io.Writer, st models.StoryMeta) {
	fmt.Fprintln(w, "User story:")
	if text := strings.TrimSpace(st.Text); text != "" {
		for _, line := range strings.Split(text, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	} else {
		fmt.Fprintln(w, "  (none)")
	}
	if fallback.IsStoryFallback(st) {
		fmt.Fprintln(w, withReason(storyWarning, st.Reason))
	} else if st.Model != "" {
		fmt.Fprintf(w, "  (model: %s)\n", st.Model)
	}
}

func renderInsights(w io.Writer, in models.Insights) {
	fmt.Fprintln(w, "Insights:")
	if in.Summary != "" {
		fmt.Fprintf(w, "  Summary: %s\n", in.Summary)
	}

	themes := fallback.NormalizeThemes(in.Themes)
	if len(themes) > 0 {
		fmt.Fprintln(w, "  Themes:")
		for _, t := range themes {
			fmt.Fprintf(w, "    - %-24s %+6.1f%%  x%d\n", t.Name, t.Percent, t.Count)
		}
		if dist := fallback.Distribution(themes); len(dist) > 0 {
			parts := make([]string, 0, len(dist))
			for _, s := range dist {
				parts = append(parts, fmt.Sprintf("%s %d", s.Bucket, s.Count))
			}
			fmt.Fprintf(w, "  Distribution: %s\n", strings.Join(parts, ", "))
		}
	}

	if len(in.Anomalies) > 0 {
		fmt.Fprintln(w, "  Anomalies:")
		for _, an := range in.Anomalies {
			fmt.Fprintf(w, "    - %s\n", an)
		}
	}

	if fallback.IsInsightsFallback(in) {
		fmt.Fprintln(w, withReason(insightWarning, in.Reason))
	}
}

func withReason(msg, reason string) string {
	if reason = strings.TrimSpace(reason); reason != "" {
		return fmt.Sprintf("%s (%s)", msg, reason)
	}
	return msg
}
