package fallback

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/feedpulse/internal/client/models"
)

// Bucket thresholds; values on a threshold are neutral.
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

type Bucket string

const (
	Positive Bucket = "positive"
	Neutral  Bucket = "neutral"
	Negative Bucket = "negative"
)

// Theme is a sanitized models.Theme.
type Theme struct {
	Name      string
	Sentiment float64 // in [-1, 1]
	Percent   float64 // Sentiment * 100
	Count     int     // >= 1
}

func (t Theme) Bucket() Bucket {
	switch {
	case t.Sentiment > PositiveThreshold:
		return Positive
	case t.Sentiment < NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

func NormalizeTheme(t models.Theme) Theme {
	s := clamp(toFloat(t.Sentiment), -1, 1)
	return Theme{
		Name:      strings.TrimSpace(t.Name),
		Sentiment: s,
		Percent:   s * 100,
		Count:     toCount(t.Count),
	}
}

func NormalizeThemes(themes []models.Theme) []Theme {
	out := make([]Theme, 0, len(themes))
	for _, t := range themes {
		out = append(out, NormalizeTheme(t))
	}
	return out
}

// Share is one non-empty bucket of a distribution.
type Share struct {
	Bucket Bucket
	Count  int
}

// Distribution sums theme counts per bucket. Empty buckets are omitted and
// the order is always positive, neutral, negative.
func Distribution(themes []Theme) []Share {
	sums := map[Bucket]int{}
	for _, t := range themes {
		sums[t.Bucket()] += t.Count
	}

	var out []Share
	for _, b := range []Bucket{Positive, Neutral, Negative} {
		if n := sums[b]; n > 0 {
			out = append(out, Share{Bucket: b, Count: n})
		}
	}
	return out
}

// toFloat accepts JSON numbers and numeric strings; anything else is 0.
func toFloat(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		f, _ = x.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func toCount(v any) int {
	if v == nil {
		return 1
	}
	f := math.Trunc(toFloat(v))
	if f < 1 {
		return 1
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
