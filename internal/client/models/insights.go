package models

import (
	"bytes"
	"encoding/json"
)

// Insights is the loosely shaped insights payload. The server controls its
// shape, so decoding never fails: anything that does not fit becomes the
// zero value of the field (or of the whole payload).
type Insights struct {
	Summary   string   `json:"summary,omitempty"`
	Themes    []Theme  `json:"themes,omitempty"`
	Anomalies []string `json:"anomalies,omitempty"`
	Source    string   `json:"source,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Model     string   `json:"model,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// Theme keeps sentiment and count untyped; see package fallback for the
// normalisation applied before use.
type Theme struct {
	Name      string `json:"name"`
	Sentiment any    `json:"sentiment"`
	Count     any    `json:"count"`
}

type rawInsights struct {
	Summary   any               `json:"summary"`
	Themes    []json.RawMessage `json:"themes"`
	Anomalies []any             `json:"anomalies"`
	Source    any               `json:"source"`
	Reason    any               `json:"reason"`
	Model     any               `json:"model"`
	Timestamp any               `json:"timestamp"`
}

// UnmarshalJSON accepts an object, a JSON string holding an object, or
// anything else (which yields empty insights).
func (in *Insights) UnmarshalJSON(b []byte) error {
	*in = Insights{}

	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		b = []byte(s)
	}

	var raw rawInsights
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}

	in.Summary = str(raw.Summary)
	in.Source = str(raw.Source)
	in.Reason = str(raw.Reason)
	in.Model = str(raw.Model)
	in.Timestamp = str(raw.Timestamp)

	for _, a := range raw.Anomalies {
		if s, ok := a.(string); ok {
			in.Anomalies = append(in.Anomalies, s)
		}
	}

	for _, rt := range raw.Themes {
		var t struct {
			Name      any `json:"name"`
			Sentiment any `json:"sentiment"`
			Count     any `json:"count"`
		}
		if err := json.Unmarshal(rt, &t); err != nil {
			continue
		}
		in.Themes = append(in.Themes, Theme{Name: str(t.Name), Sentiment: t.Sentiment, Count: t.Count})
	}

	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
