package models

import "time"

// FeedbackInput is the body of submit, update and the single-shot
// analyze/story/insights endpoints.
type FeedbackInput struct {
	Text string `json:"text" validate:"required,min=10,max=5000"`
}

// FeedbackItem is one history entry.
type FeedbackItem struct {
	ID             int64     `json:"id"`
	Text           string    `json:"text"`
	Sentiment      *float64  `json:"sentiment"`
	SentimentLabel string    `json:"sentiment_label"`
	UserStory      string    `json:"user_story"`
	Insights       Insights  `json:"insights"`
	StorySource    string    `json:"story_source,omitempty"`
	StoryModel     string    `json:"story_model,omitempty"`
	StoryReason    string    `json:"story_reason,omitempty"`
	InsightsSource string    `json:"insights_source,omitempty"`
	InsightsModel  string    `json:"insights_model,omitempty"`
	InsightsReason string    `json:"insights_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Story returns the generated story together with its provenance fields.
func (f FeedbackItem) Story() StoryMeta {
	return StoryMeta{Text: f.UserStory, Source: f.StorySource, Model: f.StoryModel, Reason: f.StoryReason}
}

// InsightsWithMeta returns the insights payload, filling source/reason/model
// from the item-level fields when the payload itself lacks them.
func (f FeedbackItem) InsightsWithMeta() Insights {
	in := f.Insights
	if in.Source == "" {
		in.Source = f.InsightsSource
	}
	if in.Reason == "" {
		in.Reason = f.InsightsReason
	}
	if in.Model == "" {
		in.Model = f.InsightsModel
	}
	return in
}

// StoryMeta is a generated user story and where it came from.
type StoryMeta struct {
	Text   string `json:"story"`
	Source string `json:"source,omitempty"`
	Model  string `json:"model,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Sentiment is the POST /feedback/analyze response.
type Sentiment struct {
	Score float64 `json:"sentiment"`
	Label string  `json:"label"`
}
