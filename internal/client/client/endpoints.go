package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/feedpulse/internal/client/models"
)

type textRequest struct {
	Text string `json:"text"`
}

func (c *HTTPClient) Signup(ctx context.Context, req models.Signup) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Login(ctx context.Context, req models.Credentials) (*models.Token, error) {
	var t models.Token
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &t); err != nil {
		return nil, err
	}
	if t.AccessToken == "" {
		return nil, ErrNoToken
	}
	return &t, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Submit(ctx context.Context, text string) (*models.FeedbackItem, error) {
	var item models.FeedbackItem
	if err := c.do(ctx, http.MethodPost, "/feedback/submit", nil, textRequest{Text: text}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) History(ctx context.Context, skip, limit int) ([]models.FeedbackItem, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	items := []models.FeedbackItem{}
	if err := c.do(ctx, http.MethodGet, "/feedback/history", q, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func feedbackPath(id int64) string {
	return fmt.Sprintf("/feedback/%d", id)
}

func (c *HTTPClient) Feedback(ctx context.Context, id int64) (*models.FeedbackItem, error) {
	var item models.FeedbackItem
	if err := c.do(ctx, http.MethodGet, feedbackPath(id), nil, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) UpdateFeedback(ctx context.Context, id int64, text string) (*models.FeedbackItem, error) {
	var item models.FeedbackItem
	if err := c.do(ctx, http.MethodPut, feedbackPath(id), nil, textRequest{Text: text}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) DeleteFeedback(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, feedbackPath(id), nil, nil, nil)
}

func (c *HTTPClient) Analyze(ctx context.Context, text string) (*models.Sentiment, error) {
	var s models.Sentiment
	if err := c.do(ctx, http.MethodPost, "/feedback/analyze", nil, textRequest{Text: text}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) GenerateStory(ctx context.Context, text string) (*models.StoryMeta, error) {
	var s models.StoryMeta
	if err := c.do(ctx, http.MethodPost, "/feedback/generate-story", nil, textRequest{Text: text}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) PreviewInsights(ctx context.Context, text string) (*models.Insights, error) {
	var in models.Insights
	if err := c.do(ctx, http.MethodPost, "/feedback/insights", nil, textRequest{Text: text}, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (c *HTTPClient) CurrentInsights(ctx context.Context) (*models.Insights, error) {
	var in models.Insights
	if err := c.do(ctx, http.MethodGet, "/insights/current", nil, nil, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Ping checks that the backend answers on /health.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}
