// Package client is the HTTP wrapper around the feedback backend.
//
// Every request carries the persisted bearer token (when there is one) and a
// fresh X-Request-ID. Every 401 response, whichever call triggered it, is
// reported to the handlers registered with OnUnauthorized before the error
// is returned to the caller.
package client

import (
	"context"

	"github.com/dmitrijs2005/feedpulse/internal/client/models"
)

// Client lists the backend operations the CLI uses.
type Client interface {
	Signup(ctx context.Context, req models.Signup) (*models.User, error)
	Login(ctx context.Context, req models.Credentials) (*models.Token, error)
	Me(ctx context.Context) (*models.User, error)

	Submit(ctx context.Context, text string) (*models.FeedbackItem, error)
	History(ctx context.Context, skip, limit int) ([]models.FeedbackItem, error)
	Feedback(ctx context.Context, id int64) (*models.FeedbackItem, error)
	UpdateFeedback(ctx context.Context, id int64, text string) (*models.FeedbackItem, error)
	DeleteFeedback(ctx context.Context, id int64) error

	Analyze(ctx context.Context, text string) (*models.Sentiment, error)
	GenerateStory(ctx context.Context, text string) (*models.StoryMeta, error)
	PreviewInsights(ctx context.Context, text string) (*models.Insights, error)
	CurrentInsights(ctx context.Context) (*models.Insights, error)

	Ping(ctx context.Context) error
	OnUnauthorized(fn func(ctx context.Context))
}

// TokenSource yields the persisted access token, "" when logged out.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

type tokenKey struct{}

// WithToken makes requests issued with ctx use token instead of the
// persisted one. Login uses it to fetch the user before anything is saved.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token set by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey{}).(string)
	return t, ok
}
