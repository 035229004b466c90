// Package services contains application services for the FeedPulse client.
// This file defines the feedback service: submit, history with a local
// cache, single-item operations and the one-shot AI endpoints.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/feedpulse/internal/client/models"
	"github.com/dmitrijs2005/feedpulse/internal/client/validation"
	"golang.org/x/sync/errgroup"
)

// HistoryPageSize is the limit sent with GET /feedback/history.
const HistoryPageSize = 100

// FeedbackAPI is the part of client.Client the service needs.
type FeedbackAPI interface {
	Submit(ctx context.Context, text string) (*models.FeedbackItem, error)
	History(ctx context.Context, skip, limit int) ([]models.FeedbackItem, error)
	Feedback(ctx context.Context, id int64) (*models.FeedbackItem, error)
	UpdateFeedback(ctx context.Context, id int64, text string) (*models.FeedbackItem, error)
	DeleteFeedback(ctx context.Context, id int64) error
	Analyze(ctx context.Context, text string) (*models.Sentiment, error)
	GenerateStory(ctx context.Context, text string) (*models.StoryMeta, error)
	PreviewInsights(ctx context.Context, text string) (*models.Insights, error)
	CurrentInsights(ctx context.Context) (*models.Insights, error)
}

// FeedbackService defines feedback operations for the CLI.
//
// Text inputs are trimmed and validated before any request is made; a
// *validation.Error is returned for rejected input. History is served from
// a cache filled on first use and refreshed on reload. Submit, Update and
// Delete keep the cache in step with what this client did; changes made
// elsewhere show up only after a reload.
type FeedbackService interface {
	Submit(ctx context.Context, text string) (*models.FeedbackItem, error)
	History(ctx context.Context, reload bool) ([]models.FeedbackItem, error)
	Get(ctx context.Context, id int64) (*models.FeedbackItem, error)
	Update(ctx context.Context, id int64, text string) (*models.FeedbackItem, error)
	Delete(ctx context.Context, id int64) error
	Analyze(ctx context.Context, text string) (*models.Sentiment, error)
	Story(ctx context.Context, text string) (*models.StoryMeta, error)
	PreviewInsights(ctx context.Context, text string) (*models.Insights, error)
	CurrentInsights(ctx context.Context) (*models.Insights, error)
	Dashboard(ctx context.Context) Dashboard
	// Reset drops the cache; called when the session ends.
	Reset()
}

// Dashboard holds independently fetched panels. Each panel carries its own
// error so one failure does not hide the other panel.
type Dashboard struct {
	History     []models.FeedbackItem
	HistoryErr  error
	Insights    *models.Insights
	InsightsErr error
}

type feedbackService struct {
	api FeedbackAPI

	mu     sync.Mutex
	items  []models.FeedbackItem
	loaded bool
	// gen is bumped by Reset; responses to requests started under an older
	// generation are not cached.
	gen uint64
}

func (s *feedbackService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func NewFeedbackService(api FeedbackAPI) FeedbackService {
	return &feedbackService{api: api}
}

func validText(text string) (string, error) {
	in := models.FeedbackInput{Text: strings.TrimSpace(text)}
	if err := validation.Struct(in); err != nil {
		return "", err
	}
	return in.Text, nil
}

func (s *feedbackService) Submit(ctx context.Context, text string) (*models.FeedbackItem, error) {
	text, err := validText(text)
	if err != nil {
		return nil, err
	}

	gen := s.generation()
	item, err := s.api.Submit(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("error submitting feedback: %w", err)
	}

	s.mu.Lock()
	if s.loaded && s.gen == gen {
		s.items = append([]models.FeedbackItem{*item}, s.items...)
	}
	s.mu.Unlock()

	return item, nil
}

func (s *feedbackService) History(ctx context.Context, reload bool) ([]models.FeedbackItem, error) {
	if !reload {
		s.mu.Lock()
		if s.loaded {
			out := append([]models.FeedbackItem(nil), s.items...)
			s.mu.Unlock()
			return out, nil
		}
		s.mu.Unlock()
	}

	gen := s.generation()
	items, err := s.api.History(ctx, 0, HistoryPageSize)
	if err != nil {
		return nil, fmt.Errorf("error loading history: %w", err)
	}

	s.mu.Lock()
	if s.gen == gen {
		s.items = append([]models.FeedbackItem(nil), items...)
		s.loaded = true
	}
	s.mu.Unlock()

	return items, nil
}

func (s *feedbackService) Get(ctx context.Context, id int64) (*models.FeedbackItem, error) {
	item, err := s.api.Feedback(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving feedback %d: %w", id, err)
	}
	return item, nil
}

func (s *feedbackService) Update(ctx context.Context, id int64, text string) (*models.FeedbackItem, error) {
	text, err := validText(text)
	if err != nil {
		return nil, err
	}

	gen := s.generation()
	item, err := s.api.UpdateFeedback(ctx, id, text)
	if err != nil {
		return nil, fmt.Errorf("error updating feedback %d: %w", id, err)
	}

	s.mu.Lock()
	for i := 0; s.gen == gen && i < len(s.items); i++ {
		if s.items[i].ID == id {
			s.items[i] = *item
			break
		}
	}
	s.mu.Unlock()

	return item, nil
}

func (s *feedbackService) Delete(ctx context.Context, id int64) error {
	if err := s.api.DeleteFeedback(ctx, id); err != nil {
		return fmt.Errorf("error deleting feedback %d: %w", id, err)
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	return nil
}

func (s *feedbackService) Analyze(ctx context.Context, text string) (*models.Sentiment, error) {
	text, err := validText(text)
	if err != nil {
		return nil, err
	}
	res, err := s.api.Analyze(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("error analyzing text: %w", err)
	}
	return res, nil
}

func (s *feedbackService) Story(ctx context.Context, text string) (*models.StoryMeta, error) {
	text, err := validText(text)
	if err != nil {
		return nil, err
	}
	res, err := s.api.GenerateStory(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("error generating story: %w", err)
	}
	return res, nil
}

func (s *feedbackService) PreviewInsights(ctx context.Context, text string) (*models.Insights, error) {
	text, err := validText(text)
	if err != nil {
		return nil, err
	}
	res, err := s.api.PreviewInsights(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("error extracting insights: %w", err)
	}
	return res, nil
}

func (s *feedbackService) CurrentInsights(ctx context.Context) (*models.Insights, error) {
	res, err := s.api.CurrentInsights(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading insights: %w", err)
	}
	return res, nil
}

// Dashboard loads a fresh history and the current insights concurrently.
func (s *feedbackService) Dashboard(ctx context.Context) Dashboard {
	var (
		d Dashboard
		g errgroup.Group
	)

	g.Go(func() error {
		d.History, d.HistoryErr = s.History(ctx, true)
		return nil
	})
	g.Go(func() error {
		d.Insights, d.InsightsErr = s.CurrentInsights(ctx)
		return nil
	})
	_ = g.Wait()

	return d
}

func (s *feedbackService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.loaded = false
	s.gen++
}
