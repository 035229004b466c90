package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/feedpulse/internal/client/models"
	"github.com/dmitrijs2005/feedpulse/internal/client/services"
	"github.com/dmitrijs2005/feedpulse/internal/client/session"
)

type fakeStore struct {
	mu    sync.Mutex
	snap  session.Snapshot
	ready chan struct{}

	loginRes  session.Result
	signupRes session.Result
	loginUser *models.User

	gotUser  string
	gotPass  string
	gotEmail string
	logouts  int
	inits    int

	listeners []func(session.Snapshot)
}

func newFakeStore(state session.State) *fakeStore {
	f := &fakeStore{snap: session.Snapshot{State: state}, ready: make(chan struct{})}
	if state != session.Loading {
		close(f.ready)
	}
	return f
}

func (f *fakeStore) set(s session.Snapshot) {
	f.mu.Lock()
	f.snap = s
	ls := append([]func(session.Snapshot){}, f.listeners...)
	f.mu.Unlock()
	for _, l := range ls {
		l(s)
	}
}

func (f *fakeStore) Initialize(context.Context) {
	f.mu.Lock()
	f.inits++
	f.mu.Unlock()
}

func (f *fakeStore) Login(_ context.Context, username, password string) session.Result {
	f.gotUser, f.gotPass = username, password
	if f.loginRes.OK {
		f.set(session.Snapshot{State: session.Authenticated, Token: "t", User: f.loginUser})
	}
	return f.loginRes
}

func (f *fakeStore) Signup(_ context.Context, username, email, password string) session.Result {
	f.gotUser, f.gotEmail, f.gotPass = username, email, password
	return f.signupRes
}

func (f *fakeStore) Logout(context.Context) {
	f.logouts++
	f.set(session.Snapshot{State: session.Anonymous})
}

func (f *fakeStore) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeStore) State() session.State { return f.Snapshot().State }

func (f *fakeStore) Ready() <-chan struct{} { return f.ready }

func (f *fakeStore) Subscribe(fn func(session.Snapshot)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {}
}

type fakeFeedback struct {
	services.FeedbackService

	submitItem *models.FeedbackItem
	submitErr  error
	gotText    string

	history    []models.FeedbackItem
	historyErr error
	gotReload  bool

	getItem *models.FeedbackItem
	getErr  error

	deleted   []int64
	deleteErr error

	insights    *models.Insights
	insightsErr error

	resets int
}

func (f *fakeFeedback) Submit(_ context.Context, text string) (*models.FeedbackItem, error) {
	f.gotText = text
	return f.submitItem, f.submitErr
}

func (f *fakeFeedback) History(_ context.Context, reload bool) ([]models.FeedbackItem, error) {
	f.gotReload = reload
	return f.history, f.historyErr
}

func (f *fakeFeedback) Get(_ context.Context, id int64) (*models.FeedbackItem, error) {
	return f.getItem, f.getErr
}

func (f *fakeFeedback) Update(_ context.Context, id int64, text string) (*models.FeedbackItem, error) {
	f.gotText = text
	return &models.FeedbackItem{ID: id, Text: text}, nil
}

func (f *fakeFeedback) Delete(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeFeedback) Analyze(_ context.Context, text string) (*models.Sentiment, error) {
	f.gotText = text
	return &models.Sentiment{Score: -0.42, Label: "negative"}, nil
}

func (f *fakeFeedback) Story(_ context.Context, text string) (*models.StoryMeta, error) {
	return &models.StoryMeta{Text: "[mock story] As a user, I want to resolve: '" + text + "'"}, nil
}

func (f *fakeFeedback) PreviewInsights(_ context.Context, text string) (*models.Insights, error) {
	return &models.Insights{Summary: "preview of " + text, Source: "huggingface"}, nil
}

func (f *fakeFeedback) CurrentInsights(context.Context) (*models.Insights, error) {
	return f.insights, f.insightsErr
}

func (f *fakeFeedback) Dashboard(ctx context.Context) services.Dashboard {
	var d services.Dashboard
	d.History, d.HistoryErr = f.history, f.historyErr
	d.Insights, d.InsightsErr = f.insights, f.insightsErr
	return d
}

func (f *fakeFeedback) Reset() { f.resets++ }

type fakePinger struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (p *fakePinger) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func (p *fakePinger) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// testApp builds an App reading input and writing to the returned buffer.
func testApp(t *testing.T, store SessionStore, fs services.FeedbackService, input string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a := newApp(store, fs, &fakePinger{}, nil, strings.NewReader(input), &out)
	return a, &out
}

// stubInputs replaces the interactive prompts for the duration of the test.
func stubInputs(t *testing.T, texts []string, password string) {
	t.Helper()
	origST, origGP, origML := getSimpleText, getPassword, getMultiline

	next := func() string {
		if len(texts) == 0 {
			return ""
		}
		s := texts[0]
		texts = texts[1:]
		return s
	}
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(password), nil }

	t.Cleanup(func() {
		getSimpleText, getPassword, getMultiline = origST, origGP, origML
	})
}
