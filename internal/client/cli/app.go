package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/feedpulse/internal/client/client"
	"github.com/dmitrijs2005/feedpulse/internal/client/config"
	"github.com/dmitrijs2005/feedpulse/internal/client/guard"
	"github.com/dmitrijs2005/feedpulse/internal/client/services"
	"github.com/dmitrijs2005/feedpulse/internal/client/session"
	"github.com/dmitrijs2005/feedpulse/internal/client/storage"
	"github.com/dmitrijs2005/feedpulse/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

// SessionStore is implemented by *session.Store.
type SessionStore interface {
	Initialize(ctx context.Context)
	Login(ctx context.Context, username, password string) session.Result
	Signup(ctx context.Context, username, email, password string) session.Result
	Logout(ctx context.Context)
	Snapshot() session.Snapshot
	State() session.State
	Ready() <-chan struct{}
	Subscribe(fn func(session.Snapshot)) func()
}

// Pinger checks backend liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	session  SessionStore
	feedback services.FeedbackService
	pinger   Pinger
	guard    *guard.Guard
	log      logging.Logger
	interval time.Duration

	reader *bufio.Reader
	out    io.Writer

	mu   sync.RWMutex
	mode Mode

	db *sql.DB
}

// NewApp opens the session database and wires the HTTP client, the session
// store and the feedback service.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := storage.Open(ctx, c.DBPath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DBPath, "error", err)
		return nil, err
	}

	persisted := storage.NewSession(db)

	api, err := client.New(c.ServerBaseURL, persisted,
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(log),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := session.NewStore(api, persisted, log)
	api.OnUnauthorized(store.HandleUnauthorized)

	a := newApp(store, services.NewFeedbackService(api), api, log, os.Stdin, os.Stdout)
	a.interval = c.HealthCheckInterval
	a.db = db
	return a, nil
}

func newApp(store SessionStore, fs services.FeedbackService, p Pinger, log logging.Logger, in io.Reader, out io.Writer) *App {
	if log == nil {
		log = logging.Discard()
	}
	return &App{
		session:  store,
		feedback: fs,
		pinger:   p,
		guard:    guard.New(store),
		log:      log.With("component", "cli"),
		interval: config.DefaultHealthCheckInterval,
		reader:   bufio.NewReader(in),
		out:      &lockedWriter{w: out},
	}
}

// Close releases the session database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "switched mode", "mode", string(mode))
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == session.Authenticated
}

// StartOnlineStatusWatcher pings the backend every interval until ctx is
// done and records the outcome as the current Mode.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.checkOnline(ctx)
	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.pinger.Ping(pctx)
	cancel()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}

func (a *App) getStatus() string {
	s := ""
	if snap := a.session.Snapshot(); snap.State == session.Authenticated && snap.User != nil {
		s = snap.User.Username + " "
	}
	if m := a.Mode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// lockedWriter serialises output from the REPL and background goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
