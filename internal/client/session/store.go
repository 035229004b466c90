// Package session owns the client's belief about who is logged in.
//
// The Store moves through Loading -> {Anonymous, Authenticated} on
// Initialize, Anonymous -> Authenticated on Login and back on Logout or on
// any 401 reported by the HTTP client. It is the only writer of the
// persisted token/user pair.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/feedpulse/internal/client/client"
	"github.com/dmitrijs2005/feedpulse/internal/client/models"
	"github.com/dmitrijs2005/feedpulse/internal/client/validation"
	"github.com/dmitrijs2005/feedpulse/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

const (
	MsgCannotConnect = "Cannot connect to server. Please make sure the backend is running."
	MsgLoginFailed   = "Login failed"
	MsgSignupFailed  = "Signup failed"
)

// AuthAPI is the part of the backend the store talks to.
type AuthAPI interface {
	Login(ctx context.Context, req models.Credentials) (*models.Token, error)
	Signup(ctx context.Context, req models.Signup) (*models.User, error)
	Me(ctx context.Context) (*models.User, error)
}

// Persistence stores the token/user pair durably.
type Persistence interface {
	Load(ctx context.Context) (string, *models.User, error)
	Save(ctx context.Context, token string, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	Clear(ctx context.Context) error
}

type listener struct {
	id int
	fn func(Snapshot)
}

type Store struct {
	api     AuthAPI
	persist Persistence
	log     logging.Logger
	now     func() time.Time

	// opMu orders writes to the persisted pair with the state change that
	// goes with them.
	opMu sync.Mutex

	mu        sync.RWMutex
	snap      Snapshot
	listeners []listener
	nextID    int

	ready     chan struct{}
	readyOnce sync.Once
}

func NewStore(api AuthAPI, persist Persistence, log logging.Logger) *Store {
	if log == nil {
		log = logging.Discard()
	}
	return &Store{
		api:     api,
		persist: persist,
		log:     log.With("component", "session"),
		now:     time.Now,
		snap:    Snapshot{State: Loading},
		ready:   make(chan struct{}),
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) State() State {
	return s.Snapshot().State
}

// Ready is closed once the store first leaves Loading.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Subscribe registers fn to be called after every state change. Calls happen
// outside the store lock, on the goroutine that caused the change. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// swap installs next and returns the listeners to notify. Callers hold opMu.
func (s *Store) swap(next Snapshot) []listener {
	s.mu.Lock()
	s.snap = next
	ls := make([]listener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()

	if next.State != Loading {
		s.readyOnce.Do(func() { close(s.ready) })
	}
	return ls
}

func notify(next Snapshot, ls []listener) {
	for _, l := range ls {
		l.fn(next)
	}
}

// settle ends Initialize with next. If a logout, login or 401 has already
// moved the store out of Loading, the result is dropped and storage is left
// alone.
func (s *Store) settle(ctx context.Context, next Snapshot, wipe bool) {
	if ls, ok := s.settleLocked(ctx, next, wipe); ok {
		notify(next, ls)
	}
}

func (s *Store) settleLocked(ctx context.Context, next Snapshot, wipe bool) ([]listener, bool) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if cur := s.State(); cur != Loading {
		s.log.Info(ctx, "session changed during startup check, result dropped", "state", cur)
		return nil, false
	}

	switch {
	case wipe:
		s.clear(ctx)
	case next.State == Authenticated:
		if err := s.persist.SaveUser(ctx, next.User); err != nil {
			s.log.Warn(ctx, "could not refresh stored user", "error", err)
		}
	}
	return s.swap(next), true
}

// reset clears storage and moves to Anonymous whatever the current state.
func (s *Store) reset(ctx context.Context, expiredIfAuth bool) {
	next, ls := func() (Snapshot, []listener) {
		s.opMu.Lock()
		defer s.opMu.Unlock()

		was := s.State()
		s.clear(ctx)
		next := Snapshot{State: Anonymous, Expired: expiredIfAuth && was == Authenticated}
		return next, s.swap(next)
	}()
	notify(next, ls)
}

// Initialize restores the session from storage and checks the token with
// the backend. It never fails: every problem ends in Anonymous.
func (s *Store) Initialize(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(ctx, "session initialization panicked", "panic", r)
			s.settle(ctx, Snapshot{State: Anonymous}, true)
		}
	}()

	token, user, err := s.persist.Load(ctx)
	if err != nil {
		s.log.Warn(ctx, "could not read stored session", "error", err)
		s.settle(ctx, Snapshot{State: Anonymous}, true)
		return
	}
	if token == "" {
		s.settle(ctx, Snapshot{State: Anonymous}, false)
		return
	}

	s.mu.Lock()
	if s.snap.State == Loading {
		s.snap.User = user
	}
	s.mu.Unlock()

	if tokenExpired(token, s.now()) {
		s.log.Info(ctx, "stored token expired")
		s.settle(ctx, Snapshot{State: Anonymous}, true)
		return
	}

	me, err := s.api.Me(client.WithToken(ctx, token))
	if err != nil {
		s.log.Info(ctx, "stored token rejected", "error", err)
		s.settle(ctx, Snapshot{State: Anonymous}, true)
		return
	}

	s.settle(ctx, Snapshot{State: Authenticated, Token: token, User: me}, false)
}

// Login authenticates, fetches the user and stores both. It never returns
// an error; failures are described by Result.Message.
func (s *Store) Login(ctx context.Context, username, password string) Result {
	creds := models.Credentials{Username: strings.TrimSpace(username), Password: password}
	if err := validation.Struct(creds); err != nil {
		return failure(err.Error())
	}

	tok, err := s.api.Login(ctx, creds)
	if err != nil {
		s.log.Info(ctx, "login rejected", "user", creds.Username, "error", err)
		return failure(describe(err, MsgLoginFailed))
	}

	user, err := s.api.Me(client.WithToken(ctx, tok.AccessToken))
	if err != nil {
		s.log.Info(ctx, "fetching user after login failed", "user", creds.Username, "error", err)
		return failure(describe(err, MsgLoginFailed))
	}

	next := Snapshot{State: Authenticated, Token: tok.AccessToken, User: user}
	ls, err := s.commitLogin(ctx, next)
	if err != nil {
		s.log.Error(ctx, "could not store session", "error", err)
		return failure(describe(fmt.Errorf("could not store session: %w", err), MsgLoginFailed))
	}
	notify(next, ls)
	s.log.Info(ctx, "logged in", "user", user.Username)
	return Result{OK: true}
}

func (s *Store) commitLogin(ctx context.Context, next Snapshot) ([]listener, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.persist.Save(ctx, next.Token, next.User); err != nil {
		return nil, err
	}
	return s.swap(next), nil
}

// Signup creates an account. The session is left untouched either way.
func (s *Store) Signup(ctx context.Context, username, email, password string) Result {
	req := models.Signup{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := validation.Struct(req); err != nil {
		return failure(err.Error())
	}

	if _, err := s.api.Signup(ctx, req); err != nil {
		s.log.Info(ctx, "signup rejected", "user", req.Username, "error", err)
		return failure(describe(err, MsgSignupFailed))
	}
	return Result{OK: true}
}

// Logout clears the session. The in-memory state is cleared even when the
// stored pair cannot be removed.
func (s *Store) Logout(ctx context.Context) {
	s.reset(ctx, false)
}

// HandleUnauthorized is registered with the HTTP client and runs on every
// 401, whoever issued the request.
func (s *Store) HandleUnauthorized(ctx context.Context) {
	s.reset(ctx, true)
}

func (s *Store) clear(ctx context.Context) {
	if err := s.persist.Clear(ctx); err != nil {
		s.log.Error(ctx, "could not clear stored session", "error", err)
	}
}

// describe turns a login/signup error into a user-facing message.
func describe(err error, fallback string) string {
	if client.IsUnavailable(err) {
		return MsgCannotConnect
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}

// tokenExpired reads exp without verifying the signature; the backend still
// has the final word on tokens that pass this check.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
