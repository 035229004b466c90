package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/feedpulse/internal/client/client"
	"github.com/dmitrijs2005/feedpulse/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAPI struct {
	mu sync.Mutex

	loginTok *models.Token
	loginErr error
	meUser   *models.User
	meErr    error
	meToken  string
	meCalls  int
	meHook   func()
	signErr  error
	signReqs []models.Signup
	loginReq []models.Credentials
}

func (f *fakeAPI) Login(_ context.Context, req models.Credentials) (*models.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginReq = append(f.loginReq, req)
	return f.loginTok, f.loginErr
}

func (f *fakeAPI) Signup(_ context.Context, req models.Signup) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signReqs = append(f.signReqs, req)
	if f.signErr != nil {
		return nil, f.signErr
	}
	return &models.User{ID: 9, Username: req.Username, Email: req.Email}, nil
}

func (f *fakeAPI) Me(ctx context.Context) (*models.User, error) {
	f.mu.Lock()
	f.meCalls++
	f.meToken = tokenOf(ctx)
	hook := f.meHook
	u, err := f.meUser, f.meErr
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return u, err
}

func tokenOf(ctx context.Context) string {
	t, _ := client.TokenFromContext(ctx)
	return t
}

type fakePersist struct {
	mu       sync.Mutex
	token    string
	user     *models.User
	loadErr  error
	saveErr  error
	clearErr error
	clears   int
	panicOn  bool
}

func (f *fakePersist) Load(context.Context) (string, *models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn {
		panic("boom")
	}
	return f.token, f.user, f.loadErr
}

func (f *fakePersist) Save(_ context.Context, token string, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.token, f.user = token, user
	return nil
}

func (f *fakePersist) SaveUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = user
	return nil
}

func (f *fakePersist) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.token, f.user = "", nil
	return nil
}

func (f *fakePersist) pair() (string, *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.user
}

func jwtWithExp(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice", "exp": exp.Unix()})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func isReady(s *Store) bool {
	select {
	case <-s.Ready():
		return true
	default:
		return false
	}
}

var alice = &models.User{ID: 1, Username: "alice", Email: "alice@example.com"}

func TestNewStore_StartsLoading(t *testing.T) {
	s := NewStore(&fakeAPI{}, &fakePersist{}, nil)
	assert.Equal(t, Loading, s.State())
	assert.False(t, isReady(s))
}

func TestInitialize_NoToken(t *testing.T) {
	api := &fakeAPI{}
	s := NewStore(api, &fakePersist{}, nil)

	s.Initialize(context.Background())

	assert.Equal(t, Anonymous, s.State())
	assert.True(t, isReady(s))
	assert.Zero(t, api.meCalls)
}

func TestInitialize_ValidToken(t *testing.T) {
	fresh := &models.User{ID: 1, Username: "alice", Email: "new@example.com"}
	api := &fakeAPI{meUser: fresh}
	p := &fakePersist{token: "opaque-token", user: alice}
	s := NewStore(api, p, nil)

	s.Initialize(context.Background())

	snap := s.Snapshot()
	assert.Equal(t, Authenticated, snap.State)
	assert.Equal(t, "opaque-token", snap.Token)
	assert.Equal(t, fresh, snap.User)
	_, u := p.pair()
	assert.Equal(t, fresh, u)
	assert.Equal(t, "opaque-token", api.meToken)
	assert.True(t, isReady(s))
}

func TestInitialize_Rejected(t *testing.T) {
	for name, err := range map[string]error{
		"unauthorized": &client.APIError{Status: http.StatusUnauthorized},
		"unavailable":  fmt.Errorf("%w: dial tcp", client.ErrUnavailable),
		"server error": &client.APIError{Status: http.StatusInternalServerError},
	} {
		t.Run(name, func(t *testing.T) {
			p := &fakePersist{token: "opaque-token", user: alice}
			s := NewStore(&fakeAPI{meErr: err}, p, nil)

			s.Initialize(context.Background())

			assert.Equal(t, Anonymous, s.State())
			tok, u := p.pair()
			assert.Empty(t, tok)
			assert.Nil(t, u)
		})
	}
}

func TestInitialize_ExpiredJWTSkipsNetwork(t *testing.T) {
	api := &fakeAPI{meUser: alice}
	p := &fakePersist{token: jwtWithExp(t, time.Now().Add(-time.Hour)), user: alice}
	s := NewStore(api, p, nil)

	s.Initialize(context.Background())

	assert.Equal(t, Anonymous, s.State())
	assert.Zero(t, api.meCalls)
	tok, _ := p.pair()
	assert.Empty(t, tok)
}

func TestInitialize_UnexpiredJWTChecked(t *testing.T) {
	api := &fakeAPI{meUser: alice}
	p := &fakePersist{token: jwtWithExp(t, time.Now().Add(time.Hour))}
	s := NewStore(api, p, nil)

	s.Initialize(context.Background())

	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, 1, api.meCalls)
}

func TestInitialize_LoadError(t *testing.T) {
	p := &fakePersist{loadErr: errors.New("disk gone")}
	s := NewStore(&fakeAPI{}, p, nil)

	s.Initialize(context.Background())

	assert.Equal(t, Anonymous, s.State())
	assert.Equal(t, 1, p.clears)
}

func TestInitialize_Panic(t *testing.T) {
	p := &fakePersist{panicOn: true}
	s := NewStore(&fakeAPI{}, p, nil)

	assert.NotPanics(t, func() { s.Initialize(context.Background()) })
	assert.Equal(t, Anonymous, s.State())
	assert.True(t, isReady(s))
}

func TestInitialize_UserLagsTokenWhileLoading(t *testing.T) {
	p := &fakePersist{token: "opaque", user: alice}
	api := &fakeAPI{meUser: alice}
	s := NewStore(api, p, nil)

	var during Snapshot
	api.meHook = func() { during = s.Snapshot() }

	s.Initialize(context.Background())

	assert.Equal(t, Loading, during.State)
	assert.Equal(t, alice, during.User)
	assert.Empty(t, during.Token)
}

func TestInitialize_LogoutWhileCheckingToken(t *testing.T) {
	p := &fakePersist{token: "opaque", user: alice}
	api := &fakeAPI{meUser: alice}
	s := NewStore(api, p, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	api.meHook = func() {
		close(entered)
		<-release
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Initialize(context.Background())
	}()

	<-entered
	s.Logout(context.Background())
	require.Equal(t, Anonymous, s.State())

	close(release)
	<-done

	assert.Equal(t, Anonymous, s.State())
	tok, u := p.pair()
	assert.Empty(t, tok)
	assert.Nil(t, u)
}

func TestInitialize_UnauthorizedDuringCheckIsNotExpired(t *testing.T) {
	p := &fakePersist{token: "opaque", user: alice}
	api := &fakeAPI{meErr: &client.APIError{Status: http.StatusUnauthorized}}
	s := NewStore(api, p, nil)
	api.meHook = func() { s.HandleUnauthorized(context.Background()) }

	var got []Snapshot
	s.Subscribe(func(sn Snapshot) { got = append(got, sn) })

	s.Initialize(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, Snapshot{State: Anonymous}, got[0])
	tok, _ := p.pair()
	assert.Empty(t, tok)
}

func TestLogin_Success(t *testing.T) {
	api := &fakeAPI{loginTok: &models.Token{AccessToken: "new-token"}, meUser: alice}
	p := &fakePersist{}
	s := NewStore(api, p, nil)
	s.Initialize(context.Background())

	res := s.Login(context.Background(), "  alice ", "secret")

	assert.Equal(t, Result{OK: true}, res)
	snap := s.Snapshot()
	assert.Equal(t, Authenticated, snap.State)
	assert.Equal(t, "new-token", snap.Token)
	assert.Equal(t, alice, snap.User)

	tok, u := p.pair()
	assert.Equal(t, "new-token", tok)
	assert.Equal(t, alice, u)
	assert.Equal(t, "new-token", api.meToken)
	require.Len(t, api.loginReq, 1)
	assert.Equal(t, "alice", api.loginReq[0].Username)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		loginErr error
		meErr    error
		saveErr  error
		want     string
	}{
		{"server detail", &client.APIError{Status: 401, Detail: "Invalid credentials"}, nil, nil, "Invalid credentials"},
		{"no response", fmt.Errorf("%w: connection refused", client.ErrUnavailable), nil, nil, MsgCannotConnect},
		{"status without detail", &client.APIError{Status: 500}, nil, nil, "request failed with status code 500"},
		{"me fails", nil, &client.APIError{Status: 500, Detail: "db down"}, nil, "db down"},
		{"save fails", nil, nil, errors.New("disk full"), "could not store session: disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{loginTok: &models.Token{AccessToken: "tok"}, loginErr: tt.loginErr, meUser: alice, meErr: tt.meErr}
			p := &fakePersist{saveErr: tt.saveErr}
			s := NewStore(api, p, nil)
			s.Initialize(context.Background())

			res := s.Login(context.Background(), "alice", "secret")

			assert.False(t, res.OK)
			assert.Equal(t, tt.want, res.Message)
			assert.Equal(t, Anonymous, s.State())
			tok, _ := p.pair()
			assert.Empty(t, tok)
		})
	}
}

func TestLogin_ValidationBeforeNetwork(t *testing.T) {
	api := &fakeAPI{}
	s := NewStore(api, &fakePersist{}, nil)

	res := s.Login(context.Background(), "  ", "")

	assert.False(t, res.OK)
	assert.Equal(t, "username is required; password is required", res.Message)
	assert.Empty(t, api.loginReq)
}

func TestSignup_DoesNotTouchSession(t *testing.T) {
	api := &fakeAPI{meUser: alice}
	p := &fakePersist{token: "existing", user: alice}
	s := NewStore(api, p, nil)
	s.Initialize(context.Background())
	before := s.Snapshot()

	res := s.Signup(context.Background(), "bob", "bob@example.com", "secret1")

	assert.True(t, res.OK)
	assert.Equal(t, before, s.Snapshot())
	tok, _ := p.pair()
	assert.Equal(t, "existing", tok)
}

func TestSignup_Failures(t *testing.T) {
	s := NewStore(&fakeAPI{signErr: &client.APIError{Status: 400, Detail: "Username already registered"}}, &fakePersist{}, nil)
	s.Initialize(context.Background())

	res := s.Signup(context.Background(), "bob", "bob@example.com", "secret1")
	assert.Equal(t, Result{Message: "Username already registered"}, res)
	assert.Equal(t, Anonymous, s.State())

	res = s.Signup(context.Background(), "bo", "nope", "1")
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "email must be a valid email address")
}

func TestLogout(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		p := &fakePersist{token: "tok", user: alice}
		s := NewStore(&fakeAPI{meUser: alice}, p, nil)
		s.Initialize(context.Background())
		require.Equal(t, Authenticated, s.State())

		s.Logout(context.Background())

		assert.Equal(t, Snapshot{State: Anonymous}, s.Snapshot())
		tok, u := p.pair()
		assert.Empty(t, tok)
		assert.Nil(t, u)
	})

	t.Run("clear fails", func(t *testing.T) {
		p := &fakePersist{token: "tok", user: alice}
		s := NewStore(&fakeAPI{meUser: alice}, p, nil)
		s.Initialize(context.Background())
		p.clearErr = errors.New("locked")

		s.Logout(context.Background())

		assert.Equal(t, Anonymous, s.State())
	})

	t.Run("while loading", func(t *testing.T) {
		s := NewStore(&fakeAPI{}, &fakePersist{}, nil)
		s.Logout(context.Background())
		assert.Equal(t, Anonymous, s.State())
		assert.True(t, isReady(s))
	})
}

func TestHandleUnauthorized(t *testing.T) {
	p := &fakePersist{token: "tok", user: alice}
	s := NewStore(&fakeAPI{meUser: alice}, p, nil)
	s.Initialize(context.Background())

	var got []Snapshot
	unsub := s.Subscribe(func(sn Snapshot) { got = append(got, sn) })
	defer unsub()

	s.HandleUnauthorized(context.Background())
	s.HandleUnauthorized(context.Background())

	require.Len(t, got, 2)
	assert.Equal(t, Snapshot{State: Anonymous, Expired: true}, got[0])
	assert.Equal(t, Snapshot{State: Anonymous}, got[1])
	tok, _ := p.pair()
	assert.Empty(t, tok)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s := NewStore(&fakeAPI{}, &fakePersist{}, nil)

	var a, b int
	unsubA := s.Subscribe(func(Snapshot) { a++ })
	s.Subscribe(func(Snapshot) { b++ })

	s.Initialize(context.Background())
	unsubA()
	s.Logout(context.Background())

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestSubscribe_ListenerMayReadStore(t *testing.T) {
	s := NewStore(&fakeAPI{}, &fakePersist{}, nil)

	var seen State
	s.Subscribe(func(Snapshot) { seen = s.State() })

	s.Initialize(context.Background())
	assert.Equal(t, Anonymous, seen)
}

func TestStore_Concurrent(t *testing.T) {
	api := &fakeAPI{loginTok: &models.Token{AccessToken: "tok"}, meUser: alice}
	s := NewStore(api, &fakePersist{}, nil)
	s.Initialize(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); s.Login(context.Background(), "alice", "secret") }()
		go func() { defer wg.Done(); s.HandleUnauthorized(context.Background()) }()
		go func() { defer wg.Done(); _ = s.Snapshot() }()
	}
	wg.Wait()

	st := s.State()
	assert.Contains(t, []State{Anonymous, Authenticated}, st)
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, tokenExpired(jwtWithExp(t, now.Add(-time.Minute)), now))
	assert.False(t, tokenExpired(jwtWithExp(t, now.Add(time.Minute)), now))
	assert.False(t, tokenExpired("not-a-jwt", now))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("k"))
	require.NoError(t, err)
	assert.False(t, tokenExpired(noExp, now))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, MsgCannotConnect, describe(client.ErrUnavailable, MsgLoginFailed))
	assert.Equal(t, "x", describe(&client.APIError{Status: 400, Detail: "x"}, MsgLoginFailed))
	assert.Equal(t, "boom", describe(errors.New("boom"), MsgLoginFailed))
	assert.Equal(t, MsgSignupFailed, describe(errors.New(" "), MsgSignupFailed))
}
