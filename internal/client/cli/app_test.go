package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/feedpulse/internal/client/models"
	"github.com/dmitrijs2005/feedpulse/internal/client/session"
	"github.com/stretchr/testify/assert"
)

func TestIsLoggedIn(t *testing.T) {
	store := newFakeStore(session.Anonymous)
	a, _ := testApp(t, store, &fakeFeedback{}, "")
	assert.False(t, a.isLoggedIn())

	store.set(session.Snapshot{State: session.Authenticated})
	assert.True(t, a.isLoggedIn())
}

func TestSetMode(t *testing.T) {
	a, _ := testApp(t, newFakeStore(session.Anonymous), &fakeFeedback{}, "")

	assert.Equal(t, Mode(""), a.Mode())
	a.setMode(ModeOnline)
	assert.Equal(t, ModeOnline, a.Mode())
	a.setMode(ModeOffline)
	assert.Equal(t, ModeOffline, a.Mode())
}

func TestGetStatus(t *testing.T) {
	store := newFakeStore(session.Anonymous)
	a, _ := testApp(t, store, &fakeFeedback{}, "")

	assert.Equal(t, "", a.getStatus())

	a.setMode(ModeOffline)
	assert.Equal(t, "(offline)", a.getStatus())

	store.set(session.Snapshot{State: session.Authenticated, User: &models.User{Username: "alice"}})
	a.setMode(ModeOnline)
	assert.Equal(t, "(alice online)", a.getStatus())
}

func TestStartOnlineStatusWatcher(t *testing.T) {
	p := &fakePinger{err: errors.New("down")}
	a, _ := testApp(t, newFakeStore(session.Anonymous), &fakeFeedback{}, "")
	a.pinger = p

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return a.Mode() == ModeOffline }, time.Second, 5*time.Millisecond)
	p.setErr(nil)
	assert.Eventually(t, func() bool { return a.Mode() == ModeOnline }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestStartOnlineStatusWatcher_Disabled(t *testing.T) {
	p := &fakePinger{}
	a, _ := testApp(t, newFakeStore(session.Anonymous), &fakeFeedback{}, "")
	a.pinger = p

	a.StartOnlineStatusWatcher(context.Background(), 0)
	assert.Zero(t, p.calls)
}

func TestClose_NoDB(t *testing.T) {
	a, _ := testApp(t, newFakeStore(session.Anonymous), &fakeFeedback{}, "")
	assert.NoError(t, a.Close())
}
