package cli

import (
	"context"
	"fmt"
	"sync"
)

// Run restores the session in the background, starts the health watcher
// and blocks in the REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.Close(); err != nil {
			a.log.Warn(ctx, "closing session database", "error", err)
		}
	}()

	unsubscribe := a.session.Subscribe(a.onSessionChange)
	defer unsubscribe()

	fmt.Fprintln(a.out, "Welcome to FeedPulse CLI (type 'help' for commands)")

	bgCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		a.session.Initialize(bgCtx)
	}()
	go func() {
		defer wg.Done()
		a.StartOnlineStatusWatcher(bgCtx, a.interval)
	}()

	runREPL(ctx, a, a.getStatus, a.reader, a.out)

	cancel()
	wg.Wait()
}
