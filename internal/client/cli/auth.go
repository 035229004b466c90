package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/feedpulse/internal/client/session"
	"github.com/dmitrijs2005/feedpulse/internal/common"
)

var (
	ErrLoginRequired = errors.New("login required")
	ErrRejected      = errors.New("rejected")
)

// awaitSession blocks until the stored session has been checked, so that a
// login typed during startup is not overwritten by the startup check.
func (a *App) awaitSession(ctx context.Context) error {
	select {
	case <-a.session.Ready():
		return nil
	default:
	}

	fmt.Fprintln(a.out, "Checking stored session...")
	select {
	case <-a.session.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Signup prompts for a username, email and password and creates an
// account. The session is not changed; the user logs in afterwards.
func (a *App) Signup(ctx context.Context) error {
	if err := a.awaitSession(ctx); err != nil {
		return err
	}

	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res := a.session.Signup(ctx, username, email, string(password))
	if !res.OK {
		fmt.Fprintln(a.out, res.Message)
		return fmt.Errorf("%w: %s", ErrRejected, res.Message)
	}

	fmt.Fprintln(a.out, "Account created. You can log in now.")
	return nil
}

// Login prompts the user for credentials and tries to authenticate.
//
// The password is wiped before returning. A rejected login is reported to
// the user and returned as ErrRejected.
func (a *App) Login(ctx context.Context) error {
	if err := a.awaitSession(ctx); err != nil {
		return err
	}

	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res := a.session.Login(ctx, username, string(password))
	if !res.OK {
		a.log.Info(ctx, "login unsuccessful", "user", username)
		fmt.Fprintln(a.out, res.Message)
		return fmt.Errorf("%w: %s", ErrRejected, res.Message)
	}

	name := username
	if u := a.session.Snapshot().User; u != nil {
		name = u.Username
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", name)
	return nil
}

// Logout ends the session locally; no server call is made.
func (a *App) Logout(ctx context.Context) error {
	if err := a.awaitSession(ctx); err != nil {
		return err
	}

	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	if err := a.awaitSession(ctx); err != nil {
		return err
	}

	snap := a.session.Snapshot()
	if snap.State != session.Authenticated {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	if snap.User == nil {
		fmt.Fprintln(a.out, "Logged in.")
		return nil
	}

	fmt.Fprintf(a.out, "%s <%s> (id %d)\n", snap.User.Username, snap.User.Email, snap.User.ID)
	return nil
}

// onSessionChange runs on every session transition.
func (a *App) onSessionChange(snap session.Snapshot) {
	if snap.State != session.Authenticated {
		a.feedback.Reset()
	}
	if snap.Expired {
		fmt.Fprintln(a.out, "Session expired, please log in again.")
	}
}
