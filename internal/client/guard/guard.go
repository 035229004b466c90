// Package guard decides whether a protected command may run.
package guard

import "github.com/dmitrijs2005/feedpulse/internal/client/session"

type Decision int

const (
	// Wait means the session is still loading; show a waiting indicator.
	Wait Decision = iota
	Render
	// Redirect means the user has to log in first.
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// StateSource is implemented by *session.Store.
type StateSource interface {
	State() session.State
}

type Guard struct {
	src StateSource
}

func New(src StateSource) *Guard {
	return &Guard{src: src}
}

// Decide reads the current state on every call; nothing is cached because a
// 401 may end the session between two commands.
func (g *Guard) Decide() Decision {
	return DecideFor(g.src.State())
}

func DecideFor(s session.State) Decision {
	switch s {
	case session.Loading:
		return Wait
	case session.Authenticated:
		return Render
	default:
		return Redirect
	}
}
