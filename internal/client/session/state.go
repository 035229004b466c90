package session

import "github.com/dmitrijs2005/feedpulse/internal/client/models"

type State int

const (
	Loading State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the session at one point in time.
type Snapshot struct {
	State State
	Token string
	User  *models.User
	// Expired is set when the session ended because the backend rejected
	// the token.
	Expired bool
}

// Result is the outcome of Login or Signup.
type Result struct {
	OK      bool
	Message string
}

func failure(msg string) Result {
	return Result{Message: msg}
}
