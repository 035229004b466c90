package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrNoToken      = errors.New("login response carries no access token")
)

// APIError is a response received with an error status.
type APIError struct {
	Method string
	Path   string
	Status int
	// Detail is the server-provided message, if any.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("request failed with status code %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("request failed with status code %d", e.Status)
}

// Is lets callers match status classes with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// IsUnavailable reports whether err means no response was received.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
