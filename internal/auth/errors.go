package auth

import (
	"errors"
	"fmt"
)

// ErrSessionEnded is matched (via errors.Is) by every error that means the
// stored credentials are gone and the user has to log in again.
var ErrSessionEnded = errors.New("session ended")

// ErrNoRefreshToken is the refresh failure used when the store holds no
// refresh token. No network call is made in that case.
var ErrNoRefreshToken = errors.New("no refresh token available")

// SessionEndedError is returned to every caller waiting on a refresh that
// failed, including the caller that drove it.
type SessionEndedError struct {
	Cause error
}

func (e *SessionEndedError) Error() string {
	if e.Cause == nil {
		return ErrSessionEnded.Error()
	}
	return fmt.Sprintf("%s: %v", ErrSessionEnded, e.Cause)
}

func (e *SessionEndedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrSessionEnded}
	}
	return []error{ErrSessionEnded, e.Cause}
}

// RefreshRejectedError is returned by HTTPRefresher when the refresh endpoint
// answers with anything other than 200.
type RefreshRejectedError struct {
	StatusCode int
	Detail     string
}

func (e *RefreshRejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("refresh rejected (HTTP %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("refresh rejected (HTTP %d)", e.StatusCode)
}

// IsSessionEnded reports whether err means the session is over.
func IsSessionEnded(err error) bool {
	return errors.Is(err, ErrSessionEnded)
}
