package connect

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectivity marks transport-level failures reaching the store.
	// Drivers wrap their network errors with it.
	ErrConnectivity = errors.New("docket: store unreachable")

	// ErrAuthentication is matched by every *AuthError.
	ErrAuthentication = errors.New("docket: authentication failed")

	// ErrClosed is returned by a Manager after Close.
	ErrClosed = errors.New("docket: connection manager closed")
)

// AuthError reports rejected credentials. It is terminal: the Manager never
// retries authentication on its own.
type AuthError struct {
	Host     string
	Port     int
	Database string
	User     string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("docket: unable to authenticate %s@%s:%d/%s: %v", e.User, e.Host, e.Port, e.Database, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is reports ErrAuthentication.
func (e *AuthError) Is(target error) bool { return target == ErrAuthentication }
