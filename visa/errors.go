package visa

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout       = errors.New("communication timeout")
	ErrNoResponse    = errors.New("no response from instrument")
	ErrSessionClosed = errors.New("session is closed")
	ErrNotFound      = errors.New("instrument not found")
)

// ConnectError indicates that a session to a resource could not be
// established.
type ConnectError struct {
	Resource string // Resource identifier that failed to open
	Err      error  // Underlying error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Resource, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ProtocolError indicates the instrument rejected a command or returned a
// malformed response.
type ProtocolError struct {
	Op  string // Operation that failed (e.g., "query", "identify")
	Err error  // Underlying error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error during %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsTimeout returns true if the error is a timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsNoResponse returns true if the error indicates no response was received.
func IsNoResponse(err error) bool {
	return errors.Is(err, ErrNoResponse)
}
