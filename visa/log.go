package visa

import "time"

// Direction marks whether an event carries data sent to or received from the
// instrument.
type Direction int

const (
	DirSend Direction = iota
	DirReceive
)

func (d Direction) String() string {
	if d == DirSend {
		return "->"
	}
	return "<-"
}

// Event is a single traffic trace record.
type Event struct {
	Time     time.Time
	Dir      Direction
	Resource string
	Data     []byte
}

// Logger is the interface applications implement to receive traffic trace
// events. Pass nil or NoopLogger to disable tracing.
type Logger interface {
	// Log records a trace event. Implementations must be thread-safe.
	Log(event Event)
}

// NoopLogger discards all events. Use when tracing is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
