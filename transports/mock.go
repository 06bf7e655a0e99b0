package transports

import (
	"bytes"
	"io"
	"time"
)

// MockTransport implements the transport contract for testing.
type MockTransport struct {
	ReadData    []byte
	ReadErr     error
	WriteData   []byte
	WriteErr    error
	Closed      bool
	ReadTimeout time.Duration
	Flushed     bool

	// ReadFunc allows custom read behavior for complex tests
	ReadFunc func(p []byte) (int, error)

	// Handler, if set, plays the instrument: each newline-terminated
	// command written to the transport is passed to it, and whatever it
	// returns is queued as read data. Return nil for commands that have
	// no reply.
	Handler func(cmd string) []byte

	pending []byte
}

func (m *MockTransport) Read(p []byte) (int, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	n := copy(p, m.ReadData)
	m.ReadData = m.ReadData[n:]
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (m *MockTransport) Write(p []byte) (int, error) {
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	m.WriteData = append(m.WriteData, p...)

	if m.Handler != nil {
		m.pending = append(m.pending, p...)
		for {
			idx := bytes.IndexByte(m.pending, '\n')
			if idx < 0 {
				break
			}
			cmd := string(bytes.TrimRight(m.pending[:idx], "\r"))
			m.pending = m.pending[idx+1:]
			if reply := m.Handler(cmd); reply != nil {
				m.ReadData = append(m.ReadData, reply...)
			}
		}
	}

	return len(p), nil
}

func (m *MockTransport) Close() error {
	m.Closed = true
	return nil
}

func (m *MockTransport) SetReadTimeout(timeout time.Duration) error {
	m.ReadTimeout = timeout
	return nil
}

func (m *MockTransport) Flush() error {
	m.Flushed = true
	// Don't clear ReadData - tests need to preserve mock response data
	return nil
}

// Commands returns the newline-delimited commands written so far.
func (m *MockTransport) Commands() []string {
	var cmds []string
	for _, line := range bytes.Split(m.WriteData, []byte{'\n'}) {
		if len(line) > 0 {
			cmds = append(cmds, string(bytes.TrimRight(line, "\r")))
		}
	}
	return cmds
}
