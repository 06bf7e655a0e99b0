// Package visa provides message-based sessions to bench instruments over
// pluggable instrument-control bus transports.
package visa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sean-Baker-Logikos/LogikosTestToolAutomation/transports"
)

// quietGap is how long a raw read waits for further data before deciding the
// instrument has finished sending.
const quietGap = 100 * time.Millisecond

// Session is a message-based connection to a single instrument.
// A Session is exclusively owned by its caller; the mutex only guards
// against accidental concurrent misuse.
type Session struct {
	transport Transport
	resource  string
	readTerm  byte
	writeTerm string
	chunkSize int
	logger    Logger

	mu      sync.Mutex
	timeout time.Duration
	closed  bool
}

// SessionConfig holds configuration for opening a new Session.
type SessionConfig struct {
	// Transport is the underlying communication transport.
	// If nil, Resource must be specified.
	Transport Transport

	// Resource is the VISA resource identifier,
	// e.g. "TCPIP0::192.168.1.20::5025::SOCKET".
	// Ignored if Transport is provided.
	Resource string

	// Timeout bounds each blocking operation. Default is 5 seconds.
	Timeout time.Duration

	// BaudRate for ASRL resources. Default is 9600.
	BaudRate int

	// GPIBPort is the serial port of the Prologix USB-GPIB controller,
	// required for GPIB resources.
	GPIBPort string

	// ReadTermination terminates responses. Default is "\n".
	ReadTermination string

	// WriteTermination is appended to commands. Default is "\n".
	WriteTermination string

	// ChunkSize is the buffer size for raw reads. Default is 4096.
	ChunkSize int

	// Logger receives traffic trace events. Default is NoopLogger.
	Logger Logger
}

func (cfg *SessionConfig) applyDefaults() {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 9600
	}
	if cfg.ReadTermination == "" {
		cfg.ReadTermination = "\n"
	}
	if cfg.WriteTermination == "" {
		cfg.WriteTermination = "\n"
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 4096
	}
	if cfg.Logger == nil {
		cfg.Logger = NoopLogger{}
	}
}

// Open establishes a session with the given configuration. When no Transport
// is injected, the Resource identifier is parsed and the matching bus
// transport is dialed.
func Open(cfg SessionConfig) (*Session, error) {
	cfg.applyDefaults()

	transport := cfg.Transport
	resource := cfg.Resource
	if transport == nil {
		if cfg.Resource == "" {
			return nil, errors.New("either Transport or Resource must be specified")
		}

		info, err := ParseResource(cfg.Resource)
		if err != nil {
			return nil, &ConnectError{Resource: cfg.Resource, Err: err}
		}

		transport, err = dial(info, cfg)
		if err != nil {
			return nil, &ConnectError{Resource: cfg.Resource, Err: err}
		}
	} else if resource == "" {
		resource = "custom"
	}

	return &Session{
		transport: transport,
		resource:  resource,
		readTerm:  cfg.ReadTermination[len(cfg.ReadTermination)-1],
		writeTerm: cfg.WriteTermination,
		chunkSize: cfg.ChunkSize,
		logger:    cfg.Logger,
		timeout:   cfg.Timeout,
	}, nil
}

func dial(info ResourceInfo, cfg SessionConfig) (Transport, error) {
	switch info.Type {
	case ResourceTCPIP:
		return transports.DialTCP(transports.TCPConfig{
			Host:    info.Host,
			Port:    info.Port,
			Timeout: cfg.Timeout,
		})
	case ResourceSerial:
		return transports.OpenSerial(transports.SerialConfig{
			Port:     info.SerialPort,
			BaudRate: cfg.BaudRate,
			Timeout:  cfg.Timeout,
		})
	case ResourceGPIB:
		return transports.OpenGPIB(transports.GPIBConfig{
			ControllerPort: cfg.GPIBPort,
			Address:        info.GPIBAddress,
			Timeout:        cfg.Timeout,
		})
	case ResourceUSB:
		return transports.OpenUSBTMC(transports.USBTMCConfig{
			Resource: info.Raw,
			Timeout:  cfg.Timeout,
		})
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidResource, info.Raw)
}

// Resource returns the resource identifier this session was opened with.
func (s *Session) Resource() string {
	return s.resource
}

// Timeout returns the current per-operation timeout.
func (s *Session) Timeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

// SetTimeout changes the per-operation timeout. Long transfers such as
// instrument state downloads raise it temporarily.
func (s *Session) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

// Close closes the session and releases the transport.
// Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.transport.Close()
}

// Write sends a command with the write termination appended.
func (s *Session) Write(ctx context.Context, cmd string) error {
	return s.WriteRaw(ctx, []byte(cmd+s.writeTerm))
}

// WriteRaw sends bytes to the instrument exactly as given.
func (s *Session) WriteRaw(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	return s.writeLocked(ctx, data)
}

// Query sends a command and reads one terminated response line.
func (s *Session) Query(ctx context.Context, cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrSessionClosed
	}

	if err := s.writeLocked(ctx, []byte(cmd+s.writeTerm)); err != nil {
		return "", err
	}

	line, err := s.readLineLocked(ctx)
	if err != nil {
		return "", &ProtocolError{Op: "query " + cmd, Err: err}
	}

	return line, nil
}

// ReadRaw reads one response message as raw bytes: it waits up to the
// session timeout for the first byte, then keeps reading until the
// instrument goes quiet.
func (s *Session) ReadRaw(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	return s.readRawLocked(ctx)
}

// Identity holds the fields of a *IDN? response.
type Identity struct {
	Manufacturer string
	Model        string
	SerialNumber string
	Firmware     string
}

func (id Identity) String() string {
	return fmt.Sprintf("%s %s (SN %s, firmware %s)", id.Manufacturer, id.Model, id.SerialNumber, id.Firmware)
}

// Identify queries *IDN? and parses the standard four-field reply.
func (s *Session) Identify(ctx context.Context) (Identity, error) {
	resp, err := s.Query(ctx, "*IDN?")
	if err != nil {
		return Identity{}, err
	}

	fields := strings.Split(resp, ",")
	if len(fields) != 4 {
		return Identity{}, &ProtocolError{
			Op:  "identify",
			Err: fmt.Errorf("malformed *IDN? response %q", resp),
		}
	}

	return Identity{
		Manufacturer: strings.TrimSpace(fields[0]),
		Model:        strings.TrimSpace(fields[1]),
		SerialNumber: strings.TrimSpace(fields[2]),
		Firmware:     strings.TrimSpace(fields[3]),
	}, nil
}

// Internal methods

func (s *Session) writeLocked(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Flush any stale input before a new exchange
	s.transport.Flush()

	written := 0
	for written < len(data) {
		n, err := s.transport.Write(data[written:])
		if err != nil {
			return fmt.Errorf("write failed: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("write stalled: %d of %d bytes", written, len(data))
		}
		written += n
	}

	s.logger.Log(Event{Time: time.Now(), Dir: DirSend, Resource: s.resource, Data: data})

	return nil
}

func (s *Session) readLineLocked(ctx context.Context) (string, error) {
	var line []byte
	buf := make([]byte, 1)
	deadline := time.Now().Add(s.timeout)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if time.Now().After(deadline) {
			if len(line) == 0 {
				return "", ErrNoResponse
			}
			return "", fmt.Errorf("%w: unterminated response %q", ErrTimeout, line)
		}

		remaining := max(time.Until(deadline), 10*time.Millisecond)
		s.transport.SetReadTimeout(remaining)

		n, err := s.transport.Read(buf)
		if n == 0 {
			if err != nil {
				// Treat any empty read as a timeout tick and retry
				time.Sleep(time.Millisecond)
			}
			continue
		}

		if buf[0] == s.readTerm {
			break
		}
		line = append(line, buf[0])
	}

	s.logger.Log(Event{Time: time.Now(), Dir: DirReceive, Resource: s.resource, Data: line})

	return strings.TrimRight(string(line), "\r"), nil
}

func (s *Session) readRawLocked(ctx context.Context) ([]byte, error) {
	var out bytes.Buffer
	buf := make([]byte, s.chunkSize)
	deadline := time.Now().Add(s.timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if out.Len() == 0 {
			if time.Now().After(deadline) {
				return nil, ErrNoResponse
			}
			remaining := max(time.Until(deadline), 10*time.Millisecond)
			s.transport.SetReadTimeout(remaining)
		} else {
			// Data has started flowing; a quiet gap ends the message.
			s.transport.SetReadTimeout(quietGap)
		}

		n, err := s.transport.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
			continue
		}

		if out.Len() > 0 {
			break
		}
		if err != nil {
			time.Sleep(time.Millisecond)
		}
	}

	data := out.Bytes()
	s.logger.Log(Event{Time: time.Now(), Dir: DirReceive, Resource: s.resource, Data: data})

	return data, nil
}
