package transports

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// TCPTransport implements the transport contract over a raw SCPI socket
// (TCPIP ...::SOCKET resources).
type TCPTransport struct {
	conn    net.Conn
	timeout time.Duration
}

// TCPConfig holds configuration for dialing a raw instrument socket.
type TCPConfig struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// DialTCP connects to an instrument's raw SCPI socket.
func DialTCP(cfg TCPConfig) (*TCPTransport, error) {
	if cfg.Host == "" {
		return nil, errors.New("host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 5025
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := net.DialTimeout("tcp", addr, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	return &TCPTransport{
		conn:    conn,
		timeout: cfg.Timeout,
	}, nil
}

func (t *TCPTransport) Read(p []byte) (int, error) {
	t.conn.SetReadDeadline(time.Now().Add(t.timeout))
	n, err := t.conn.Read(p)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			// Report a timed-out read the same way a serial port does:
			// zero bytes, no hard error.
			return n, nil
		}
	}
	return n, err
}

func (t *TCPTransport) Write(p []byte) (int, error) {
	t.conn.SetWriteDeadline(time.Now().Add(t.timeout))
	return t.conn.Write(p)
}

func (t *TCPTransport) Close() error {
	return t.conn.Close()
}

func (t *TCPTransport) SetReadTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

func (t *TCPTransport) Flush() error {
	// Drain anything the instrument sent since the last exchange.
	buf := make([]byte, 4096)
	for {
		t.conn.SetReadDeadline(time.Now().Add(10 * time.Millisecond))
		n, err := t.conn.Read(buf)
		if n == 0 || err != nil {
			break
		}
	}
	return nil
}

// RemoteAddr returns the address of the connected instrument.
func (t *TCPTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
