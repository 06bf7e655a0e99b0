package transports

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"
)

// startEchoServer runs a line-based server that answers "PING" with "PONG".
func startEchoServer(t *testing.T) (host string, port int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				r := bufio.NewReader(c)
				for {
					line, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if strings.TrimSpace(line) == "PING" {
						c.Write([]byte("PONG\n"))
					}
				}
			}(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func TestDialTCP(t *testing.T) {
	host, port := startEchoServer(t)

	tr, err := DialTCP(TCPConfig{Host: host, Port: port, Timeout: time.Second})
	if err != nil {
		t.Fatalf("DialTCP failed: %v", err)
	}
	defer tr.Close()

	if _, err := tr.Write([]byte("PING\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	buf := make([]byte, 64)
	n, err := tr.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := string(buf[:n]); got != "PONG\n" {
		t.Errorf("response: got %q, want %q", got, "PONG\n")
	}
}

func TestDialTCP_ReadTimeoutIsQuiet(t *testing.T) {
	host, port := startEchoServer(t)

	tr, err := DialTCP(TCPConfig{Host: host, Port: port, Timeout: time.Second})
	if err != nil {
		t.Fatalf("DialTCP failed: %v", err)
	}
	defer tr.Close()

	// A timed-out read must look like a serial port with nothing to say:
	// zero bytes, nil error.
	tr.SetReadTimeout(50 * time.Millisecond)
	buf := make([]byte, 16)
	n, err := tr.Read(buf)
	if n != 0 || err != nil {
		t.Errorf("timed-out read: got n=%d err=%v, want 0, nil", n, err)
	}
}

func TestDialTCP_Refused(t *testing.T) {
	// Grab a port and close it again so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	if _, err := DialTCP(TCPConfig{Host: "127.0.0.1", Port: port, Timeout: time.Second}); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestDialTCP_RequiresHost(t *testing.T) {
	if _, err := DialTCP(TCPConfig{}); err == nil {
		t.Fatal("expected error for missing host")
	}
}
