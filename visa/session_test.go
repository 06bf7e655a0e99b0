package visa

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sean-Baker-Logikos/LogikosTestToolAutomation/transports"
)

func newTestSession(t *testing.T, mock *transports.MockTransport) *Session {
	t.Helper()

	sess, err := Open(SessionConfig{
		Transport: mock,
		Timeout:   200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { sess.Close() })

	return sess
}

func TestSession_Query(t *testing.T) {
	mock := &transports.MockTransport{
		ReadData: []byte("SDS1104X-E\n"),
	}
	sess := newTestSession(t, mock)

	resp, err := sess.Query(context.Background(), "MODEL?")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if resp != "SDS1104X-E" {
		t.Errorf("response: got %q, want %q", resp, "SDS1104X-E")
	}

	if got := string(mock.WriteData); got != "MODEL?\n" {
		t.Errorf("wire command: got %q, want %q", got, "MODEL?\n")
	}
}

func TestSession_QueryStripsCarriageReturn(t *testing.T) {
	mock := &transports.MockTransport{
		ReadData: []byte("1.25\r\n"),
	}
	sess := newTestSession(t, mock)

	resp, err := sess.Query(context.Background(), "TRLV?")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if resp != "1.25" {
		t.Errorf("response: got %q, want %q", resp, "1.25")
	}
}

func TestSession_QueryNoResponse(t *testing.T) {
	mock := &transports.MockTransport{}
	sess := newTestSession(t, mock)

	_, err := sess.Query(context.Background(), "INR?")
	if err == nil {
		t.Fatal("expected error for missing response")
	}
	if !IsNoResponse(err) {
		t.Errorf("expected ErrNoResponse, got %v", err)
	}

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Errorf("expected ProtocolError wrapper, got %T", err)
	}
}

func TestSession_QueryUnterminated(t *testing.T) {
	mock := &transports.MockTransport{
		ReadData: []byte("partial"),
	}
	sess := newTestSession(t, mock)

	_, err := sess.Query(context.Background(), "TDIV?")
	if !IsTimeout(err) {
		t.Errorf("expected ErrTimeout for unterminated response, got %v", err)
	}
}

func TestSession_QueryContextCanceled(t *testing.T) {
	mock := &transports.MockTransport{}
	sess := newTestSession(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sess.Query(ctx, "INR?")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSession_ReadRawCollectsChunks(t *testing.T) {
	chunks := [][]byte{
		[]byte("BM\x00\x01xxxx"),
		[]byte("yyyy"),
	}
	idx := 0
	mock := &transports.MockTransport{}
	mock.ReadFunc = func(p []byte) (int, error) {
		if idx >= len(chunks) {
			return 0, nil
		}
		n := copy(p, chunks[idx])
		idx++
		return n, nil
	}
	sess := newTestSession(t, mock)

	data, err := sess.ReadRaw(context.Background())
	if err != nil {
		t.Fatalf("ReadRaw failed: %v", err)
	}
	if got, want := string(data), "BM\x00\x01xxxxyyyy"; got != want {
		t.Errorf("data: got %q, want %q", got, want)
	}
}

func TestSession_ReadRawNoData(t *testing.T) {
	mock := &transports.MockTransport{}
	sess := newTestSession(t, mock)

	_, err := sess.ReadRaw(context.Background())
	if !IsNoResponse(err) {
		t.Errorf("expected ErrNoResponse, got %v", err)
	}
}

func TestSession_WriteRaw(t *testing.T) {
	mock := &transports.MockTransport{}
	sess := newTestSession(t, mock)

	payload := []byte("PNSU <state/>")
	if err := sess.WriteRaw(context.Background(), payload); err != nil {
		t.Fatalf("WriteRaw failed: %v", err)
	}

	if got := string(mock.WriteData); got != "PNSU <state/>" {
		t.Errorf("wire data: got %q, want no added termination", got)
	}
}

func TestSession_Closed(t *testing.T) {
	mock := &transports.MockTransport{}
	sess := newTestSession(t, mock)

	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if !mock.Closed {
		t.Error("transport was not closed")
	}

	if err := sess.Write(context.Background(), "*RST"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Write on closed session: got %v, want ErrSessionClosed", err)
	}
	if _, err := sess.Query(context.Background(), "*IDN?"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Query on closed session: got %v, want ErrSessionClosed", err)
	}
}

func TestSession_Identify(t *testing.T) {
	mock := &transports.MockTransport{
		Handler: func(cmd string) []byte {
			if cmd == "*IDN?" {
				return []byte("Siglent Technologies,SDS1104X-E,SDS1EBAC0XXXXX,7.6.1.15\n")
			}
			return nil
		},
	}
	sess := newTestSession(t, mock)

	id, err := sess.Identify(context.Background())
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}

	if id.Manufacturer != "Siglent Technologies" {
		t.Errorf("manufacturer: got %q", id.Manufacturer)
	}
	if id.Model != "SDS1104X-E" {
		t.Errorf("model: got %q", id.Model)
	}
	if id.SerialNumber != "SDS1EBAC0XXXXX" {
		t.Errorf("serial: got %q", id.SerialNumber)
	}
	if id.Firmware != "7.6.1.15" {
		t.Errorf("firmware: got %q", id.Firmware)
	}
}

func TestSession_IdentifyMalformed(t *testing.T) {
	mock := &transports.MockTransport{
		ReadData: []byte("not an idn response\n"),
	}
	sess := newTestSession(t, mock)

	_, err := sess.Identify(context.Background())
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestOpen_RequiresTransportOrResource(t *testing.T) {
	if _, err := Open(SessionConfig{}); err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestOpen_BadResource(t *testing.T) {
	_, err := Open(SessionConfig{Resource: "FOO::bar::INSTR"})

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectError, got %v", err)
	}
	if !errors.Is(err, ErrInvalidResource) {
		t.Errorf("expected ErrInvalidResource in chain, got %v", err)
	}
}

type recordLogger struct {
	mu     sync.Mutex
	events []Event
}

func (l *recordLogger) Log(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func TestSession_TraceLogging(t *testing.T) {
	logger := &recordLogger{}
	mock := &transports.MockTransport{
		ReadData: []byte("0\n"),
	}

	sess, err := Open(SessionConfig{
		Transport: mock,
		Timeout:   200 * time.Millisecond,
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sess.Close()

	if _, err := sess.Query(context.Background(), "INR?"); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(logger.events) != 2 {
		t.Fatalf("events: got %d, want 2", len(logger.events))
	}
	if logger.events[0].Dir != DirSend || !strings.HasPrefix(string(logger.events[0].Data), "INR?") {
		t.Errorf("first event: got %v %q", logger.events[0].Dir, logger.events[0].Data)
	}
	if logger.events[1].Dir != DirReceive || string(logger.events[1].Data) != "0" {
		t.Errorf("second event: got %v %q", logger.events[1].Dir, logger.events[1].Data)
	}
}
