package transports

import (
	"reflect"
	"testing"
)

func TestMockTransport_Handler(t *testing.T) {
	mock := &MockTransport{
		Handler: func(cmd string) []byte {
			if cmd == "*IDN?" {
				return []byte("maker,model,sn,fw\n")
			}
			return nil
		},
	}

	// Commands may arrive split across writes.
	mock.Write([]byte("*ID"))
	mock.Write([]byte("N?\n"))

	buf := make([]byte, 64)
	n, _ := mock.Read(buf)
	if got := string(buf[:n]); got != "maker,model,sn,fw\n" {
		t.Errorf("reply: got %q", got)
	}
}

func TestMockTransport_HandlerMultipleCommands(t *testing.T) {
	var seen []string
	mock := &MockTransport{
		Handler: func(cmd string) []byte {
			seen = append(seen, cmd)
			return nil
		},
	}

	mock.Write([]byte("CHDR OFF\r\nTRMD SINGLE\n"))

	want := []string{"CHDR OFF", "TRMD SINGLE"}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("commands: got %v, want %v", seen, want)
	}
}

func TestMockTransport_Commands(t *testing.T) {
	mock := &MockTransport{}
	mock.Write([]byte("*RST\n"))
	mock.Write([]byte("ASET\n"))

	want := []string{"*RST", "ASET"}
	if got := mock.Commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("Commands: got %v, want %v", got, want)
	}
}
