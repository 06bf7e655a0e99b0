package visa

import (
	"errors"
	"testing"
)

func TestParseResource(t *testing.T) {
	tests := []struct {
		rid  string
		want ResourceInfo
	}{
		{
			rid:  "TCPIP0::192.168.1.20::5025::SOCKET",
			want: ResourceInfo{Type: ResourceTCPIP, Host: "192.168.1.20", Port: 5025},
		},
		{
			rid:  "TCPIP::scope.lab.local::SOCKET",
			want: ResourceInfo{Type: ResourceTCPIP, Host: "scope.lab.local", Port: DefaultSocketPort},
		},
		{
			rid:  "ASRL/dev/ttyUSB0::INSTR",
			want: ResourceInfo{Type: ResourceSerial, SerialPort: "/dev/ttyUSB0"},
		},
		{
			rid:  "GPIB0::7::INSTR",
			want: ResourceInfo{Type: ResourceGPIB, GPIBAddress: 7},
		},
		{
			rid:  "USB0::0xF4EC::0xEE38::SDS1EBAC0XXXXX::INSTR",
			want: ResourceInfo{Type: ResourceUSB},
		},
	}

	for _, tt := range tests {
		got, err := ParseResource(tt.rid)
		if err != nil {
			t.Errorf("ParseResource(%q) failed: %v", tt.rid, err)
			continue
		}
		if got.Type != tt.want.Type {
			t.Errorf("%q type: got %v, want %v", tt.rid, got.Type, tt.want.Type)
		}
		if got.Host != tt.want.Host || got.Port != tt.want.Port {
			t.Errorf("%q host/port: got %s:%d, want %s:%d", tt.rid, got.Host, got.Port, tt.want.Host, tt.want.Port)
		}
		if got.SerialPort != tt.want.SerialPort {
			t.Errorf("%q serial port: got %q, want %q", tt.rid, got.SerialPort, tt.want.SerialPort)
		}
		if got.GPIBAddress != tt.want.GPIBAddress {
			t.Errorf("%q GPIB address: got %d, want %d", tt.rid, got.GPIBAddress, tt.want.GPIBAddress)
		}
		if got.Raw != tt.rid {
			t.Errorf("%q raw: got %q", tt.rid, got.Raw)
		}
	}
}

func TestParseResourceInvalid(t *testing.T) {
	rids := []string{
		"",
		"::",
		"LPT1::INSTR",
		"TCPIP0::10.0.0.5::INSTR", // VXI-11 is unsupported
		"TCPIP0::SOCKET",
		"TCPIP0::host::notaport::SOCKET",
		"ASRL::INSTR",
		"ASRL/dev/ttyUSB0",
		"GPIB0::notanumber::INSTR",
		"GPIB0::42::INSTR", // address out of range
		"USB0::INSTR",
	}

	for _, rid := range rids {
		if _, err := ParseResource(rid); !errors.Is(err, ErrInvalidResource) {
			t.Errorf("ParseResource(%q): got %v, want ErrInvalidResource", rid, err)
		}
	}
}
