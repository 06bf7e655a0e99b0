package visa

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ResourceType identifies the bus a resource identifier addresses.
type ResourceType int

const (
	ResourceTCPIP ResourceType = iota
	ResourceSerial
	ResourceGPIB
	ResourceUSB
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTCPIP:
		return "TCPIP"
	case ResourceSerial:
		return "ASRL"
	case ResourceGPIB:
		return "GPIB"
	case ResourceUSB:
		return "USB"
	}
	return "UNKNOWN"
}

// DefaultSocketPort is the conventional raw-SCPI socket port.
const DefaultSocketPort = 5025

// ResourceInfo is a parsed VISA resource identifier.
type ResourceInfo struct {
	Type ResourceType
	Raw  string

	// TCPIP resources
	Host string
	Port int

	// Serial resources
	SerialPort string

	// GPIB resources
	GPIBAddress int
}

// ErrInvalidResource is returned when a resource identifier cannot be parsed.
var ErrInvalidResource = errors.New("invalid resource identifier")

// ParseResource parses a VISA resource identifier. Supported forms:
//
//	TCPIP[board]::<host>[::port]::SOCKET
//	ASRL</dev/path>::INSTR
//	GPIB[board]::<primary address>::INSTR
//	USB[board]::<vid>::<pid>[::serial]::INSTR
//
// TCPIP INSTR resources (VXI-11) are not supported; use a raw SOCKET
// resource instead.
func ParseResource(rid string) (ResourceInfo, error) {
	info := ResourceInfo{Raw: rid}

	parts := strings.Split(rid, "::")
	if len(parts) == 0 || parts[0] == "" {
		return info, fmt.Errorf("%w: %q", ErrInvalidResource, rid)
	}

	head := strings.ToUpper(parts[0])

	switch {
	case strings.HasPrefix(head, "TCPIP"):
		info.Type = ResourceTCPIP
		if len(parts) < 3 || !strings.EqualFold(parts[len(parts)-1], "SOCKET") {
			if len(parts) >= 2 && strings.EqualFold(parts[len(parts)-1], "INSTR") {
				return info, fmt.Errorf("%w: %q: VXI-11 INSTR resources are not supported", ErrInvalidResource, rid)
			}
			return info, fmt.Errorf("%w: %q: expected TCPIP::<host>[::port]::SOCKET", ErrInvalidResource, rid)
		}
		info.Host = parts[1]
		info.Port = DefaultSocketPort
		if len(parts) == 4 {
			port, err := strconv.Atoi(parts[2])
			if err != nil || port <= 0 || port > 65535 {
				return info, fmt.Errorf("%w: %q: bad port %q", ErrInvalidResource, rid, parts[2])
			}
			info.Port = port
		} else if len(parts) != 3 {
			return info, fmt.Errorf("%w: %q", ErrInvalidResource, rid)
		}
		if info.Host == "" {
			return info, fmt.Errorf("%w: %q: missing host", ErrInvalidResource, rid)
		}

	case strings.HasPrefix(head, "ASRL"):
		info.Type = ResourceSerial
		// Device path rides on the first segment: ASRL/dev/ttyUSB0::INSTR.
		info.SerialPort = parts[0][len("ASRL"):]
		if info.SerialPort == "" || len(parts) != 2 || !strings.EqualFold(parts[1], "INSTR") {
			return info, fmt.Errorf("%w: %q: expected ASRL</dev/path>::INSTR", ErrInvalidResource, rid)
		}

	case strings.HasPrefix(head, "GPIB"):
		info.Type = ResourceGPIB
		if len(parts) != 3 || !strings.EqualFold(parts[2], "INSTR") {
			return info, fmt.Errorf("%w: %q: expected GPIB[board]::<address>::INSTR", ErrInvalidResource, rid)
		}
		addr, err := strconv.Atoi(parts[1])
		if err != nil || addr < 0 || addr > 30 {
			return info, fmt.Errorf("%w: %q: bad GPIB address %q", ErrInvalidResource, rid, parts[1])
		}
		info.GPIBAddress = addr

	case strings.HasPrefix(head, "USB"):
		info.Type = ResourceUSB
		if len(parts) < 4 || !strings.EqualFold(parts[len(parts)-1], "INSTR") {
			return info, fmt.Errorf("%w: %q: expected USB[board]::<vid>::<pid>[::serial]::INSTR", ErrInvalidResource, rid)
		}

	default:
		return info, fmt.Errorf("%w: %q: unknown interface %q", ErrInvalidResource, rid, parts[0])
	}

	return info, nil
}
