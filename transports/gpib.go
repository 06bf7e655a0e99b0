package transports

import (
	"errors"
	"fmt"
	"time"

	"github.com/gotmc/prologix"
	"go.bug.st/serial"
)

// GPIBTransport implements the transport contract for instruments behind a
// Prologix GPIB-USB controller. The controller shows up as a virtual COM
// port; GPIB addressing and read framing are handled by the controller.
type GPIBTransport struct {
	gpib    *prologix.Controller
	port    serial.Port
	timeout time.Duration
}

// GPIBConfig holds configuration for opening a GPIB connection.
type GPIBConfig struct {
	// ControllerPort is the serial port of the Prologix controller,
	// e.g. "/dev/ttyUSB0".
	ControllerPort string

	// Address is the GPIB primary address of the instrument (0-30).
	Address int

	Timeout time.Duration
}

// OpenGPIB opens the Prologix controller and addresses the instrument.
func OpenGPIB(cfg GPIBConfig) (*GPIBTransport, error) {
	if cfg.ControllerPort == "" {
		return nil, errors.New("GPIB controller serial port is required")
	}
	if cfg.Address < 0 || cfg.Address > 30 {
		return nil, fmt.Errorf("invalid GPIB address %d", cfg.Address)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.ControllerPort, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open controller port: %w", err)
	}

	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	gpib, err := prologix.NewController(port, cfg.Address, false)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to initialize GPIB controller: %w", err)
	}

	return &GPIBTransport{
		gpib:    gpib,
		port:    port,
		timeout: cfg.Timeout,
	}, nil
}

func (t *GPIBTransport) Read(p []byte) (int, error) {
	return t.gpib.Read(p)
}

func (t *GPIBTransport) Write(p []byte) (int, error) {
	return t.gpib.Write(p)
}

func (t *GPIBTransport) Close() error {
	return t.port.Close()
}

func (t *GPIBTransport) SetReadTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return t.port.SetReadTimeout(timeout)
}

func (t *GPIBTransport) Flush() error {
	buf := make([]byte, 4096)
	t.port.SetReadTimeout(10 * time.Millisecond)
	for {
		n, err := t.port.Read(buf)
		if n == 0 || err != nil {
			break
		}
	}
	t.port.SetReadTimeout(t.timeout)
	return nil
}
