package transports

import (
	"errors"
	"fmt"
	"time"

	"github.com/gotmc/usbtmc"
	_ "github.com/gotmc/usbtmc/driver/google"
)

// USBTMCTransport implements the transport contract for USB Test &
// Measurement Class instruments (USB ...::INSTR resources).
type USBTMCTransport struct {
	ctx     *usbtmc.Context
	dev     *usbtmc.Device
	timeout time.Duration
}

// USBTMCConfig holds configuration for opening a USBTMC device.
type USBTMCConfig struct {
	// Resource is the full VISA resource identifier,
	// e.g. "USB0::0xF4EC::0xEE38::SDS1XDCC0XXXXX::INSTR".
	Resource string

	Timeout time.Duration
}

// OpenUSBTMC opens the USBTMC device addressed by the resource identifier.
func OpenUSBTMC(cfg USBTMCConfig) (*USBTMCTransport, error) {
	if cfg.Resource == "" {
		return nil, errors.New("USB resource identifier is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	ctx, err := usbtmc.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create USB context: %w", err)
	}

	dev, err := ctx.NewDevice(cfg.Resource)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("failed to open USBTMC device: %w", err)
	}

	return &USBTMCTransport{
		ctx:     ctx,
		dev:     dev,
		timeout: cfg.Timeout,
	}, nil
}

func (t *USBTMCTransport) Read(p []byte) (int, error) {
	return t.dev.Read(p)
}

func (t *USBTMCTransport) Write(p []byte) (int, error) {
	return t.dev.Write(p)
}

func (t *USBTMCTransport) Close() error {
	err := t.dev.Close()
	if cerr := t.ctx.Close(); err == nil {
		err = cerr
	}
	return err
}

// SetReadTimeout records the timeout; USBTMC bulk transfers are bounded by
// the class driver itself.
func (t *USBTMCTransport) SetReadTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

// Flush is a no-op: USBTMC messages are framed by the class protocol, so
// there is no stale byte stream to drain.
func (t *USBTMCTransport) Flush() error {
	return nil
}
