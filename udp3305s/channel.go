package udp3305s

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sean-Baker-Logikos/LogikosTestToolAutomation/visa"
)

// Channel is a single output channel of the supply, physical or virtual.
type Channel struct {
	sess *visa.Session
	name string

	// VMax and AMax are the channel's hardware limits; settings outside
	// them are rejected locally before any command is sent.
	VMax float64
	AMax float64
}

// Name returns the channel designator, e.g. "CH1".
func (c *Channel) Name() string {
	return c.name
}

// SetVoltage sets the output voltage in volts.
func (c *Channel) SetVoltage(ctx context.Context, volts float64) error {
	if volts <= 0 || volts > c.VMax {
		return fmt.Errorf("%s voltage must be in (0, %g] V, got %g", c.name, c.VMax, volts)
	}
	return c.sess.Write(ctx, fmt.Sprintf("APPLY %s,%gV", c.name, volts))
}

// Voltage queries the output voltage setting in volts.
func (c *Channel) Voltage(ctx context.Context) (float64, error) {
	return c.queryApply(ctx, "VOLT")
}

// SetCurrent sets the current limit in amps.
func (c *Channel) SetCurrent(ctx context.Context, amps float64) error {
	if amps <= 0 || amps > c.AMax {
		return fmt.Errorf("%s current must be in (0, %g] A, got %g", c.name, c.AMax, amps)
	}
	return c.sess.Write(ctx, fmt.Sprintf("APPLY %s,%gA", c.name, amps))
}

// Current queries the current limit setting in amps.
func (c *Channel) Current(ctx context.Context) (float64, error) {
	return c.queryApply(ctx, "CURRENT")
}

// SetOVP sets the over-voltage protection threshold in volts and switches
// protection on or off.
func (c *Channel) SetOVP(ctx context.Context, volts float64, enabled bool) error {
	if volts <= 0 || volts > c.VMax {
		return fmt.Errorf("%s OVP voltage must be in (0, %g] V, got %g", c.name, c.VMax, volts)
	}
	if err := c.sess.Write(ctx, fmt.Sprintf("OUTPUT:OVP:VALUE %s,%g", c.name, volts)); err != nil {
		return err
	}
	return c.sess.Write(ctx, fmt.Sprintf("OUTPUT:OVP:STATE %s,%s", c.name, onOff(enabled)))
}

// OVP queries the over-voltage protection threshold and state.
func (c *Channel) OVP(ctx context.Context) (volts float64, enabled bool, err error) {
	volts, err = c.queryFloat(ctx, "OUTPUT:OVP:VALUE? "+c.name)
	if err != nil {
		return 0, false, err
	}
	enabled, err = c.queryOnOff(ctx, "OUTPUT:OVP:STATE? "+c.name)
	if err != nil {
		return 0, false, err
	}
	return volts, enabled, nil
}

// SetOCP sets the over-current protection threshold in amps and switches
// protection on or off.
func (c *Channel) SetOCP(ctx context.Context, amps float64, enabled bool) error {
	if amps <= 0 || amps > c.AMax {
		return fmt.Errorf("%s OCP current must be in (0, %g] A, got %g", c.name, c.AMax, amps)
	}
	if err := c.sess.Write(ctx, fmt.Sprintf("OUTPUT:OCP:VALUE %s,%g", c.name, amps)); err != nil {
		return err
	}
	return c.sess.Write(ctx, fmt.Sprintf("OUTPUT:OCP:STATE %s,%s", c.name, onOff(enabled)))
}

// OCP queries the over-current protection threshold and state.
func (c *Channel) OCP(ctx context.Context) (amps float64, enabled bool, err error) {
	amps, err = c.queryFloat(ctx, "OUTPUT:OCP:VALUE? "+c.name)
	if err != nil {
		return 0, false, err
	}
	enabled, err = c.queryOnOff(ctx, "OUTPUT:OCP:STATE? "+c.name)
	if err != nil {
		return 0, false, err
	}
	return amps, enabled, nil
}

// ReadVoltage measures the actual output voltage in volts.
func (c *Channel) ReadVoltage(ctx context.Context) (float64, error) {
	return c.queryFloat(ctx, "MEASURE:VOLT? "+c.name)
}

// ReadCurrent measures the actual output current in amps.
func (c *Channel) ReadCurrent(ctx context.Context) (float64, error) {
	return c.queryFloat(ctx, "MEASURE:CURRENT? "+c.name)
}

// ReadPower measures the actual output power in watts.
func (c *Channel) ReadPower(ctx context.Context) (float64, error) {
	return c.queryFloat(ctx, "MEASURE:POWER? "+c.name)
}

// Measurement is a combined channel reading.
type Measurement struct {
	Voltage float64 // V
	Current float64 // A
	Power   float64 // W
}

// ReadAll measures voltage, current and power in one query.
func (c *Channel) ReadAll(ctx context.Context) (Measurement, error) {
	resp, err := c.sess.Query(ctx, "MEASURE:ALL? "+c.name)
	if err != nil {
		return Measurement{}, err
	}

	fields := strings.Split(resp, ",")
	if len(fields) != 3 {
		return Measurement{}, &visa.ProtocolError{Op: "measure all", Err: fmt.Errorf("malformed response %q", resp)}
	}

	var vals [3]float64
	for i, f := range fields {
		vals[i], err = strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Measurement{}, &visa.ProtocolError{Op: "measure all", Err: fmt.Errorf("non-numeric field %q", f)}
		}
	}

	return Measurement{Voltage: vals[0], Current: vals[1], Power: vals[2]}, nil
}

// On turns the channel on.
func (c *Channel) On(ctx context.Context) error {
	return c.sess.Write(ctx, fmt.Sprintf("OUTPUT:STATE %s,ON", c.name))
}

// Off turns the channel off.
func (c *Channel) Off(ctx context.Context) error {
	return c.sess.Write(ctx, fmt.Sprintf("OUTPUT:STATE %s,OFF", c.name))
}

// queryApply reads back a setting via "APPLY? <channel>,<field>"; the reply
// echoes the channel name before the value.
func (c *Channel) queryApply(ctx context.Context, field string) (float64, error) {
	resp, err := c.sess.Query(ctx, fmt.Sprintf("APPLY? %s,%s", c.name, field))
	if err != nil {
		return 0, err
	}

	parts := strings.Split(resp, ",")
	if len(parts) != 2 {
		return 0, &visa.ProtocolError{Op: "apply query", Err: fmt.Errorf("malformed response %q", resp)}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, &visa.ProtocolError{Op: "apply query", Err: fmt.Errorf("non-numeric value %q", parts[1])}
	}
	return v, nil
}

func (c *Channel) queryFloat(ctx context.Context, cmd string) (float64, error) {
	resp, err := c.sess.Query(ctx, cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(resp, 64)
	if err != nil {
		return 0, &visa.ProtocolError{Op: cmd, Err: fmt.Errorf("non-numeric response %q", resp)}
	}
	return v, nil
}

func (c *Channel) queryOnOff(ctx context.Context, cmd string) (bool, error) {
	resp, err := c.sess.Query(ctx, cmd)
	if err != nil {
		return false, err
	}
	switch resp {
	case "ON":
		return true, nil
	case "OFF":
		return false, nil
	}
	return false, &visa.ProtocolError{Op: cmd, Err: fmt.Errorf("expected ON or OFF, got %q", resp)}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
