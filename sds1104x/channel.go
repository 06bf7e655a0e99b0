package sds1104x

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Sean-Baker-Logikos/LogikosTestToolAutomation/visa"
)

// Channel is one analog input channel (C1-C4) of the oscilloscope.
type Channel struct {
	sess *visa.Session
	name string
}

// Name returns the channel designator, e.g. "C1".
func (c *Channel) Name() string {
	return c.name
}

// attenuationValues are the probe attenuation factors the instrument
// accepts.
var attenuationValues = []float64{0.1, 0.2, 0.5, 1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000}

// SetAttenuation sets the probe attenuation factor, snapped to the nearest
// value the instrument accepts. Attenuation scales display factors,
// automatic measurements and trigger levels; it does not change the input
// sensitivity.
func (c *Channel) SetAttenuation(ctx context.Context, factor float64) error {
	closest := attenuationValues[0]
	diff := math.Inf(1)
	for _, v := range attenuationValues {
		if d := math.Abs(factor - v); d < diff {
			closest = v
			diff = d
		}
	}
	return c.sess.Write(ctx, fmt.Sprintf("%s:ATTENUATION %g", c.name, closest))
}

// Attenuation queries the probe attenuation factor.
func (c *Channel) Attenuation(ctx context.Context) (float64, error) {
	return c.queryFloat(ctx, c.name+":ATTENUATION?")
}

// SetOffset adjusts the vertical offset of the channel, in volts.
// The usable range depends on the sensitivity setting.
func (c *Channel) SetOffset(ctx context.Context, volts float64) error {
	return c.sess.Write(ctx, fmt.Sprintf("%s:OFFSET %gV", c.name, volts))
}

// Offset queries the vertical offset in volts.
func (c *Channel) Offset(ctx context.Context) (float64, error) {
	return c.queryFloat(ctx, c.name+":OFFSET?")
}

// SetSkew sets the channel-to-channel skew factor, used to remove
// cable-delay errors between channels. Each channel can be adjusted by
// at most 100ns in either direction.
func (c *Channel) SetSkew(ctx context.Context, skew time.Duration) error {
	if skew < -100*time.Nanosecond || skew > 100*time.Nanosecond {
		return fmt.Errorf("skew must be between -100ns and 100ns, got %v", skew)
	}
	return c.sess.Write(ctx, fmt.Sprintf("%s:SKEW %dNS", c.name, skew.Nanoseconds()))
}

// Skew queries the channel skew.
func (c *Channel) Skew(ctx context.Context) (time.Duration, error) {
	secs, err := c.queryFloat(ctx, c.name+":SKEW?")
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// SetTrace turns the display of the channel on or off.
func (c *Channel) SetTrace(ctx context.Context, display bool) error {
	return c.sess.Write(ctx, fmt.Sprintf("%s:TRA %s", c.name, onOff(display)))
}

// Trace queries whether the channel is displayed.
func (c *Channel) Trace(ctx context.Context) (bool, error) {
	return c.queryOnOff(ctx, c.name+":TRA?")
}

// SetUnit sets the measurement unit of the trace. Measurement results,
// channel sensitivity and trigger level reflect the selected unit.
func (c *Channel) SetUnit(ctx context.Context, unit Unit) error {
	return c.sess.Write(ctx, fmt.Sprintf("%s:UNIT %s", c.name, unit))
}

// Unit queries the measurement unit of the trace.
func (c *Channel) Unit(ctx context.Context) (Unit, error) {
	resp, err := c.sess.Query(ctx, c.name+":UNIT?")
	if err != nil {
		return 0, err
	}
	switch resp {
	case "V":
		return UnitVolt, nil
	case "A":
		return UnitAmpere, nil
	}
	return 0, &visa.ProtocolError{Op: "unit", Err: fmt.Errorf("unknown unit %q", resp)}
}

// SetVoltDiv sets the vertical sensitivity in volts per division. If probe
// attenuation is changed, the scale is multiplied by the attenuation factor.
func (c *Channel) SetVoltDiv(ctx context.Context, voltsPerDiv float64) error {
	return c.sess.Write(ctx, fmt.Sprintf("%s:VOLT_DIV %gV", c.name, voltsPerDiv))
}

// VoltDiv queries the vertical sensitivity in volts per division.
func (c *Channel) VoltDiv(ctx context.Context) (float64, error) {
	return c.queryFloat(ctx, c.name+":VOLT_DIV?")
}

// SetInvert mathematically inverts the trace.
func (c *Channel) SetInvert(ctx context.Context, invert bool) error {
	return c.sess.Write(ctx, fmt.Sprintf("%s:INVERTSET %s", c.name, onOff(invert)))
}

// Invert queries whether the trace is inverted.
func (c *Channel) Invert(ctx context.Context) (bool, error) {
	return c.queryOnOff(ctx, c.name+":INVERTSET?")
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
