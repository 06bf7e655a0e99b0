// Package dl3021a controls a Rigol DL3021A DC electronic load over a visa
// session.
//
// Only a subset of the instrument's command set is implemented. See the
// DL3000 programming manual for the full set.
package dl3021a

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/Sean-Baker-Logikos/LogikosTestToolAutomation/visa"
)

// Models lists the model strings this driver accepts.
var Models = []string{"DL3021A"}

// Function is the static operation mode of the load.
type Function int

const (
	FuncCurrent    Function = iota // constant current (CC)
	FuncVoltage                    // constant voltage (CV)
	FuncResistance                 // constant resistance (CR)
	FuncPower                      // constant power (CP)
)

func (f Function) String() string {
	switch f {
	case FuncCurrent:
		return "CURR"
	case FuncVoltage:
		return "VOLT"
	case FuncResistance:
		return "RES"
	case FuncPower:
		return "POW"
	}
	return "UNKNOWN"
}

// Mode identifies what controls the input regulation.
type Mode int

const (
	ModeFixed Mode = iota
	ModeList
	ModeWave
	ModeBattery
	ModeOCP
	ModeOPP
)

func (m Mode) String() string {
	switch m {
	case ModeFixed:
		return "FIX"
	case ModeList:
		return "LIST"
	case ModeWave:
		return "WAV"
	case ModeBattery:
		return "BATT"
	case ModeOCP:
		return "OCP"
	case ModeOPP:
		return "OPP"
	}
	return "UNKNOWN"
}

// Param is an optional setup parameter: a numeric value built with Value,
// one of the instrument keywords Min/Max/Default, or the zero value to
// leave the setting untouched.
type Param string

const (
	Min     Param = "MIN"
	Max     Param = "MAX"
	Default Param = "DEF"
)

// Value makes a numeric Param.
func Value(v float64) Param {
	return Param(strconv.FormatFloat(v, 'g', -1, 64))
}

// Load is a connected DL3021A DC electronic load.
type Load struct {
	sess *visa.Session
	id   visa.Identity
}

// Open establishes a session to the resource in cfg and attaches to the
// load behind it.
func Open(ctx context.Context, cfg visa.SessionConfig) (*Load, error) {
	sess, err := visa.Open(cfg)
	if err != nil {
		return nil, err
	}

	l, err := Attach(ctx, sess)
	if err != nil {
		sess.Close()
		return nil, err
	}
	return l, nil
}

// Find probes the discovery candidates and attaches to the first matching
// load.
func Find(ctx context.Context, cfg visa.DiscoverConfig) (*Load, error) {
	sess, id, err := visa.FindFirst(ctx, cfg, Models)
	if err != nil {
		return nil, err
	}
	return &Load{sess: sess, id: id}, nil
}

// Attach verifies the instrument on an already-open session is a supported
// load and takes ownership of the session.
func Attach(ctx context.Context, sess *visa.Session) (*Load, error) {
	id, err := sess.Identify(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(Models, id.Model) {
		return nil, fmt.Errorf("%w: %q is not one of %v", visa.ErrNotFound, id.Model, Models)
	}
	return &Load{sess: sess, id: id}, nil
}

// Identity returns the parsed *IDN? fields.
func (l *Load) Identity() visa.Identity {
	return l.id
}

func (l *Load) String() string {
	return fmt.Sprintf("%s DC electronic load (SN %s, firmware %s)",
		l.id.Model, l.id.SerialNumber, l.id.Firmware)
}

// Session returns the underlying session.
func (l *Load) Session() *visa.Session {
	return l.sess
}

// Close releases the session.
func (l *Load) Close() error {
	return l.sess.Close()
}

// Wait configures the instrument to finish all pending operations before
// executing further commands.
func (l *Load) Wait(ctx context.Context) error {
	return l.sess.Write(ctx, "*WAI")
}

// On enables the load input.
func (l *Load) On(ctx context.Context) error {
	return l.sess.Write(ctx, ":SOURCE:INPUT:STATE ON")
}

// Off disables the load input.
func (l *Load) Off(ctx context.Context) error {
	return l.sess.Write(ctx, ":SOURCE:INPUT:STATE OFF")
}

// SetMode selects what controls the input regulation: the static function,
// the list, the waveform display, battery discharge, OCP or OPP.
func (l *Load) SetMode(ctx context.Context, mode Mode) error {
	return l.sess.Write(ctx, ":SOURCE:FUNCTION:MODE "+mode.String())
}

// Mode queries what controls the input regulation.
func (l *Load) Mode(ctx context.Context) (Mode, error) {
	resp, err := l.sess.Query(ctx, ":SOURCE:FUNCTION:MODE?")
	if err != nil {
		return 0, err
	}
	for _, m := range []Mode{ModeFixed, ModeList, ModeWave, ModeBattery, ModeOCP, ModeOPP} {
		if resp == m.String() {
			return m, nil
		}
	}
	return 0, &visa.ProtocolError{Op: "mode", Err: fmt.Errorf("unknown mode %q", resp)}
}

// SetFunction sets the static operation mode.
func (l *Load) SetFunction(ctx context.Context, fn Function) error {
	return l.sess.Write(ctx, ":SOURCE:FUNC "+fn.String())
}

// Function queries the static operation mode.
func (l *Load) Function(ctx context.Context) (Function, error) {
	resp, err := l.sess.Query(ctx, ":SOURCE:FUNC?")
	if err != nil {
		return 0, err
	}
	for _, f := range []Function{FuncCurrent, FuncVoltage, FuncResistance, FuncPower} {
		if resp == f.String() {
			return f, nil
		}
	}
	return 0, &visa.ProtocolError{Op: "function", Err: fmt.Errorf("unknown function %q", resp)}
}

// Measurement queries

// Voltage queries the present input voltage in volts.
func (l *Load) Voltage(ctx context.Context) (float64, error) {
	return l.queryFloat(ctx, ":MEASURE:VOLTAGE?")
}

// Current queries the present input current in amps.
func (l *Load) Current(ctx context.Context) (float64, error) {
	return l.queryFloat(ctx, ":MEASURE:CURRENT?")
}

// Resistance queries the present resistance in ohms.
func (l *Load) Resistance(ctx context.Context) (float64, error) {
	return l.queryFloat(ctx, ":MEASURE:RESISTANCE?")
}

// Power queries the present power in watts.
func (l *Load) Power(ctx context.Context) (float64, error) {
	return l.queryFloat(ctx, ":MEASURE:POWER?")
}

func (l *Load) queryFloat(ctx context.Context, cmd string) (float64, error) {
	resp, err := l.sess.Query(ctx, cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(resp, 64)
	if err != nil {
		return 0, &visa.ProtocolError{Op: cmd, Err: fmt.Errorf("non-numeric response %q", resp)}
	}
	return v, nil
}

func (l *Load) writeParam(ctx context.Context, cmd string, p Param) error {
	if p == "" {
		return nil
	}
	return l.sess.Write(ctx, cmd+" "+string(p))
}
