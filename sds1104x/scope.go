// Package sds1104x controls a Siglent SDS1104X-E digital storage
// oscilloscope over a visa session.
//
// Only a subset of the instrument's command set is implemented. See the
// SDS1000 series programming guide for the full set.
package sds1104x

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/Sean-Baker-Logikos/LogikosTestToolAutomation/visa"
)

// Models lists the model strings this driver accepts.
var Models = []string{"SDS1104X-E"}

// stateTimeout bounds the PNSU state transfers, which move a couple hundred
// kilobytes of XML over the bus.
const stateTimeout = 30 * time.Second

// TriggerMode selects how acquisitions are armed.
type TriggerMode int

const (
	TriggerAuto TriggerMode = iota
	TriggerNorm
	TriggerSingle
)

func (m TriggerMode) String() string {
	switch m {
	case TriggerAuto:
		return "AUTO"
	case TriggerNorm:
		return "NORM"
	case TriggerSingle:
		return "SINGLE"
	}
	return "UNKNOWN"
}

// TriggerSlope selects the edge the trigger fires on.
type TriggerSlope int

const (
	SlopeNeg    TriggerSlope = iota // falling edge
	SlopePos                        // rising edge
	SlopeWindow                     // alternating edge
)

func (s TriggerSlope) String() string {
	switch s {
	case SlopeNeg:
		return "NEG"
	case SlopePos:
		return "POS"
	case SlopeWindow:
		return "WINDOW"
	}
	return "UNKNOWN"
}

// Unit is the measurement unit of a trace.
type Unit int

const (
	UnitVolt Unit = iota
	UnitAmpere
)

func (u Unit) String() string {
	if u == UnitAmpere {
		return "A"
	}
	return "V"
}

// Scope is a connected SDS1104X-E oscilloscope.
type Scope struct {
	sess *visa.Session
	id   visa.Identity

	Ch1, Ch2, Ch3, Ch4 *Channel
}

// Open establishes a session to the resource in cfg and attaches to the
// oscilloscope behind it.
func Open(ctx context.Context, cfg visa.SessionConfig) (*Scope, error) {
	sess, err := visa.Open(cfg)
	if err != nil {
		return nil, err
	}

	s, err := Attach(ctx, sess)
	if err != nil {
		sess.Close()
		return nil, err
	}
	return s, nil
}

// Find probes the discovery candidates and attaches to the first matching
// oscilloscope.
func Find(ctx context.Context, cfg visa.DiscoverConfig) (*Scope, error) {
	sess, id, err := visa.FindFirst(ctx, cfg, Models)
	if err != nil {
		return nil, err
	}

	s := newScope(sess, id)
	if err := s.init(ctx); err != nil {
		sess.Close()
		return nil, err
	}
	return s, nil
}

// Attach verifies the instrument on an already-open session is a supported
// oscilloscope and takes ownership of the session.
func Attach(ctx context.Context, sess *visa.Session) (*Scope, error) {
	id, err := sess.Identify(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(Models, id.Model) {
		return nil, fmt.Errorf("%w: %q is not one of %v", visa.ErrNotFound, id.Model, Models)
	}

	s := newScope(sess, id)
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newScope(sess *visa.Session, id visa.Identity) *Scope {
	return &Scope{
		sess: sess,
		id:   id,
		Ch1:  &Channel{sess: sess, name: "C1"},
		Ch2:  &Channel{sess: sess, name: "C2"},
		Ch3:  &Channel{sess: sess, name: "C3"},
		Ch4:  &Channel{sess: sess, name: "C4"},
	}
}

func (s *Scope) init(ctx context.Context) error {
	// Suppress command headers so query replies are bare values
	return s.sess.Write(ctx, "CHDR OFF")
}

// Identity returns the parsed *IDN? fields.
func (s *Scope) Identity() visa.Identity {
	return s.id
}

func (s *Scope) String() string {
	return fmt.Sprintf("%s digital storage oscilloscope (SN %s, firmware %s)",
		s.id.Model, s.id.SerialNumber, s.id.Firmware)
}

// Session returns the underlying session, for commands this driver does not
// wrap.
func (s *Scope) Session() *visa.Session {
	return s.sess
}

// Close releases the session.
func (s *Scope) Close() error {
	return s.sess.Close()
}

// Status commands

// Status queries the internal state change register. Reading the register
// clears it on the instrument, so each call is a fresh snapshot.
func (s *Scope) Status(ctx context.Context) (Status, error) {
	resp, err := s.sess.Query(ctx, "INR?")
	if err != nil {
		return StatusNone, err
	}

	v, err := strconv.ParseUint(resp, 10, 16)
	if err != nil {
		return StatusNone, &visa.ProtocolError{Op: "status", Err: fmt.Errorf("non-numeric INR response %q", resp)}
	}

	st := Status(v)
	if undefined := st &^ statusMask; undefined != 0 {
		return StatusNone, &visa.ProtocolError{Op: "status", Err: fmt.Errorf("undefined status bits 0x%04X", uint16(undefined))}
	}

	return st, nil
}

// WaitStatus polls the status register until a bit of mask is set. The poll
// interval defaults to 100ms. The wait is bounded by ctx; pass a context
// with a deadline to avoid polling forever.
func (s *Scope) WaitStatus(ctx context.Context, mask Status, interval time.Duration) (Status, error) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	for {
		st, err := s.Status(ctx)
		if err != nil {
			return StatusNone, err
		}
		if st.Has(mask) {
			return st, nil
		}

		select {
		case <-ctx.Done():
			return StatusNone, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Common commands

// Default resets the oscilloscope, the same as pressing the Default button.
func (s *Scope) Default(ctx context.Context) error {
	return s.sess.Write(ctx, "*RST")
}

// AutoSetup asks the instrument to identify the waveform type and adjust
// controls to produce a usable display of the input signal.
func (s *Scope) AutoSetup(ctx context.Context) error {
	return s.sess.Write(ctx, "ASET")
}

// Save / recall commands

// WriteStateFile downloads the current oscilloscope setup into a local XML
// file. The file is written all-or-nothing.
func (s *Scope) WriteStateFile(ctx context.Context, path string) error {
	restore := s.raiseTimeout(stateTimeout)
	defer restore()

	if err := s.sess.Write(ctx, "PNSU?"); err != nil {
		return err
	}

	data, err := s.sess.ReadRaw(ctx)
	if err != nil {
		return &visa.ProtocolError{Op: "state download", Err: err}
	}

	return writeFileAtomic(path, data)
}

// LoadStateFile uploads a previously saved setup file to the instrument.
// The file is read completely before any byte reaches the instrument, so a
// local read failure leaves the oscilloscope untouched.
func (s *Scope) LoadStateFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	restore := s.raiseTimeout(stateTimeout)
	defer restore()

	payload := make([]byte, 0, len("PNSU ")+len(data))
	payload = append(payload, "PNSU "...)
	payload = append(payload, data...)

	return s.sess.WriteRaw(ctx, payload)
}

// Timebase commands

type timeDivStep struct {
	d     time.Duration
	label string
}

// timeDivLadder holds the valid horizontal scales in ascending order.
var timeDivLadder = buildTimeDivLadder()

func buildTimeDivLadder() []timeDivStep {
	var ladder []timeDivStep
	steps := []int{1, 2, 5, 10, 20, 50, 100, 200, 500}
	for _, v := range steps {
		ladder = append(ladder, timeDivStep{time.Duration(v) * time.Nanosecond, fmt.Sprintf("%dNS", v)})
	}
	for _, v := range steps {
		ladder = append(ladder, timeDivStep{time.Duration(v) * time.Microsecond, fmt.Sprintf("%dUS", v)})
	}
	for _, v := range steps {
		ladder = append(ladder, timeDivStep{time.Duration(v) * time.Millisecond, fmt.Sprintf("%dMS", v)})
	}
	for _, v := range []int{1, 2, 5, 10, 20, 50, 100} {
		ladder = append(ladder, timeDivStep{time.Duration(v) * time.Second, fmt.Sprintf("%dS", v)})
	}
	return ladder
}

// SetTimeDiv sets the horizontal scale per division for the main window,
// rounded up to the next valid 1-2-5 value between 1ns and 100s.
func (s *Scope) SetTimeDiv(ctx context.Context, perDiv time.Duration) error {
	if perDiv <= 0 {
		return fmt.Errorf("time/div must be positive, got %v", perDiv)
	}
	for _, step := range timeDivLadder {
		if perDiv <= step.d {
			return s.sess.Write(ctx, "TDIV "+step.label)
		}
	}
	return fmt.Errorf("time/div %v exceeds maximum of 100s", perDiv)
}

// TimeDiv queries the horizontal scale per division.
func (s *Scope) TimeDiv(ctx context.Context) (time.Duration, error) {
	secs, err := s.queryFloat(ctx, "TDIV?")
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// SetTriggerDelay sets the interval from the trigger event to the
// horizontal center point of the screen.
func (s *Scope) SetTriggerDelay(ctx context.Context, delay time.Duration) error {
	return s.sess.Write(ctx, fmt.Sprintf("TRDL %gS", delay.Seconds()))
}

// TriggerDelay queries the trigger delay.
func (s *Scope) TriggerDelay(ctx context.Context) (time.Duration, error) {
	secs, err := s.queryFloat(ctx, "TRDL?")
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Trigger commands

// SetTriggerMode configures how acquisitions are armed.
func (s *Scope) SetTriggerMode(ctx context.Context, mode TriggerMode) error {
	return s.sess.Write(ctx, "TRMD "+mode.String())
}

// TriggerMode queries the current trigger mode.
func (s *Scope) TriggerMode(ctx context.Context) (TriggerMode, error) {
	resp, err := s.sess.Query(ctx, "TRMD?")
	if err != nil {
		return 0, err
	}
	for _, m := range []TriggerMode{TriggerAuto, TriggerNorm, TriggerSingle} {
		if resp == m.String() {
			return m, nil
		}
	}
	return 0, &visa.ProtocolError{Op: "trigger mode", Err: fmt.Errorf("unknown mode %q", resp)}
}

// SetTriggerSlope selects the trigger edge.
func (s *Scope) SetTriggerSlope(ctx context.Context, slope TriggerSlope) error {
	return s.sess.Write(ctx, "TRSL "+slope.String())
}

// TriggerSlope queries the trigger edge.
func (s *Scope) TriggerSlope(ctx context.Context) (TriggerSlope, error) {
	resp, err := s.sess.Query(ctx, "TRSL?")
	if err != nil {
		return 0, err
	}
	for _, sl := range []TriggerSlope{SlopeNeg, SlopePos, SlopeWindow} {
		if resp == sl.String() {
			return sl, nil
		}
	}
	return 0, &visa.ProtocolError{Op: "trigger slope", Err: fmt.Errorf("unknown slope %q", resp)}
}

// SetTriggerLevel sets the trigger level voltage for the active trigger
// source.
func (s *Scope) SetTriggerLevel(ctx context.Context, volts float64) error {
	return s.sess.Write(ctx, fmt.Sprintf("TRLV %gV", volts))
}

// TriggerLevel queries the trigger level voltage.
func (s *Scope) TriggerLevel(ctx context.Context) (float64, error) {
	return s.queryFloat(ctx, "TRLV?")
}

// Acquire commands

// Arm starts a new signal acquisition.
func (s *Scope) Arm(ctx context.Context) error {
	return s.sess.Write(ctx, "ARM")
}

// Stop stops the acquisition.
func (s *Scope) Stop(ctx context.Context) error {
	return s.sess.Write(ctx, "STOP")
}

// Display commands

// SetMenu displays or hides the on-screen menu.
func (s *Scope) SetMenu(ctx context.Context, visible bool) error {
	return s.sess.Write(ctx, "MENU "+onOff(visible))
}

// Print commands

// CaptureScreen captures the current screen to a bitmap file at path.
// The file is written all-or-nothing: on a failed transfer no partial file
// is left behind.
func (s *Scope) CaptureScreen(ctx context.Context, path string) error {
	if err := s.sess.Write(ctx, "SCDP"); err != nil {
		return err
	}

	data, err := s.sess.ReadRaw(ctx)
	if err != nil {
		return &visa.ProtocolError{Op: "screen dump", Err: err}
	}

	return writeFileAtomic(path, data)
}

// System commands

// SetBuzzer enables or disables the buzzer.
func (s *Scope) SetBuzzer(ctx context.Context, on bool) error {
	return s.sess.Write(ctx, "BUZZ "+onOff(on))
}

// Internal helpers

func (s *Scope) raiseTimeout(d time.Duration) (restore func()) {
	prev := s.sess.Timeout()
	s.sess.SetTimeout(d)
	return func() { s.sess.SetTimeout(prev) }
}

func (s *Scope) queryFloat(ctx context.Context, cmd string) (float64, error) {
	resp, err := s.sess.Query(ctx, cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(resp, 64)
	if err != nil {
		return 0, &visa.ProtocolError{Op: cmd, Err: fmt.Errorf("non-numeric response %q", resp)}
	}
	return v, nil
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// writeFileAtomic stages data in a temp file and renames it into place so a
// failed transfer never leaves a partial file at path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
