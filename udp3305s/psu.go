// Package udp3305s controls a Uni-T UDP3305S lab power supply over a visa
// session.
//
// The supply has three physical channels and two virtual ones:
//
//	Ch1    channel 1 (max 33V 5.2A)
//	Ch2    channel 2 (max 33V 5.2A)
//	Ch3    channel 3 (max 6.2V 3.2A)
//	ChSer  channels 1+2 in series mode (max 66V 5.2A)
//	ChPara channels 1+2 in parallel mode (max 33V 10.4A)
package udp3305s

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Sean-Baker-Logikos/LogikosTestToolAutomation/visa"
)

// Models lists the model strings this driver accepts.
var Models = []string{"UDP3305S", "UDP3305S-E"}

// Mode is the coupling of channels 1 and 2.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSeries
	ModeParallel
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORM"
	case ModeSeries:
		return "SER"
	case ModeParallel:
		return "PARA"
	}
	return "UNKNOWN"
}

// modeSettle is how long the supply needs after a mode switch before it
// reliably accepts further work-mode commands, per the programming manual.
const modeSettle = 500 * time.Millisecond

// PSU is a connected UDP3305S power supply.
type PSU struct {
	sess *visa.Session
	id   visa.Identity

	Ch1, Ch2, Ch3 *Channel
	ChSer, ChPara *Channel
}

// Open establishes a session to the resource in cfg and attaches to the
// supply behind it.
func Open(ctx context.Context, cfg visa.SessionConfig) (*PSU, error) {
	sess, err := visa.Open(cfg)
	if err != nil {
		return nil, err
	}

	p, err := Attach(ctx, sess)
	if err != nil {
		sess.Close()
		return nil, err
	}
	return p, nil
}

// Find probes the discovery candidates and attaches to the first matching
// supply.
func Find(ctx context.Context, cfg visa.DiscoverConfig) (*PSU, error) {
	sess, id, err := visa.FindFirst(ctx, cfg, Models)
	if err != nil {
		return nil, err
	}
	return newPSU(sess, id), nil
}

// Attach verifies the instrument on an already-open session is a supported
// supply and takes ownership of the session.
func Attach(ctx context.Context, sess *visa.Session) (*PSU, error) {
	id, err := sess.Identify(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(Models, id.Model) {
		return nil, fmt.Errorf("%w: %q is not one of %v", visa.ErrNotFound, id.Model, Models)
	}
	return newPSU(sess, id), nil
}

func newPSU(sess *visa.Session, id visa.Identity) *PSU {
	return &PSU{
		sess:   sess,
		id:     id,
		Ch1:    &Channel{sess: sess, name: "CH1", VMax: 33, AMax: 5.2},
		Ch2:    &Channel{sess: sess, name: "CH2", VMax: 33, AMax: 5.2},
		Ch3:    &Channel{sess: sess, name: "CH3", VMax: 6.2, AMax: 3.2},
		ChSer:  &Channel{sess: sess, name: "SER", VMax: 66, AMax: 5.2},
		ChPara: &Channel{sess: sess, name: "PARA", VMax: 33, AMax: 10.4},
	}
}

// Identity returns the parsed *IDN? fields.
func (p *PSU) Identity() visa.Identity {
	return p.id
}

func (p *PSU) String() string {
	return fmt.Sprintf("%s 3-channel lab power supply (SN %s, firmware %s)",
		p.id.Model, p.id.SerialNumber, p.id.Firmware)
}

// Session returns the underlying session.
func (p *PSU) Session() *visa.Session {
	return p.sess
}

// Close releases the session.
func (p *PSU) Close() error {
	return p.sess.Close()
}

// SetMode couples channels 1 and 2 normally, in series or in parallel.
// The call sleeps for the settle time the manual requires after a mode
// switch.
func (p *PSU) SetMode(ctx context.Context, mode Mode) error {
	if err := p.sess.Write(ctx, "SOURCE:MODE "+mode.String()); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(modeSettle):
	}
	return nil
}

// Mode queries the channel coupling.
func (p *PSU) Mode(ctx context.Context) (Mode, error) {
	resp, err := p.sess.Query(ctx, "SOURCE:MODE?")
	if err != nil {
		return 0, err
	}
	for _, m := range []Mode{ModeNormal, ModeSeries, ModeParallel} {
		if resp == m.String() {
			return m, nil
		}
	}
	return 0, &visa.ProtocolError{Op: "mode", Err: fmt.Errorf("unknown mode %q", resp)}
}

// On turns on all outputs.
func (p *PSU) On(ctx context.Context) error {
	return p.sess.Write(ctx, "OUTPUT:STATE ALL,ON")
}

// Off turns off all outputs.
func (p *PSU) Off(ctx context.Context) error {
	return p.sess.Write(ctx, "OUTPUT:STATE ALL,OFF")
}

// Lock locks the keys on the instrument panel.
func (p *PSU) Lock(ctx context.Context) error {
	return p.sess.Write(ctx, "LOCK ON")
}

// Unlock unlocks the keys on the instrument panel.
func (p *PSU) Unlock(ctx context.Context) error {
	return p.sess.Write(ctx, "LOCK OFF")
}
