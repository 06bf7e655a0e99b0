// Package bench loads a YAML description of the instruments on a test bench
// and opens sessions to them by name, so scripts don't hard-code resource
// identifiers.
package bench

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sean-Baker-Logikos/LogikosTestToolAutomation/visa"
)

// Instrument describes one instrument on the bench.
type Instrument struct {
	// Resource is the VISA resource identifier. When empty, the
	// instrument is located by probing serial ports for a model match.
	Resource string `yaml:"resource"`

	// Models restricts which instrument models are accepted.
	Models []string `yaml:"models"`

	// BaudRate for ASRL resources.
	BaudRate int `yaml:"baud_rate"`

	// Timeout overrides the bench-wide timeout for this instrument.
	Timeout time.Duration `yaml:"timeout"`
}

// Config is a bench description.
type Config struct {
	// Timeout is the default per-operation timeout for every instrument.
	Timeout time.Duration `yaml:"timeout"`

	// GPIBPort is the serial port of the Prologix controller, shared by
	// all GPIB instruments on the bench.
	GPIBPort string `yaml:"gpib_port"`

	Instruments map[string]Instrument `yaml:"instruments"`
}

// Load reads a bench description from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Timeout: 5 * time.Second,
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse bench config: %w", err)
	}

	return cfg, nil
}

// Connect opens a session to the named instrument and verifies its model.
func (c *Config) Connect(ctx context.Context, name string) (*visa.Session, visa.Identity, error) {
	inst, ok := c.Instruments[name]
	if !ok {
		return nil, visa.Identity{}, fmt.Errorf("no instrument %q in bench config", name)
	}

	timeout := inst.Timeout
	if timeout == 0 {
		timeout = c.Timeout
	}

	if inst.Resource == "" {
		// No fixed address; probe the machine's serial ports.
		return visa.FindFirst(ctx, visa.DiscoverConfig{
			ProbeSerial: true,
			BaudRate:    inst.BaudRate,
			GPIBPort:    c.GPIBPort,
			Timeout:     timeout,
		}, inst.Models)
	}

	sess, err := visa.Open(visa.SessionConfig{
		Resource: inst.Resource,
		Timeout:  timeout,
		BaudRate: inst.BaudRate,
		GPIBPort: c.GPIBPort,
	})
	if err != nil {
		return nil, visa.Identity{}, err
	}

	id, err := sess.Identify(ctx)
	if err != nil {
		sess.Close()
		return nil, visa.Identity{}, err
	}

	if len(inst.Models) > 0 && !slices.Contains(inst.Models, id.Model) {
		sess.Close()
		return nil, visa.Identity{}, fmt.Errorf("%w: %q at %s is not one of %v",
			visa.ErrNotFound, id.Model, inst.Resource, inst.Models)
	}

	return sess, id, nil
}
