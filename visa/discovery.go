package visa

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Sean-Baker-Logikos/LogikosTestToolAutomation/transports"
)

// Endpoint describes an instrument found during discovery.
type Endpoint struct {
	Resource string
	Identity Identity
}

// DiscoverConfig holds configuration for instrument discovery.
// There is no hidden global resource manager: all candidates are either
// listed explicitly or enumerated from the machine's serial ports.
type DiscoverConfig struct {
	// Resources lists candidate resource identifiers to probe.
	Resources []string

	// ProbeSerial adds every serial port present on the machine to the
	// candidate list as an ASRL resource.
	ProbeSerial bool

	// BaudRate for ASRL candidates. Default is 9600.
	BaudRate int

	// GPIBPort is the Prologix controller port for GPIB candidates.
	GPIBPort string

	// Timeout bounds the probe of each candidate. Default is 2 seconds.
	Timeout time.Duration

	// Logger receives traffic trace events during probing.
	Logger Logger
}

func (cfg *DiscoverConfig) candidates() ([]string, error) {
	resources := slices.Clone(cfg.Resources)

	if cfg.ProbeSerial {
		ports, err := transports.SerialPorts()
		if err != nil {
			return nil, fmt.Errorf("failed to list serial ports: %w", err)
		}
		for _, p := range ports {
			resources = append(resources, "ASRL"+p+"::INSTR")
		}
	}

	return resources, nil
}

func (cfg *DiscoverConfig) session(resource string) SessionConfig {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	return SessionConfig{
		Resource: resource,
		Timeout:  timeout,
		BaudRate: cfg.BaudRate,
		GPIBPort: cfg.GPIBPort,
		Logger:   cfg.Logger,
	}
}

// Discover probes every candidate resource and returns a descriptor for each
// instrument that answers *IDN?. Candidates that cannot be opened or do not
// answer are skipped.
func Discover(ctx context.Context, cfg DiscoverConfig) ([]Endpoint, error) {
	resources, err := cfg.candidates()
	if err != nil {
		return nil, err
	}

	var found []Endpoint

	for _, resource := range resources {
		select {
		case <-ctx.Done():
			return found, ctx.Err()
		default:
		}

		sess, err := Open(cfg.session(resource))
		if err != nil {
			continue // Not reachable at this resource
		}

		id, err := sess.Identify(ctx)
		sess.Close()
		if err != nil {
			continue
		}

		found = append(found, Endpoint{Resource: resource, Identity: id})
	}

	return found, nil
}

// FindFirst probes candidates in order and returns an open session to the
// first instrument whose model matches one of models. An empty models list
// matches any instrument. Returns ErrNotFound if no candidate matches.
func FindFirst(ctx context.Context, cfg DiscoverConfig, models []string) (*Session, Identity, error) {
	resources, err := cfg.candidates()
	if err != nil {
		return nil, Identity{}, err
	}

	for _, resource := range resources {
		select {
		case <-ctx.Done():
			return nil, Identity{}, ctx.Err()
		default:
		}

		sess, err := Open(cfg.session(resource))
		if err != nil {
			continue
		}

		id, err := sess.Identify(ctx)
		if err != nil {
			sess.Close()
			continue
		}

		if len(models) > 0 && !slices.Contains(models, id.Model) {
			sess.Close()
			continue
		}

		return sess, id, nil
	}

	return nil, Identity{}, fmt.Errorf("%w: no instrument matching %v", ErrNotFound, models)
}
