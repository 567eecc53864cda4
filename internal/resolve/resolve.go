// Package resolve runs the salted retry loop that turns a service
// name into a free port.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZeitounCorp/name2port/internal/inspect"
	"github.com/ZeitounCorp/name2port/internal/logger"
	"github.com/ZeitounCorp/name2port/internal/portmap"
	"github.com/ZeitounCorp/name2port/internal/probe"
)

var (
	ErrInvalidRange    = errors.New("invalid port range")
	ErrEmptyName       = errors.New("service name is empty")
	ErrInvalidAttempts = errors.New("max attempts must be at least 1")
)

// Request carries one validated resolution. Callers build it from
// config and flags; Resolve re-validates it regardless.
type Request struct {
	Name        string
	Host        string
	MinPort     int
	MaxPort     int
	MaxAttempts int
}

func (r Request) Validate() error {
	if r.Name == "" {
		return ErrEmptyName
	}
	if r.MinPort < 0 || r.MaxPort > 65535 || r.MinPort > r.MaxPort {
		return fmt.Errorf("%w: %d-%d", ErrInvalidRange, r.MinPort, r.MaxPort)
	}
	if r.MaxAttempts < 1 {
		return ErrInvalidAttempts
	}
	return nil
}

// Candidate is one (name, salt)-derived port awaiting a probe.
type Candidate struct {
	Name string
	Salt int
	Port int
}

// Result is the successful terminal state of one resolution.
type Result struct {
	Port          int
	AttemptsUsed  int
	HadCollisions bool
}

// ExhaustedError means every allowed salt produced an occupied port.
// Distinct from fatal errors: the range or attempt budget is the
// limiting factor, not a misconfiguration.
type ExhaustedError struct {
	Name     string
	MinPort  int
	MaxPort  int
	Attempts int
}

func (e ExhaustedError) Error() string {
	return fmt.Sprintf("no free port for %q in range %d-%d after %d attempts",
		e.Name, e.MinPort, e.MaxPort, e.Attempts)
}

// Driver orchestrates mapper, prober and inspector. Zero-value fields
// get working defaults, so tests can inject only what they fake.
type Driver struct {
	Prober    probe.Prober
	Inspector inspect.Inspector
	Logger    logger.Logger

	// OnOccupied receives diagnostics for every collision. Purely
	// observational: it must not (and cannot) alter the loop.
	OnOccupied func(Candidate, []inspect.Listener)
}

// Resolve tries salts strictly in increasing order from 0, probing one
// candidate at a time. No randomization and no concurrency: repeated
// runs against the same system state walk the same candidate sequence.
func (d Driver) Resolve(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	prober := d.Prober
	if prober == nil {
		prober = probe.TCPProber{}
	}
	inspector := d.Inspector
	if inspector == nil {
		inspector = inspect.Noop{}
	}

	for salt := 0; salt < req.MaxAttempts; salt++ {
		candidate := Candidate{
			Name: req.Name,
			Salt: salt,
			Port: portmap.Map(req.Name, salt, req.MinPort, req.MaxPort),
		}
		d.Logger.Debugf("probing %s:%d (salt %d)", req.Host, candidate.Port, salt)

		outcome, err := prober.Probe(ctx, req.Host, candidate.Port)
		if err != nil {
			_ = d.Logger.Eventf("FATAL", "name=%s port=%d err=%v", req.Name, candidate.Port, err)
			return Result{}, err
		}
		if outcome.Free {
			_ = d.Logger.Eventf("RESOLVE", "name=%s port=%d attempts=%d", req.Name, candidate.Port, salt+1)
			return Result{
				Port:          candidate.Port,
				AttemptsUsed:  salt + 1,
				HadCollisions: salt > 0,
			}, nil
		}

		listeners := inspector.Inspect(ctx, req.Host, candidate.Port)
		if d.OnOccupied != nil {
			d.OnOccupied(candidate, listeners)
		}
		_ = d.Logger.Eventf("COLLIDE", "name=%s port=%d salt=%d", req.Name, candidate.Port, salt)
	}

	_ = d.Logger.Eventf("EXHAUST", "name=%s range=%d-%d attempts=%d", req.Name, req.MinPort, req.MaxPort, req.MaxAttempts)
	return Result{}, ExhaustedError{
		Name:     req.Name,
		MinPort:  req.MinPort,
		MaxPort:  req.MaxPort,
		Attempts: req.MaxAttempts,
	}
}
