package app

import (
	"context"
	"errors"

	"github.com/ZeitounCorp/name2port/internal/portmap"
	"github.com/ZeitounCorp/name2port/internal/resolve"
)

// ResolvePort maps name to a free port on the configured host. Exit
// code 1 signals an exhausted attempt budget; other failures (invalid
// range, permission, unresolvable host) keep the default fatal code.
func ResolvePort(opts Options, name string) (resolve.Result, error) {
	var result resolve.Result
	err := withEnv(opts, func(e *env) error {
		driver := resolve.Driver{
			Prober:     e.prober,
			Inspector:  e.inspector,
			Logger:     e.logger,
			OnOccupied: e.reportOccupied,
		}
		res, err := driver.Resolve(context.Background(), e.request(name))
		if err != nil {
			return err
		}
		result = res
		e.logger.Debugf("resolved %q to port %d after %d attempt(s)", name, res.Port, res.AttemptsUsed)
		return nil
	})
	if err != nil {
		var exhausted resolve.ExhaustedError
		if errors.As(err, &exhausted) {
			return resolve.Result{}, NewCodeError(1, err)
		}
		return resolve.Result{}, err
	}
	return result, nil
}

// MapPort computes the candidate port for (name, salt) without
// touching the network. Useful for scripts and for checking that two
// machines agree on the mapping.
func MapPort(opts Options, name string, salt int) (int, error) {
	var port int
	err := withEnv(opts, func(e *env) error {
		if name == "" {
			return resolve.ErrEmptyName
		}
		if salt < 0 {
			return ErrInvalidSalt
		}
		port = portmap.Map(name, salt, e.config.MinPort, e.config.MaxPort)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return port, nil
}
