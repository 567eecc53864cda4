package app

import (
	"context"
	"fmt"
)

// ScanResult summarizes one pass over the configured port range.
type ScanResult struct {
	Start    int
	End      int
	Lines    []string
	Occupied int
}

// Scan probes every port in the configured range and reports the
// occupied ones with their listeners. Stateless: nothing is recorded
// beyond the optional event log.
func Scan(opts Options) (ScanResult, error) {
	result := ScanResult{}
	err := withEnv(opts, func(e *env) error {
		ctx := context.Background()
		result.Start = e.config.MinPort
		result.End = e.config.MaxPort
		for port := result.Start; port <= result.End; port++ {
			outcome, err := e.prober.Probe(ctx, e.config.Host, port)
			if err != nil {
				return err
			}
			if outcome.Free {
				continue
			}
			result.Occupied++
			listeners := e.inspector.Inspect(ctx, e.config.Host, port)
			if len(listeners) == 0 {
				result.Lines = append(result.Lines, fmt.Sprintf("Port %d: in use (owner unknown)", port))
			} else {
				for _, l := range listeners {
					result.Lines = append(result.Lines, fmt.Sprintf("Port %d: %s", port, l))
				}
			}
			_ = e.logger.Eventf("SCAN", "port=%d listeners=%d", port, len(listeners))
		}
		return nil
	})
	if err != nil {
		return ScanResult{}, err
	}
	return result, nil
}
