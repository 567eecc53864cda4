package app

import (
	"context"

	"github.com/ZeitounCorp/name2port/internal/inspect"
)

// InspectReport is the result of inspecting a single port.
type InspectReport struct {
	Capability string
	Listeners  []inspect.Listener
}

// InspectPort reports which processes hold the given port on the
// configured host. An empty listener list is a valid answer, not an
// error: the port may be free or the capability insufficient.
func InspectPort(opts Options, port int) (InspectReport, error) {
	var report InspectReport
	err := withEnv(opts, func(e *env) error {
		if port < 0 || port > 65535 {
			return NewCodeError(2, ErrInvalidPort)
		}
		report.Capability = e.inspector.Capability()
		report.Listeners = e.inspector.Inspect(context.Background(), e.config.Host, port)
		e.logger.Debugf("inspected port %d via %s: %d listener(s)", port, report.Capability, len(report.Listeners))
		return nil
	})
	if err != nil {
		return InspectReport{}, err
	}
	return report, nil
}
