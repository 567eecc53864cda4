// Package inspect identifies the processes holding a conflicting port.
//
// Inspection is strictly diagnostic: it never influences which port is
// chosen and it never fails the resolution. Every backend swallows its
// own errors and degrades to an empty result. The backend is picked
// once at startup by Detect, not re-checked per call.
package inspect

import (
	"context"
	"fmt"
	"strconv"
)

// Listener describes one process bound to a port, best effort. Fields
// the backend could not determine are left at their zero value and
// rendered as "unknown".
type Listener struct {
	LocalAddr string
	PID       int
	Name      string
	Exe       string
}

// String renders the operator-facing diagnostic line.
func (l Listener) String() string {
	pid := "unknown"
	if l.PID > 0 {
		pid = strconv.Itoa(l.PID)
	}
	name := l.Name
	if name == "" {
		name = "unknown"
	}
	exe := l.Exe
	if exe == "" {
		exe = "unknown"
	}
	return fmt.Sprintf("%s pid=%s name=%s exe=%s", l.LocalAddr, pid, name, exe)
}

// Inspector enumerates listeners on a port. Implementations must not
// return errors: unavailable capability or failed lookups yield an
// empty slice. Ordering follows the backend's enumeration and is
// stable within a single invocation.
type Inspector interface {
	Inspect(ctx context.Context, host string, port int) []Listener
	Capability() string
}

// Noop is the fallback when no diagnostic capability exists.
type Noop struct{}

func (Noop) Inspect(context.Context, string, int) []Listener { return nil }

func (Noop) Capability() string { return "none" }
