// Package probe tests whether a TCP port can actually be bound.
//
// A probe is a point-in-time check, not a reservation: the listener is
// closed on every path before the result is returned, so another
// process can take the port between the probe and the caller's use of
// it. That race is inherent to the tool and documented, not defended
// against.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const defaultTimeout = 2 * time.Second

var (
	// ErrPermissionDenied means binding needs elevated privilege
	// (typically a port below 1024). Retrying other salts cannot fix
	// it, so it aborts resolution instead of counting as occupied.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnresolvableHost means the host argument does not resolve to
	// a bindable address.
	ErrUnresolvableHost = errors.New("cannot resolve host")
)

// Outcome is the result of one probe. When Free is false, Cause holds
// the OS-level bind error for diagnostics.
type Outcome struct {
	Free  bool
	Cause error
}

// Prober checks a single (host, port) pair. Occupancy is reported in
// the Outcome; the error return is reserved for conditions that make
// further probing pointless (bad host, permission, timeout).
type Prober interface {
	Probe(ctx context.Context, host string, port int) (Outcome, error)
}

// TCPProber binds and immediately releases a real TCP listener.
type TCPProber struct {
	Timeout time.Duration // per-probe bound, defaults to 2s
}

func (p TCPProber) Probe(ctx context.Context, host string, port int) (Outcome, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err == nil {
		_ = listener.Close()
		return Outcome{Free: true}, nil
	}
	return classify(addr, err)
}

func classify(addr string, err error) (Outcome, error) {
	if isAddrInUse(err) {
		return Outcome{Free: false, Cause: err}, nil
	}
	if isPermission(err) || errors.Is(err, os.ErrPermission) {
		return Outcome{}, fmt.Errorf("bind %s: %w", addr, ErrPermissionDenied)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Outcome{}, fmt.Errorf("bind %s: %w", addr, ErrUnresolvableHost)
	}
	var addrErr *net.AddrError
	if errors.As(err, &addrErr) {
		return Outcome{}, fmt.Errorf("bind %s: %w", addr, ErrUnresolvableHost)
	}
	return Outcome{}, fmt.Errorf("bind %s: %w", addr, err)
}
