//go:build unix && !linux

package inspect

import "os/exec"

// Detect picks the diagnostic backend available on this host. Called
// once at startup; the choice is not revisited per probe.
func Detect() Inspector {
	if _, err := exec.LookPath("lsof"); err == nil {
		return Lsof{}
	}
	return Noop{}
}
