// Package portmap derives candidate ports from service names.
//
// The digest scheme is part of the tool's external contract: the whole
// point is that the same name resolves to the same port on every
// machine, so the hash is fixed and versioned. Scheme v1: XXH64 over
// the UTF-8 bytes of "<name>:<salt>" with the salt in decimal, reduced
// modulo the range width. Changing the scheme is a breaking change.
package portmap

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Map returns the candidate port for name at the given salt, always
// within [minPort, maxPort]. Callers must pass a validated range
// (minPort <= maxPort) and a non-negative salt.
func Map(name string, salt, minPort, maxPort int) int {
	digest := xxhash.Sum64String(name + ":" + strconv.Itoa(salt))
	width := uint64(maxPort-minPort) + 1
	return minPort + int(digest%width)
}
