//go:build windows

package inspect

// Detect returns the no-op backend: no listener diagnostics are
// implemented on Windows, which degrades output but never resolution.
func Detect() Inspector {
	return Noop{}
}
