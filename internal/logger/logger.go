// Package logger provides verbose debug output and an append-only
// event log, both optional.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Logger is safe to use as a zero value: no event file, no debug
// output.
type Logger struct {
	Path    string // event log file, empty disables Event/Eventf
	Verbose bool
}

// Debugf writes to stderr when verbose output is enabled. Debug lines
// never touch stdout, which is reserved for the machine-consumable
// result.
func (l Logger) Debugf(format string, args ...any) {
	if !l.Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// Event appends "<RFC3339> <event> <details>" to the log file.
func (l Logger) Event(event string, details string) error {
	if l.Path == "" {
		return nil
	}
	path := expandPath(l.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	stamp := time.Now().UTC().Format(time.RFC3339)
	_, err = fmt.Fprintf(f, "%s %s %s\n", stamp, event, details)
	return err
}

// Eventf is Event with formatted details.
func (l Logger) Eventf(event string, format string, args ...any) error {
	if l.Path == "" {
		return nil
	}
	return l.Event(event, fmt.Sprintf(format, args...))
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
