//go:build unix

package inspect

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Lsof is the basic backend: it shells out to lsof and parses its
// field output. Fields lsof cannot supply stay empty.
type Lsof struct {
	Timeout time.Duration
}

func (Lsof) Capability() string { return "lsof" }

func (l Lsof) Inspect(ctx context.Context, host string, port int) []Listener {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "lsof", "-nP", fmt.Sprintf("-iTCP:%d", port), "-sTCP:LISTEN", "-Fpcn")
	out, err := cmd.Output()
	if err != nil {
		// lsof exits non-zero when nothing listens; either way there
		// is nothing to report.
		return nil
	}
	listeners := parseLsofOutput(out)
	for i := range listeners {
		if listeners[i].Exe == "" {
			listeners[i].Exe = exePath(listeners[i].PID)
		}
	}
	return listeners
}

// parseLsofOutput decodes `lsof -F pcn` field lines: p<pid> opens a
// process section, c<command> names it, and each n<address> line is
// one listening socket.
func parseLsofOutput(out []byte) []Listener {
	var listeners []Listener
	pid := 0
	command := ""
	for _, line := range bytes.Split(out, []byte{'\n'}) {
		if len(line) < 2 {
			continue
		}
		value := string(line[1:])
		switch line[0] {
		case 'p':
			if n, err := strconv.Atoi(value); err == nil {
				pid = n
				command = ""
			}
		case 'c':
			command = value
		case 'n':
			if pid == 0 {
				continue
			}
			listeners = append(listeners, Listener{
				LocalAddr: value,
				PID:       pid,
				Name:      command,
			})
		}
	}
	return listeners
}

// exePath resolves the executable of pid where the platform allows it.
func exePath(pid int) string {
	switch runtime.GOOS {
	case "linux":
		path, err := os.Readlink(filepath.Join("/proc", strconv.Itoa(pid), "exe"))
		if err != nil {
			return ""
		}
		return path
	case "darwin":
		out, err := exec.Command("lsof", "-p", strconv.Itoa(pid), "-a", "-d", "txt", "-Fn").Output()
		if err != nil {
			return ""
		}
		for _, line := range strings.Split(string(out), "\n") {
			if strings.HasPrefix(line, "n") {
				return strings.TrimPrefix(line, "n")
			}
		}
	}
	return ""
}
