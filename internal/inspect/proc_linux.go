//go:build linux

package inspect

import (
	"bufio"
	"context"
	"encoding/hex"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ProcTable is the rich backend: it reads the kernel socket tables
// directly and maps socket inodes back to owning processes, so it
// works without any external tool and reports the executable path.
type ProcTable struct{}

func (ProcTable) Capability() string { return "proc" }

func (p ProcTable) Inspect(_ context.Context, _ string, port int) []Listener {
	inodes := make(map[string]string) // inode -> local address
	for _, table := range []struct {
		path string
		ipv6 bool
	}{
		{"/proc/net/tcp", false},
		{"/proc/net/tcp6", true},
	} {
		f, err := os.Open(table.path)
		if err != nil {
			continue
		}
		for inode, addr := range parseSocketTable(f, table.ipv6, port) {
			inodes[inode] = addr
		}
		f.Close()
	}
	if len(inodes) == 0 {
		return nil
	}

	var listeners []Listener
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil
	}
	// os.ReadDir sorts entries, so enumeration order is stable for a
	// given system state.
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		for _, inode := range socketInodes(pid) {
			addr, ok := inodes[inode]
			if !ok {
				continue
			}
			listeners = append(listeners, Listener{
				LocalAddr: addr,
				PID:       pid,
				Name:      processComm(pid),
				Exe:       processExe(pid),
			})
			delete(inodes, inode)
		}
	}
	return listeners
}

// parseSocketTable extracts inode -> local-address entries for LISTEN
// sockets on the given port from a /proc/net/tcp-format table.
func parseSocketTable(r io.Reader, ipv6 bool, port int) map[string]string {
	entries := make(map[string]string)
	scanner := bufio.NewScanner(r)
	scanner.Scan() // header
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			continue
		}
		// 0A = TCP_LISTEN
		if fields[3] != "0A" {
			continue
		}
		addr, entryPort := decodeAddr(fields[1], ipv6)
		if entryPort != port {
			continue
		}
		entries[fields[9]] = net.JoinHostPort(addr, strconv.Itoa(entryPort))
	}
	return entries
}

// decodeAddr parses the hex "ADDR:PORT" form used by /proc/net/tcp.
// IPv6 addresses are stored as four little-endian 32-bit groups.
func decodeAddr(raw string, ipv6 bool) (string, int) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return "", 0
	}
	port64, err := strconv.ParseInt(parts[1], 16, 32)
	if err != nil {
		return "", 0
	}
	port := int(port64)

	b, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", port
	}
	if ipv6 {
		if len(b) != 16 {
			return "::", port
		}
		ip := make(net.IP, 16)
		for i := 0; i < 4; i++ {
			ip[i*4+0] = b[i*4+3]
			ip[i*4+1] = b[i*4+2]
			ip[i*4+2] = b[i*4+1]
			ip[i*4+3] = b[i*4+0]
		}
		return ip.String(), port
	}
	if len(b) != 4 {
		return "", port
	}
	return net.IPv4(b[3], b[2], b[1], b[0]).String(), port
}

// socketInodes lists the socket inodes held open by pid.
func socketInodes(pid int) []string {
	fdDir := filepath.Join("/proc", strconv.Itoa(pid), "fd")
	fds, err := os.ReadDir(fdDir)
	if err != nil {
		return nil
	}
	var inodes []string
	for _, fd := range fds {
		link, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
		if err != nil {
			continue
		}
		if strings.HasPrefix(link, "socket:[") {
			inodes = append(inodes, strings.TrimSuffix(strings.TrimPrefix(link, "socket:["), "]"))
		}
	}
	return inodes
}

func processComm(pid int) string {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "comm"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func processExe(pid int) string {
	path, err := os.Readlink(filepath.Join("/proc", strconv.Itoa(pid), "exe"))
	if err != nil {
		return ""
	}
	return path
}
