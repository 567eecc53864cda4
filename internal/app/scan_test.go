package app

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZeitounCorp/name2port/internal/inspect"
)

func TestScan(t *testing.T) {
	t.Run("reports occupied ports with listeners", func(t *testing.T) {
		prober := &fakeProber{occupied: map[int]bool{20001: true, 20003: true}}
		var diag bytes.Buffer
		opts := testOptions(t, prober, &diag)
		opts.MinPort = intPtr(20000)
		opts.MaxPort = intPtr(20004)
		opts.Inspector = fakeInspector{listeners: []inspect.Listener{
			{LocalAddr: "127.0.0.1:0", PID: 12, Name: "svc"},
		}}

		result, err := Scan(opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Start != 20000 || result.End != 20004 {
			t.Errorf("range = %d-%d, want 20000-20004", result.Start, result.End)
		}
		if result.Occupied != 2 {
			t.Errorf("Occupied = %d, want 2", result.Occupied)
		}
		if len(result.Lines) != 2 {
			t.Fatalf("got %d lines, want 2: %v", len(result.Lines), result.Lines)
		}
		if !strings.HasPrefix(result.Lines[0], "Port 20001:") {
			t.Errorf("first line = %q", result.Lines[0])
		}
		if len(prober.probed) != 5 {
			t.Errorf("probed %d ports, want 5", len(prober.probed))
		}
	})

	t.Run("unknown owner when inspector is empty", func(t *testing.T) {
		prober := &fakeProber{occupied: map[int]bool{20000: true}}
		var diag bytes.Buffer
		opts := testOptions(t, prober, &diag)
		opts.MinPort = intPtr(20000)
		opts.MaxPort = intPtr(20000)

		result, err := Scan(opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Lines) != 1 || !strings.Contains(result.Lines[0], "owner unknown") {
			t.Errorf("lines = %v", result.Lines)
		}
	})

	t.Run("all free yields no lines", func(t *testing.T) {
		prober := &fakeProber{}
		var diag bytes.Buffer
		opts := testOptions(t, prober, &diag)
		opts.MinPort = intPtr(20000)
		opts.MaxPort = intPtr(20002)

		result, err := Scan(opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Occupied != 0 || len(result.Lines) != 0 {
			t.Errorf("result = %+v, want empty", result)
		}
	})
}

func TestInspectPort(t *testing.T) {
	t.Run("returns listeners and capability", func(t *testing.T) {
		var diag bytes.Buffer
		opts := testOptions(t, &fakeProber{}, &diag)
		opts.Inspector = fakeInspector{listeners: []inspect.Listener{
			{LocalAddr: "127.0.0.1:8080", PID: 9, Name: "svc"},
		}}

		report, err := InspectPort(opts, 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Capability != "fake" {
			t.Errorf("Capability = %q, want fake", report.Capability)
		}
		if len(report.Listeners) != 1 {
			t.Errorf("got %d listeners, want 1", len(report.Listeners))
		}
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		var diag bytes.Buffer
		report, err := InspectPort(testOptions(t, &fakeProber{}, &diag), 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Listeners) != 0 {
			t.Errorf("got %d listeners, want 0", len(report.Listeners))
		}
	})

	t.Run("rejects out-of-range port", func(t *testing.T) {
		var diag bytes.Buffer
		if _, err := InspectPort(testOptions(t, &fakeProber{}, &diag), 70000); err == nil {
			t.Error("expected error for port 70000")
		}
	})
}

func TestConfigCommands(t *testing.T) {
	t.Run("show lists all keys", func(t *testing.T) {
		opts := Options{ConfigPath: filepath.Join(t.TempDir(), "config.json")}

		lines, err := ConfigShow(opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		joined := strings.Join(lines, "\n")
		for _, key := range []string{"host:", "min_port:", "max_port:", "max_attempts:", "probe_timeout:", "log_file:"} {
			if !strings.Contains(joined, key) {
				t.Errorf("show output missing %q: %v", key, lines)
			}
		}
	})

	t.Run("set then get round trips", func(t *testing.T) {
		opts := Options{ConfigPath: filepath.Join(t.TempDir(), "config.json")}

		if _, err := ConfigSet(opts, "min_port", "30000"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := ConfigGet(opts, "min_port")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "30000" {
			t.Errorf("min_port = %q, want 30000", got)
		}
	})

	t.Run("set rejects values that break invariants", func(t *testing.T) {
		opts := Options{ConfigPath: filepath.Join(t.TempDir(), "config.json")}

		if _, err := ConfigSet(opts, "min_port", "50000"); err == nil {
			t.Error("expected error: min_port 50000 above default max_port 45000")
		}
		if _, err := ConfigSet(opts, "max_attempts", "zero"); err == nil {
			t.Error("expected error for non-numeric value")
		}
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		opts := Options{ConfigPath: filepath.Join(t.TempDir(), "config.json")}

		if _, err := ConfigGet(opts, "bogus"); err == nil {
			t.Error("expected error for unknown key on get")
		}
		if _, err := ConfigSet(opts, "bogus", "1"); err == nil {
			t.Error("expected error for unknown key on set")
		}
	})
}
