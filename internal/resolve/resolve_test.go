package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ZeitounCorp/name2port/internal/inspect"
	"github.com/ZeitounCorp/name2port/internal/probe"
)

// fakeProber scripts outcomes per port and records the probe sequence.
type fakeProber struct {
	occupied map[int]bool  // true = occupied; missing = free
	fail     map[int]error // fatal error for these ports
	probed   []int
}

func (f *fakeProber) Probe(_ context.Context, _ string, port int) (probe.Outcome, error) {
	f.probed = append(f.probed, port)
	if err, ok := f.fail[port]; ok {
		return probe.Outcome{}, err
	}
	if f.occupied[port] {
		return probe.Outcome{Free: false, Cause: errors.New("address already in use")}, nil
	}
	return probe.Outcome{Free: true}, nil
}

// recordingInspector counts calls and returns canned listeners.
type recordingInspector struct {
	listeners []inspect.Listener
	inspected []int
}

func (r *recordingInspector) Inspect(_ context.Context, _ string, port int) []inspect.Listener {
	r.inspected = append(r.inspected, port)
	return r.listeners
}

func (r *recordingInspector) Capability() string { return "fake" }

func request(maxAttempts int) Request {
	return Request{
		Name:        "bento-pdf",
		Host:        "127.0.0.1",
		MinPort:     20000,
		MaxPort:     45000,
		MaxAttempts: maxAttempts,
	}
}

// Candidate sequence for "bento-pdf" in [20000, 45000] under the v1
// digest: salt 0 -> 43168, salt 1 -> 23177, salt 2 -> 30125.
func TestResolve(t *testing.T) {
	t.Run("first candidate free", func(t *testing.T) {
		prober := &fakeProber{}
		driver := Driver{Prober: prober, Inspector: &recordingInspector{}}

		result, err := driver.Resolve(context.Background(), request(4096))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Port != 43168 {
			t.Errorf("Port = %d, want 43168", result.Port)
		}
		if result.AttemptsUsed != 1 {
			t.Errorf("AttemptsUsed = %d, want 1", result.AttemptsUsed)
		}
		if result.HadCollisions {
			t.Error("HadCollisions = true, want false")
		}
	})

	t.Run("retries with incremented salt on collision", func(t *testing.T) {
		prober := &fakeProber{occupied: map[int]bool{43168: true}}
		inspector := &recordingInspector{
			listeners: []inspect.Listener{{LocalAddr: "127.0.0.1:43168", PID: 99, Name: "python3"}},
		}
		var reported []Candidate
		driver := Driver{
			Prober:    prober,
			Inspector: inspector,
			OnOccupied: func(c Candidate, _ []inspect.Listener) {
				reported = append(reported, c)
			},
		}

		result, err := driver.Resolve(context.Background(), request(4096))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Port != 23177 {
			t.Errorf("Port = %d, want 23177", result.Port)
		}
		if result.AttemptsUsed != 2 {
			t.Errorf("AttemptsUsed = %d, want 2", result.AttemptsUsed)
		}
		if !result.HadCollisions {
			t.Error("HadCollisions = false, want true")
		}
		if len(inspector.inspected) != 1 || inspector.inspected[0] != 43168 {
			t.Errorf("inspected = %v, want [43168]", inspector.inspected)
		}
		if len(reported) != 1 || reported[0].Salt != 0 || reported[0].Port != 43168 {
			t.Errorf("reported = %+v", reported)
		}
	})

	t.Run("exhausts after max attempts", func(t *testing.T) {
		prober := &fakeProber{occupied: map[int]bool{43168: true, 23177: true, 30125: true}}
		driver := Driver{Prober: prober}

		_, err := driver.Resolve(context.Background(), request(3))
		var exhausted ExhaustedError
		if !errors.As(err, &exhausted) {
			t.Fatalf("error = %v, want ExhaustedError", err)
		}
		if exhausted.Attempts != 3 {
			t.Errorf("Attempts = %d, want 3", exhausted.Attempts)
		}
		if len(prober.probed) != 3 {
			t.Errorf("probed %d candidates, want 3", len(prober.probed))
		}
	})

	t.Run("single attempt budget", func(t *testing.T) {
		prober := &fakeProber{occupied: map[int]bool{43168: true}}
		driver := Driver{Prober: prober}

		_, err := driver.Resolve(context.Background(), request(1))
		var exhausted ExhaustedError
		if !errors.As(err, &exhausted) {
			t.Fatalf("error = %v, want ExhaustedError", err)
		}
		if exhausted.Attempts != 1 {
			t.Errorf("Attempts = %d, want 1", exhausted.Attempts)
		}
	})

	t.Run("fatal probe error stops immediately", func(t *testing.T) {
		bindErr := fmt.Errorf("bind 127.0.0.1:43168: %w", probe.ErrPermissionDenied)
		prober := &fakeProber{fail: map[int]error{43168: bindErr}}
		driver := Driver{Prober: prober}

		_, err := driver.Resolve(context.Background(), request(4096))
		if !errors.Is(err, probe.ErrPermissionDenied) {
			t.Fatalf("error = %v, want ErrPermissionDenied", err)
		}
		if len(prober.probed) != 1 {
			t.Errorf("probed %d candidates after fatal error, want 1", len(prober.probed))
		}
	})

	t.Run("invalid range fails before any probe", func(t *testing.T) {
		prober := &fakeProber{}
		driver := Driver{Prober: prober}

		req := request(4096)
		req.MinPort, req.MaxPort = 50, 10
		_, err := driver.Resolve(context.Background(), req)
		if !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("error = %v, want ErrInvalidRange", err)
		}
		if len(prober.probed) != 0 {
			t.Errorf("probed %d candidates for invalid range, want 0", len(prober.probed))
		}
	})

	t.Run("empty name fails before any probe", func(t *testing.T) {
		prober := &fakeProber{}
		driver := Driver{Prober: prober}

		req := request(4096)
		req.Name = ""
		_, err := driver.Resolve(context.Background(), req)
		if !errors.Is(err, ErrEmptyName) {
			t.Fatalf("error = %v, want ErrEmptyName", err)
		}
		if len(prober.probed) != 0 {
			t.Errorf("probed %d candidates, want 0", len(prober.probed))
		}
	})

	t.Run("zero attempts is invalid", func(t *testing.T) {
		driver := Driver{Prober: &fakeProber{}}

		_, err := driver.Resolve(context.Background(), request(0))
		if !errors.Is(err, ErrInvalidAttempts) {
			t.Fatalf("error = %v, want ErrInvalidAttempts", err)
		}
	})

	t.Run("nil inspector is tolerated", func(t *testing.T) {
		prober := &fakeProber{occupied: map[int]bool{43168: true}}
		driver := Driver{Prober: prober}

		result, err := driver.Resolve(context.Background(), request(4096))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Port != 23177 {
			t.Errorf("Port = %d, want 23177", result.Port)
		}
	})
}

// An inspector that returns nothing must not change which ports are
// tried or the final outcome.
func TestResolveDiagnosticsDoNotAffectOutcome(t *testing.T) {
	occupied := map[int]bool{43168: true, 23177: true}

	run := func(inspector inspect.Inspector) ([]int, Result) {
		prober := &fakeProber{occupied: occupied}
		driver := Driver{Prober: prober, Inspector: inspector}
		result, err := driver.Resolve(context.Background(), request(4096))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return prober.probed, result
	}

	withDiag, resultDiag := run(&recordingInspector{
		listeners: []inspect.Listener{{LocalAddr: "x", PID: 1}},
	})
	withBroken, resultBroken := run(inspect.Noop{})

	if len(withDiag) != len(withBroken) {
		t.Fatalf("probe sequences differ: %v vs %v", withDiag, withBroken)
	}
	for i := range withDiag {
		if withDiag[i] != withBroken[i] {
			t.Fatalf("probe sequences differ at %d: %v vs %v", i, withDiag, withBroken)
		}
	}
	if resultDiag != resultBroken {
		t.Errorf("results differ: %+v vs %+v", resultDiag, resultBroken)
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"valid", Request{Name: "web", Host: "127.0.0.1", MinPort: 20000, MaxPort: 45000, MaxAttempts: 1}, nil},
		{"full range", Request{Name: "web", MinPort: 0, MaxPort: 65535, MaxAttempts: 1}, nil},
		{"min above max", Request{Name: "web", MinPort: 50, MaxPort: 10, MaxAttempts: 1}, ErrInvalidRange},
		{"negative min", Request{Name: "web", MinPort: -1, MaxPort: 10, MaxAttempts: 1}, ErrInvalidRange},
		{"max above 65535", Request{Name: "web", MinPort: 0, MaxPort: 70000, MaxAttempts: 1}, ErrInvalidRange},
		{"empty name", Request{Name: "", MinPort: 0, MaxPort: 10, MaxAttempts: 1}, ErrEmptyName},
		{"zero attempts", Request{Name: "web", MinPort: 0, MaxPort: 10, MaxAttempts: 0}, ErrInvalidAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
