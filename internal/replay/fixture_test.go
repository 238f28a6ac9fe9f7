package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/convergence"
)

const fixtureJSON = `{
  "description": "clear scene ramps toward the ceiling",
  "tunables": {
    "initial_popout": 0.3,
    "min_convergence": 0.0,
    "max_convergence": 1.0,
    "convergence_rate": 0.5,
    "popout_deviation_threshold": 0.005,
    "judder_detection_window": 8,
    "judder_threshold": 3,
    "lock_duration_seconds": 1.0,
    "manual_step_size": 0.05
  },
  "frames": [
    {"frame": 0, "intrusion": 0, "dt": 0.016666},
    {"frame": 1, "intrusion": 0, "dt": 0.016666},
    {"frame": 2, "intrusion": 0, "dt": 0.016666}
  ],
  "expected": [
    {"frame": 2, "mode": "tracking", "min_popout": 0.3, "max_popout": 1.0}
  ]
}`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFixture(t *testing.T) {
	f, err := LoadFixture(writeFixture(t, fixtureJSON))
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	if f.Description == "" {
		t.Fatal("description should parse")
	}
	if len(f.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(f.Frames))
	}
	if len(f.Expected) != 1 || f.Expected[0].MinPopout == nil {
		t.Fatalf("expectations should parse: %+v", f.Expected)
	}

	cfg := f.Tunables.ToConfig()
	if cfg.JudderWindow != 8 || cfg.LockDuration != 1.0 {
		t.Fatalf("tunables conversion corrupted: %+v", cfg)
	}
}

func TestRunFixture(t *testing.T) {
	f, err := LoadFixture(writeFixture(t, fixtureJSON))
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}

	results, summary := RunFixture(f)
	if summary.Frames != 3 {
		t.Fatalf("frames = %d, want 3", summary.Frames)
	}
	if summary.ExpectationFails != 0 {
		for _, r := range results {
			if r.ExpectationErr != "" {
				t.Fatalf("expectation failed: %s", r.ExpectationErr)
			}
		}
	}
	if summary.EvalFailures != 0 {
		t.Fatalf("eval failures = %d, want 0", summary.EvalFailures)
	}
}

func TestLoadFixtureMissingFile(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestLoadFixtureMalformed(t *testing.T) {
	if _, err := LoadFixture(writeFixture(t, "{not json")); err == nil {
		t.Fatal("expected error for malformed fixture")
	}
}

func TestTunablesRoundTrip(t *testing.T) {
	cfg := convergence.DefaultConfig()
	if got := TunablesFromConfig(cfg).ToConfig(); got != cfg {
		t.Fatalf("tunables round-trip mismatch: %+v vs %+v", got, cfg)
	}
}
