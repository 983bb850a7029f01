package stress

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Workers = 4
	cfg.Iterations = 50
	cfg.Elements = 8
	cfg.Timeout = 30 * time.Second
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Default", func(*Config) {}, ""},
		{"UnknownScenario", func(c *Config) { c.Scenarios = []string{"nope"} }, `unknown scenario "nope"`},
		{"NoScenarios", func(c *Config) { c.Scenarios = nil }, "no scenarios"},
		{"Workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"Iterations", func(c *Config) { c.Iterations = -1 }, "iterations"},
		{"Elements", func(c *Config) { c.Elements = 0 }, "elements"},
		{"FailRate", func(c *Config) { c.FailRate = 1.5 }, "fail rate"},
		{"Lock", func(c *Config) { c.Lock = "spin" }, "invalid lock"},
		{"Allocator", func(c *Config) { c.Allocator = "pool" }, "invalid allocator"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		s, ok := Lookup(name)
		if !ok || s.Name != name || s.Description == "" {
			t.Errorf("Lookup(%q) = %+v, %v", name, s, ok)
		}
	}
	if _, ok := Lookup("missing"); ok {
		t.Error("Lookup(missing) found a scenario")
	}
	if len(All()) != len(Names()) {
		t.Errorf("All() has %d scenarios, Names() %d", len(All()), len(Names()))
	}
}

func TestRunAllScenarios(t *testing.T) {
	for _, lock := range []string{LockRWMutex, LockReaderBiased, LockSharded} {
		for _, alloc := range []string{AllocHeap, AllocArena} {
			t.Run(lock+"/"+alloc, func(t *testing.T) {
				cfg := smallConfig()
				cfg.Lock = lock
				cfg.Allocator = alloc

				env := NewEnv(cfg, nil)
				defer env.Close()

				report, err := Run(context.Background(), env)
				if err != nil {
					t.Fatalf("Run error = %v", err)
				}
				if len(report.Results) != len(Names()) {
					t.Fatalf("got %d results, want %d", len(report.Results), len(Names()))
				}
				for _, res := range report.Results {
					if !res.Passed() {
						t.Errorf("%s failed: error %q, violations %v", res.Scenario, res.Error, res.Violations)
					}
					if res.Ops == 0 {
						t.Errorf("%s ran no operations", res.Scenario)
					}
				}
				if !report.Passed() {
					t.Error("report not passed")
				}
				if report.RunID == "" {
					t.Error("report has no run id")
				}
				for name, s := range report.Allocators {
					if !s.Balanced() {
						t.Errorf("allocator %s not balanced: %+v", name, s)
					}
				}
			})
		}
	}
}

func TestRunRollbackInjectsFailures(t *testing.T) {
	cfg := smallConfig()
	cfg.Scenarios = []string{"rollback"}
	cfg.Elements = 30
	cfg.FailRate = 0.5

	env := NewEnv(cfg, nil)
	defer env.Close()
	report, err := Run(context.Background(), env)
	if err != nil {
		t.Fatal(err)
	}

	res := report.Results[0]
	if !res.Passed() {
		t.Fatalf("rollback failed: %q %v", res.Error, res.Violations)
	}
	if res.Failures == 0 {
		t.Error("no failure was injected")
	}
	if s, ok := report.Allocators["rollback"]; !ok || s.ConstructFailures == 0 {
		t.Errorf("rollback allocator stats = %+v, %v; want construct failures", s, ok)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Workers = 0
	if _, err := Run(context.Background(), NewEnv(cfg, nil)); err == nil {
		t.Error("Run accepted an invalid configuration")
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := smallConfig()
	cfg.Scenarios = []string{"fill", "swap"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, NewEnv(cfg, nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("got %d results after cancellation, want 1", len(report.Results))
	}
	if report.Results[0].Passed() {
		t.Error("cancelled scenario reported as passed")
	}
}

func TestRecorderKeepsFirstViolations(t *testing.T) {
	var r Recorder
	for i := range maxViolations + 5 {
		r.Violation("v%d", i)
	}
	n, msgs := r.Violations()
	if n != maxViolations+5 {
		t.Errorf("count = %d, want %d", n, maxViolations+5)
	}
	if len(msgs) != maxViolations || msgs[0] != "v0" {
		t.Errorf("messages = %v, want the first %d", msgs, maxViolations)
	}
}

func TestWriteReport(t *testing.T) {
	cfg := smallConfig()
	cfg.Scenarios = []string{"torn"}
	env := NewEnv(cfg, nil)
	defer env.Close()
	report, err := Run(context.Background(), env)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteReport(&buf, report, FormatText); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{"PASS", "torn", "cds.torn.exclusive.wait", "PASSED"} {
			if !strings.Contains(out, want) {
				t.Errorf("text report missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteReport(&buf, report, FormatJSON); err != nil {
			t.Fatal(err)
		}
		var decoded Report
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if decoded.RunID != report.RunID || len(decoded.Results) != 1 {
			t.Errorf("decoded report = %+v", decoded)
		}
	})

	t.Run("YAML", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteReport(&buf, report, FormatYAML); err != nil {
			t.Fatal(err)
		}
		var decoded map[string]any
		if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("report is not valid YAML: %v", err)
		}
		if decoded["run_id"] != report.RunID {
			t.Errorf("run_id = %v, want %s", decoded["run_id"], report.RunID)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		if err := WriteReport(&bytes.Buffer{}, report, "xml"); err == nil {
			t.Error("WriteReport accepted an unknown format")
		}
	})
}
