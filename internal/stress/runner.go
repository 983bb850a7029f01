package stress

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	gometrics "github.com/rcrowley/go-metrics"

	"github.com/pavanmanishd/cds"
)

// Result is the outcome of one scenario.
type Result struct {
	Scenario       string        `json:"scenario" yaml:"scenario"`
	Ops            int64         `json:"ops" yaml:"ops"`
	Failures       int64         `json:"injected_failures" yaml:"injected_failures"`
	ViolationCount int           `json:"violation_count" yaml:"violation_count"`
	Violations     []string      `json:"violations,omitempty" yaml:"violations,omitempty"`
	Error          string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
}

// Passed reports whether the scenario finished without violations.
func (r Result) Passed() bool {
	return r.ViolationCount == 0 && r.Error == ""
}

// LockTiming summarises one lock timer.
type LockTiming struct {
	Name  string  `json:"name" yaml:"name"`
	Count int64   `json:"count" yaml:"count"`
	Mean  float64 `json:"mean_ns" yaml:"mean_ns"`
	P99   float64 `json:"p99_ns" yaml:"p99_ns"`
	Max   int64   `json:"max_ns" yaml:"max_ns"`
}

// Report is the outcome of a run.
type Report struct {
	RunID      string                        `json:"run_id" yaml:"run_id"`
	Started    time.Time                     `json:"started" yaml:"started"`
	Duration   time.Duration                 `json:"duration" yaml:"duration"`
	Config     Config                        `json:"config" yaml:"config"`
	Results    []Result                      `json:"results" yaml:"results"`
	Locks      []LockTiming                  `json:"locks" yaml:"locks"`
	Allocators map[string]cds.AllocatorStats `json:"allocators" yaml:"allocators"`
}

// Passed reports whether every scenario passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed() {
			return false
		}
	}
	return true
}

// allocatorNames lists the counting allocators registered by scenarios.
var allocatorNames = []string{"torn", "rollback", "rollback_limited", "lifecycle", "lifecycle_alt"}

// Run executes the configured scenarios one after another and reports on
// them. An error is returned only for an invalid configuration; scenario
// failures are part of the report.
func Run(ctx context.Context, e *Env) (*Report, error) {
	if err := e.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	id, err := ulid.New(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return nil, fmt.Errorf("generating run id: %w", err)
	}
	report := &Report{
		RunID:   id.String(),
		Started: time.Now(),
		Config:  e.Config,
	}
	log := e.Logger.With("run", report.RunID)
	log.Info("stress run started",
		"scenarios", e.Config.Scenarios,
		"workers", e.Config.Workers,
		"lock", e.Config.Lock,
		"allocator", e.Config.Allocator)

	for _, name := range e.Config.Scenarios {
		sc, _ := Lookup(name)
		res := runScenario(ctx, e, sc)
		report.Results = append(report.Results, res)

		attrs := []any{"scenario", name, "ops", res.Ops, "duration", res.Duration}
		if res.Passed() {
			log.Info("scenario passed", attrs...)
		} else {
			log.Error("scenario failed", append(attrs, "violations", res.ViolationCount, "err", res.Error)...)
		}
		if ctx.Err() != nil {
			break
		}
	}

	report.Duration = time.Since(report.Started)
	report.Locks = lockTimings(e.Locks)
	report.Allocators = make(map[string]cds.AllocatorStats)
	for _, name := range allocatorNames {
		// Counters are keyed by name only, so any element type reads them.
		if s := cds.NewCountingAllocator[byte](nil, e.Counters, name).Stats(); s.Allocations+s.AllocFailures > 0 {
			report.Allocators[name] = s
		}
	}
	return report, nil
}

// runScenario runs sc under the configured timeout. A scenario that does
// not return in time, for example because of a deadlock, is reported as
// failed and left running.
func runScenario(ctx context.Context, e *Env, sc Scenario) Result {
	if e.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Config.Timeout)
		defer cancel()
	}

	rec := &Recorder{}
	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- sc.run(ctx, e, rec)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("scenario did not finish: %w", ctx.Err())
	}

	res := Result{
		Scenario: sc.Name,
		Ops:      rec.ops.Load(),
		Failures: rec.failures.Load(),
		Duration: time.Since(start),
	}
	res.ViolationCount, res.Violations = rec.Violations()
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func lockTimings(r gometrics.Registry) []LockTiming {
	var out []LockTiming
	r.Each(func(name string, m interface{}) {
		t, ok := m.(gometrics.Timer)
		if !ok {
			return
		}
		s := t.Snapshot()
		out = append(out, LockTiming{
			Name:  name,
			Count: s.Count(),
			Mean:  s.Mean(),
			P99:   s.Percentile(0.99),
			Max:   s.Max(),
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
