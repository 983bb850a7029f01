package stress

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"

	"github.com/pavanmanishd/cds"
	"github.com/pavanmanishd/cds/arena"
)

// Env is shared by the scenarios of one run.
type Env struct {
	Config Config
	Logger *slog.Logger

	// Counters receives the allocator counters of every scenario.
	Counters *metrics.Set
	// Locks receives the lock wait and hold timers of every scenario.
	Locks gometrics.Registry

	mu     sync.Mutex
	arenas []*arena.SafeArena
}

// NewEnv returns an environment for cfg. A nil logger discards output.
func NewEnv(cfg Config, logger *slog.Logger) *Env {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Env{
		Config:   cfg,
		Logger:   logger,
		Counters: metrics.NewSet(),
		Locks:    gometrics.NewRegistry(),
	}
}

// Close releases every arena handed out during the run.
func (e *Env) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range e.arenas {
		a.Release()
	}
	e.arenas = nil
}

// options returns the container options for scenario: the configured lock
// strategy wrapped in timers named cds.<scenario>, and the run logger.
func (e *Env) options(scenario string) []cds.Option {
	inner := e.Config.lockFactory()
	return []cds.Option{
		cds.WithLockStrategy(func() cds.LockStrategy {
			return cds.NewInstrumentedStrategy(inner(), e.Locks, "cds."+scenario)
		}),
		cds.WithLogger(e.Logger.With("scenario", scenario)),
	}
}

func (e *Env) newArena() *arena.SafeArena {
	a := arena.NewSafeArena(0)
	e.mu.Lock()
	e.arenas = append(e.arenas, a)
	e.mu.Unlock()
	return a
}

// countingAllocator returns a CountingAllocator registered under name.
// With the arena allocator configured and a pointer-free T, each call gets
// its own arena.
func countingAllocator[T any](e *Env, name string) *cds.CountingAllocator[T] {
	var inner cds.Allocator[T]
	if e.Config.Allocator == AllocArena && arena.PointerFree[T]() {
		aa, err := cds.NewArenaAllocator[T](e.newArena())
		if err != nil {
			e.Logger.Warn("falling back to the heap allocator", "allocator", name, "err", err)
		} else {
			inner = aa
		}
	}
	return cds.NewCountingAllocator(inner, e.Counters, name)
}

// Recorder collects the outcome of one scenario. It is safe for
// concurrent use.
type Recorder struct {
	ops      atomic.Int64
	failures atomic.Int64

	mu         sync.Mutex
	violations []string
	count      int
}

// maxViolations bounds the violation messages kept per scenario.
const maxViolations = 10

// Op counts n completed operations.
func (r *Recorder) Op(n int) {
	r.ops.Add(int64(n))
}

// Failure counts an injected failure that was handled correctly.
func (r *Recorder) Failure() {
	r.failures.Add(1)
}

// Violation records a broken property.
func (r *Recorder) Violation(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	if len(r.violations) < maxViolations {
		r.violations = append(r.violations, fmt.Sprintf(format, args...))
	}
}

// Violations returns the number of violations and the first messages.
func (r *Recorder) Violations() (int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count, append([]string(nil), r.violations...)
}
