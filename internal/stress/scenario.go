package stress

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/pavanmanishd/cds"
)

// Scenario exercises one property of the containers under concurrency.
type Scenario struct {
	Name        string
	Description string
	run         func(ctx context.Context, e *Env, rec *Recorder) error
}

var scenarios = []Scenario{
	{
		Name:        "fill",
		Description: "Concurrent Array.Fill calls never interleave; scoped readers see uniform contents",
		run:         runFill,
	},
	{
		Name:        "swap",
		Description: "a.Swap(b) racing b.Swap(a) never deadlocks; an even number of swaps restores both arrays",
		run:         runSwap,
	},
	{
		Name:        "torn",
		Description: "Vector element reads never observe a partially written element",
		run:         runTorn,
	},
	{
		Name:        "rollback",
		Description: "Failing element construction and allocation leak neither elements nor storage",
		run:         runRollback,
	},
	{
		Name:        "lifecycle",
		Description: "Clone, Move, Reserve, CopyFrom and Swap keep allocator accounting balanced",
		run:         runLifecycle,
	},
}

// All returns every scenario in execution order.
func All() []Scenario {
	return append([]Scenario(nil), scenarios...)
}

// Names returns the names of every scenario.
func Names() []string {
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	return names
}

// Lookup returns the scenario called name.
func Lookup(name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// --------------------------------------------------------------------------
// fill
// --------------------------------------------------------------------------

func runFill(ctx context.Context, e *Env, rec *Recorder) error {
	a, err := cds.NewArray[int](e.Config.Elements, e.options("fill")...)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for w := range e.Config.Workers {
		g.Go(func() error {
			for i := range e.Config.Iterations {
				if err := ctx.Err(); err != nil {
					return err
				}
				if w%2 == 0 {
					a.Fill(w*e.Config.Iterations + i + 1)
				} else {
					a.Read(func(r *cds.ScopedRead[int]) {
						first, _ := r.Front()
						for j, v := range r.All() {
							if v != first {
								rec.Violation("fill: element %d = %d while element 0 = %d", j, v, first)
								return
							}
						}
					})
				}
				rec.Op(1)
			}
			return nil
		})
	}
	return g.Wait()
}

// --------------------------------------------------------------------------
// swap
// --------------------------------------------------------------------------

func runSwap(ctx context.Context, e *Env, rec *Recorder) error {
	opts := e.options("swap")
	a, err := cds.NewArray[int](e.Config.Elements, opts...)
	if err != nil {
		return err
	}
	b, err := cds.NewArray[int](e.Config.Elements, opts...)
	if err != nil {
		return err
	}
	a.Fill(1)
	b.Fill(2)

	var swaps atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := range e.Config.Workers {
		g.Go(func() error {
			for range e.Config.Iterations {
				if err := ctx.Err(); err != nil {
					return err
				}
				var err error
				if w%2 == 0 {
					err = a.Swap(b)
				} else {
					err = b.Swap(a)
				}
				if err != nil {
					return err
				}
				swaps.Add(1)
				rec.Op(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	wantA, wantB := 1, 2
	if swaps.Load()%2 == 1 {
		wantA, wantB = 2, 1
	}
	for _, c := range []struct {
		name string
		arr  *cds.Array[int]
		want int
	}{{"a", a, wantA}, {"b", b, wantB}} {
		c.arr.Read(func(r *cds.ScopedRead[int]) {
			for i, v := range r.All() {
				if v != c.want {
					rec.Violation("swap: %s[%d] = %d after %d swaps, want %d", c.name, i, v, swaps.Load(), c.want)
					return
				}
			}
		})
	}
	return nil
}

// --------------------------------------------------------------------------
// torn
// --------------------------------------------------------------------------

type pair struct {
	A, B int64
}

func runTorn(ctx context.Context, e *Env, rec *Recorder) error {
	alloc := countingAllocator[pair](e, "torn")
	v, err := cds.NewVectorSize[pair](e.Config.Elements, alloc, e.options("torn")...)
	if err != nil {
		return err
	}

	n := e.Config.Elements
	g, ctx := errgroup.WithContext(ctx)
	for w := range e.Config.Workers {
		g.Go(func() error {
			for i := range e.Config.Iterations {
				if err := ctx.Err(); err != nil {
					return err
				}
				val := int64(w*e.Config.Iterations + i)
				switch {
				case w%2 == 0 && i%8 == 0:
					if err := v.Fill(pair{val, val}); err != nil {
						return err
					}
				case w%2 == 0:
					if err := v.Set(i%n, pair{val, val}); err != nil {
						return err
					}
				default:
					p, err := v.At(i % n)
					if err != nil {
						return err
					}
					if p.A != p.B {
						rec.Violation("torn: element %d read as %+v", i%n, p)
					}
				}
				rec.Op(1)
			}
			return nil
		})
	}
	err = g.Wait()
	v.Destroy()
	if s := alloc.Stats(); !s.Balanced() {
		rec.Violation("torn: allocator not balanced after Destroy: %+v", s)
	}
	return err
}

// --------------------------------------------------------------------------
// rollback
// --------------------------------------------------------------------------

var errInjected = errors.New("injected construction failure")

// flakySource decides which copies fail and counts live elements.
type flakySource struct {
	mu   sync.Mutex
	rng  *rand.Rand
	rate float64

	live atomic.Int64
	ids  atomic.Int64
}

func newFlakySource(seed uint64, rate float64) *flakySource {
	return &flakySource{rng: rand.New(rand.NewPCG(seed, ^seed)), rate: rate}
}

func (s *flakySource) fail() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.rate
}

// flaky is an element whose copies fail at the source's rate.
type flaky struct {
	src *flakySource
	id  int64
}

func (f flaky) Clone() (flaky, error) {
	if f.src.fail() {
		return flaky{}, errInjected
	}
	f.src.live.Add(1)
	return flaky{src: f.src, id: f.src.ids.Add(1)}, nil
}

func (f *flaky) Destroy() {
	if f.id != 0 {
		f.src.live.Add(-1)
	}
}

func runRollback(ctx context.Context, e *Env, rec *Recorder) error {
	src := newFlakySource(e.Config.Seed, e.Config.FailRate)
	proto := flaky{src: src}
	protos := make([]flaky, e.Config.Elements)
	for i := range protos {
		protos[i] = proto
	}

	opts := e.options("rollback")
	alloc := countingAllocator[flaky](e, "rollback")
	limited := cds.NewCountingAllocator[flaky](
		cds.NewLimitedAllocator[flaky](nil, e.Config.Elements-1), e.Counters, "rollback_limited")

	g, ctx := errgroup.WithContext(ctx)
	for w := range e.Config.Workers {
		g.Go(func() error {
			for i := range e.Config.Iterations {
				if err := ctx.Err(); err != nil {
					return err
				}

				var (
					v   *cds.Vector[flaky]
					err error
				)
				switch {
				case i%10 == 9:
					v, err = cds.NewVectorFill(e.Config.Elements, proto, limited, opts...)
					if !errors.Is(err, cds.ErrAllocationFailed) {
						rec.Violation("rollback: over-budget allocation returned %v", err)
					}
				case (w+i)%2 == 0:
					v, err = cds.NewVectorFill(e.Config.Elements, proto, alloc, opts...)
				default:
					v, err = cds.NewVectorFrom(protos, alloc, opts...)
				}

				var ce *cds.ConstructionError
				switch {
				case err == nil && v != nil:
					if v.Len() != e.Config.Elements {
						rec.Violation("rollback: vector has %d elements, want %d", v.Len(), e.Config.Elements)
					}
					v.Destroy()
				case errors.As(err, &ce):
					if !errors.Is(err, errInjected) {
						rec.Violation("rollback: construction error %v does not wrap the element failure", err)
					}
					rec.Failure()
				case errors.Is(err, cds.ErrAllocationFailed):
					rec.Failure()
				default:
					rec.Violation("rollback: unexpected result %v", err)
				}
				rec.Op(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if live := src.live.Load(); live != 0 {
		rec.Violation("rollback: %d elements leaked", live)
	}
	for _, a := range []*cds.CountingAllocator[flaky]{alloc, limited} {
		if s := a.Stats(); !s.Balanced() {
			rec.Violation("rollback: allocator not balanced: %+v", s)
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// lifecycle
// --------------------------------------------------------------------------

func runLifecycle(ctx context.Context, e *Env, rec *Recorder) error {
	opts := e.options("lifecycle")
	n := e.Config.Elements

	g, ctx := errgroup.WithContext(ctx)
	for range e.Config.Workers {
		alloc := countingAllocator[int64](e, "lifecycle")
		other := countingAllocator[int64](e, "lifecycle_alt")
		g.Go(func() error {
			for i := range e.Config.Iterations {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := lifecycleRound(int64(i), n, alloc, other, opts, rec); err != nil {
					return err
				}
				rec.Op(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, name := range []string{"lifecycle", "lifecycle_alt"} {
		if s := cds.NewCountingAllocator[int64](nil, e.Counters, name).Stats(); !s.Balanced() {
			rec.Violation("lifecycle: allocator %s not balanced: %+v", name, s)
		}
	}
	return nil
}

// lifecycleRound walks one vector through every lifecycle transition.
func lifecycleRound(val int64, n int, alloc, other cds.Allocator[int64], opts []cds.Option, rec *Recorder) error {
	v, err := cds.NewVectorFill(n, val, alloc, opts...)
	if err != nil {
		return err
	}
	defer v.Destroy()

	if err := v.Reserve(2 * n); err != nil {
		return err
	}
	c, err := v.Clone()
	if err != nil {
		return err
	}
	defer c.Destroy()
	if c.Cap() != n {
		rec.Violation("lifecycle: clone capacity %d, want %d", c.Cap(), n)
	}

	m, err := c.MoveWithAllocator(other)
	if err != nil {
		return err
	}
	defer m.Destroy()
	m.Read(func(r *cds.ScopedRead[int64]) {
		for i, x := range r.All() {
			if x != val {
				rec.Violation("lifecycle: moved element %d = %d, want %d", i, x, val)
				return
			}
		}
	})

	d := cds.NewVector[int64](alloc, opts...)
	defer d.Destroy()
	if err := d.CopyFrom(m); err != nil {
		return err
	}
	if err := v.Swap(d); err != nil {
		return err
	}
	if v.Len() != n || d.Len() != n || v.Cap() != n || d.Cap() != 2*n {
		rec.Violation("lifecycle: after swap len %d/%d cap %d/%d", v.Len(), d.Len(), v.Cap(), d.Cap())
	}
	return nil
}
