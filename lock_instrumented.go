package cds

import (
	"time"

	"github.com/rcrowley/go-metrics"
)

// instrumentedStrategy decorates another strategy with go-metrics timers
// for how long callers wait for a guard and how long exclusive guards are
// held.
type instrumentedStrategy struct {
	inner         LockStrategy
	exclusiveWait metrics.Timer
	sharedWait    metrics.Timer
	exclusiveHold metrics.Timer
}

type timedGuard struct {
	inner Guard
	hold  metrics.Timer
	since time.Time
}

func (g *timedGuard) Release() {
	g.inner.Release()
	g.hold.UpdateSince(g.since)
}

// NewInstrumentedStrategy wraps inner and registers three timers in r:
// <name>.exclusive.wait, <name>.shared.wait and <name>.exclusive.hold.
// Strategies created with the same registry and name share their timers,
// so one name can aggregate every container of a kind. A nil registry
// means metrics.DefaultRegistry.
func NewInstrumentedStrategy(inner LockStrategy, r metrics.Registry, name string) LockStrategy {
	if r == nil {
		r = metrics.DefaultRegistry
	}
	return &instrumentedStrategy{
		inner:         inner,
		exclusiveWait: metrics.GetOrRegisterTimer(name+".exclusive.wait", r),
		sharedWait:    metrics.GetOrRegisterTimer(name+".shared.wait", r),
		exclusiveHold: metrics.GetOrRegisterTimer(name+".exclusive.hold", r),
	}
}

func (s *instrumentedStrategy) AcquireExclusive() Guard {
	start := time.Now()
	g := s.inner.AcquireExclusive()
	acquired := time.Now()
	s.exclusiveWait.Update(acquired.Sub(start))
	return &timedGuard{inner: g, hold: s.exclusiveHold, since: acquired}
}

func (s *instrumentedStrategy) AcquireShared() Guard {
	start := time.Now()
	g := s.inner.AcquireShared()
	s.sharedWait.UpdateSince(start)
	return g
}
