package stress

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pavanmanishd/cds"
)

// Lock strategy names accepted by Config.Lock.
const (
	LockRWMutex      = "rwmutex"
	LockReaderBiased = "reader-biased"
	LockSharded      = "sharded"
)

// Allocator names accepted by Config.Allocator.
const (
	AllocHeap  = "heap"
	AllocArena = "arena"
)

// Config holds the parameters of one stress run.
type Config struct {
	Scenarios  []string      `json:"scenarios" yaml:"scenarios"`
	Workers    int           `json:"workers" yaml:"workers"`
	Iterations int           `json:"iterations" yaml:"iterations"`
	Elements   int           `json:"elements" yaml:"elements"`
	FailRate   float64       `json:"fail_rate" yaml:"fail_rate"`
	Seed       uint64        `json:"seed" yaml:"seed"`
	Lock       string        `json:"lock" yaml:"lock"`
	Shards     int           `json:"shards" yaml:"shards"`
	Allocator  string        `json:"allocator" yaml:"allocator"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Scenarios:  Names(),
		Workers:    8,
		Iterations: 1000,
		Elements:   30,
		FailRate:   0.5,
		Seed:       1,
		Lock:       LockRWMutex,
		Allocator:  AllocHeap,
		Timeout:    time.Minute,
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if len(c.Scenarios) == 0 {
		errs = append(errs, errors.New("no scenarios selected"))
	}
	for _, name := range c.Scenarios {
		if _, ok := Lookup(name); !ok {
			errs = append(errs, fmt.Errorf("unknown scenario %q (expected one of %v)", name, Names()))
		}
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Iterations < 1 {
		errs = append(errs, fmt.Errorf("iterations must be at least 1, got %d", c.Iterations))
	}
	if c.Elements < 1 {
		errs = append(errs, fmt.Errorf("elements must be at least 1, got %d", c.Elements))
	}
	if c.FailRate < 0 || c.FailRate > 1 {
		errs = append(errs, fmt.Errorf("fail rate must be within [0,1], got %g", c.FailRate))
	}
	if !slices.Contains([]string{LockRWMutex, LockReaderBiased, LockSharded}, c.Lock) {
		errs = append(errs, fmt.Errorf("invalid lock %q (expected rwmutex, reader-biased or sharded)", c.Lock))
	}
	if c.Allocator != AllocHeap && c.Allocator != AllocArena {
		errs = append(errs, fmt.Errorf("invalid allocator %q (expected heap or arena)", c.Allocator))
	}
	return errors.Join(errs...)
}

// lockFactory returns the strategy constructor named by c.Lock.
func (c Config) lockFactory() func() cds.LockStrategy {
	switch c.Lock {
	case LockReaderBiased:
		return cds.NewReaderBiasedStrategy
	case LockSharded:
		return func() cds.LockStrategy { return cds.NewShardedStrategy(c.Shards) }
	default:
		return cds.NewRWMutexStrategy
	}
}
