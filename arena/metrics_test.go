package arena

import (
	"sync"
	"testing"
)

func TestArenaMetrics(t *testing.T) {
	a := NewArena(1024)

	if a.SizeInUse() != 0 {
		t.Errorf("Initial SizeInUse = %d, want 0", a.SizeInUse())
	}
	if a.NumChunks() != 1 {
		t.Errorf("Initial NumChunks = %d, want 1", a.NumChunks())
	}
	if a.Capacity() != 1024 {
		t.Errorf("Initial Capacity = %d, want 1024", a.Capacity())
	}
	if a.ChunkSize() != 1024 {
		t.Errorf("ChunkSize = %d, want 1024", a.ChunkSize())
	}
	if a.Utilization() != 0 {
		t.Errorf("Initial Utilization = %f, want 0", a.Utilization())
	}

	a.AllocBytes(100)
	a.AllocBytes(200)

	// 100 bytes, padding to 104, then 200 bytes
	if a.SizeInUse() != 304 {
		t.Errorf("SizeInUse = %d, want 304", a.SizeInUse())
	}

	utilization := a.Utilization()
	if utilization <= 0 || utilization > 1 {
		t.Errorf("Utilization = %f, want 0 < x <= 1", utilization)
	}

	a.AllocBytes(2000)
	if a.NumChunks() != 2 {
		t.Errorf("NumChunks after growth = %d, want 2", a.NumChunks())
	}
	if a.Capacity() <= 1024+2000 {
		t.Errorf("Capacity after growth = %d, want > %d", a.Capacity(), 1024+2000)
	}

	a.Reset()
	metrics := a.Metrics()
	if metrics.SizeInUse != 0 {
		t.Errorf("Metrics.SizeInUse = %d, want 0", metrics.SizeInUse)
	}
	if metrics.Capacity != a.Capacity() {
		t.Errorf("Metrics.Capacity = %d, want %d", metrics.Capacity, a.Capacity())
	}
	if metrics.NumChunks != 2 {
		t.Errorf("Metrics.NumChunks = %d, want 2", metrics.NumChunks)
	}
	if metrics.Resets != 1 {
		t.Errorf("Metrics.Resets = %d, want 1", metrics.Resets)
	}
}

func TestArenaMetricsAfterRelease(t *testing.T) {
	a := NewArena(1024)
	a.AllocBytes(64)
	a.Release()

	m := a.Metrics()
	if m.SizeInUse != 0 || m.Capacity != 0 || m.NumChunks != 0 || m.Utilization != 0 {
		t.Errorf("Metrics after Release() = %+v, want zero usage", m)
	}
}

func TestSafeArenaMetricsConcurrentReaders(t *testing.T) {
	s := NewSafeArena(4096)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			SafeAllocSlice[int64](s, 4)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			m := s.Metrics()
			if m.SizeInUse > m.Capacity {
				t.Errorf("SizeInUse %d exceeds Capacity %d", m.SizeInUse, m.Capacity)
				return
			}
		}
	}()
	wg.Wait()

	if got := s.SizeInUse(); got != 200*32 {
		t.Errorf("SizeInUse = %d, want %d", got, 200*32)
	}
}
