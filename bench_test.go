package cds

import (
	"testing"

	"github.com/pavanmanishd/cds/arena"
)

func BenchmarkArrayAt(b *testing.B) {
	for _, tc := range strategies {
		b.Run(tc.name, func(b *testing.B) {
			a, _ := NewArray[int](1024, WithLockStrategy(tc.newLock))
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					_, _ = a.At(i & 1023)
					i++
				}
			})
		})
	}
}

func BenchmarkArrayMixed(b *testing.B) {
	for _, tc := range strategies {
		b.Run(tc.name, func(b *testing.B) {
			a, _ := NewArray[int](1024, WithLockStrategy(tc.newLock))
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					if i%16 == 0 {
						_ = a.Set(i&1023, i)
					} else {
						_, _ = a.At(i & 1023)
					}
					i++
				}
			})
		})
	}
}

func BenchmarkScopedReadSum(b *testing.B) {
	v, _ := NewVectorFill(1024, 1, nil)
	defer v.Destroy()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.Read(func(r *ScopedRead[int]) {
			sum := 0
			for _, x := range r.All() {
				sum += x
			}
			_ = sum
		})
	}
}

func BenchmarkNewVectorFill(b *testing.B) {
	b.Run("Heap", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			v, _ := NewVectorFill[int64](256, 7, nil)
			v.Destroy()
		}
	})

	b.Run("Arena", func(b *testing.B) {
		s := arena.NewSafeArena(0)
		defer s.Release()
		aa, _ := NewArenaAllocator[int64](s)
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			v, _ := NewVectorFill[int64](256, 7, aa)
			v.Destroy()
		}
	})
}

func BenchmarkVectorReserve(b *testing.B) {
	for i := 0; i < b.N; i++ {
		v := NewVector[int](nil)
		for c := 1; c <= 1024; c *= 2 {
			_ = v.Reserve(c)
		}
		v.Destroy()
	}
}
