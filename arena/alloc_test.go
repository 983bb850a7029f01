package arena

import (
	"testing"
	"unsafe"
)

func TestAlloc(t *testing.T) {
	a := NewArena(1024)

	p := Alloc[int](a)
	if p == nil {
		t.Fatal("Alloc[int] returned nil")
	}
	if *p != 0 {
		t.Errorf("Alloc[int] value = %d, want 0", *p)
	}
	*p = 42

	type point struct{ X, Y float64 }
	pt := Alloc[point](a)
	if pt.X != 0 || pt.Y != 0 {
		t.Errorf("Alloc[point] = %+v, want zero", *pt)
	}

	// Zero sized types fall back to the heap
	if e := Alloc[struct{}](a); e == nil {
		t.Error("Alloc[struct{}] returned nil")
	}
}

func TestAllocSlice(t *testing.T) {
	a := NewArena(1024)

	s := AllocSlice[int64](a, 5)
	if len(s) != 5 || cap(s) != 5 {
		t.Fatalf("AllocSlice length/capacity = %d/%d, want 5/5", len(s), cap(s))
	}
	for i, v := range s {
		if v != 0 {
			t.Errorf("s[%d] = %d, want 0", i, v)
		}
	}

	if AllocSlice[int](a, 0) != nil {
		t.Error("AllocSlice(0) should return nil")
	}
	if AllocSlice[int](a, -3) != nil {
		t.Error("AllocSlice(-3) should return nil")
	}
	if AllocSlice[struct{}](a, 3) != nil {
		t.Error("AllocSlice of zero sized type should return nil")
	}
}

func TestAllocSliceZeroedAfterReset(t *testing.T) {
	a := NewArena(1024)

	s := AllocSlice[int32](a, 16)
	for i := range s {
		s[i] = int32(i + 1)
	}

	a.Reset()
	again := AllocSlice[int32](a, 16)
	if &again[0] != &s[0] {
		t.Fatal("Expected AllocSlice after Reset() to reuse memory")
	}
	for i, v := range again {
		if v != 0 {
			t.Errorf("again[%d] = %d, want 0", i, v)
		}
	}
}

func TestAllocSliceAlignment(t *testing.T) {
	a := NewArena(1024)
	a.AllocAligned(1, 1)

	s64 := AllocSlice[int64](a, 2)
	if addr := uintptr(unsafe.Pointer(&s64[0])); addr%unsafe.Alignof(int64(0)) != 0 {
		t.Errorf("int64 slice address %#x misaligned", addr)
	}

	a.AllocAligned(1, 1)
	s16 := AllocSlice[int16](a, 2)
	if addr := uintptr(unsafe.Pointer(&s16[0])); addr%unsafe.Alignof(int16(0)) != 0 {
		t.Errorf("int16 slice address %#x misaligned", addr)
	}
}

func TestPointerFree(t *testing.T) {
	type flat struct {
		A int
		B [4]float64
		C bool
	}
	type nested struct {
		F flat
		P *int
	}

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"int", PointerFree[int](), true},
		{"float64", PointerFree[float64](), true},
		{"flat struct", PointerFree[flat](), true},
		{"array of int", PointerFree[[8]int](), true},
		{"empty array of pointers", PointerFree[[0]*int](), true},
		{"pointer", PointerFree[*int](), false},
		{"string", PointerFree[string](), false},
		{"slice", PointerFree[[]int](), false},
		{"map", PointerFree[map[int]int](), false},
		{"nested pointer", PointerFree[nested](), false},
		{"uintptr", PointerFree[uintptr](), false},
		{"interface", PointerFree[any](), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("PointerFree = %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func BenchmarkAllocSlice(b *testing.B) {
	a := NewArena(1024 * 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		AllocSlice[int64](a, 32)
		if i%1000 == 999 {
			a.Reset()
		}
	}
}
