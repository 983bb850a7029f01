package arena

import (
	"reflect"
	"unsafe"
)

// Alloc returns a pointer to a zeroed T stored inside the arena.
// The returned pointer is valid as long as the arena hasn't been reset or released.
func Alloc[T any](a *Arena) *T {
	s := AllocSlice[T](a, 1)
	if s == nil {
		return new(T)
	}
	return &s[0]
}

// AllocSlice allocates a zeroed slice of n elements of type T inside the arena.
// Returns nil if n <= 0 or T has zero size.
//
// The garbage collector does not scan arena memory, so T must be pointer
// free (see PointerFree). Storing pointers in arena slices hides them from
// the collector.
func AllocSlice[T any](a *Arena, n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	if elemSize == 0 {
		return nil
	}
	// AllocBytes aligns for every Go type.
	b := a.AllocBytes(elemSize * n)
	clear(b)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
}

// PointerFree reports whether values of T contain no pointers, which is
// what makes them safe to keep in arena memory.
func PointerFree[T any]() bool {
	return pointerFree(reflect.TypeFor[T]())
}

func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || pointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		// uintptr counts as a pointer here.
		return false
	}
}
