package cds

// Element types may implement the hooks below to take part in the
// container lifecycle. Types without hooks are constructed as their zero
// value, copied by assignment and destroyed by zeroing. Set and Fill
// assign over live elements and run no hooks.

// Initializer is implemented by *T when default construction can fail.
// Init runs on a zero value before it is stored in the container.
type Initializer interface {
	Init() error
}

// Cloner is implemented by T when copying requires more than assignment
// (deep copies, reference counts) and may fail.
type Cloner[T any] interface {
	Clone() (T, error)
}

// Destroyer is implemented by *T when destroying an element must release
// something. Allocators call it before clearing the slot. Slots whose value
// was moved elsewhere hold the zero value when they are destroyed, so
// Destroy must be a no-op on the zero value.
type Destroyer interface {
	Destroy()
}

// defaultCtor builds a zero T and runs its Initializer, if any.
func defaultCtor[T any]() (T, error) {
	var v T
	if in, ok := any(&v).(Initializer); ok {
		if err := in.Init(); err != nil {
			var zero T
			return zero, err
		}
	}
	return v, nil
}

// copyCtor returns a constructor producing a copy of v.
func copyCtor[T any](v T) func() (T, error) {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone
	}
	return func() (T, error) { return v, nil }
}

// destroyValue runs the Destroyer hook and clears the slot.
func destroyValue[T any](slot *T) {
	if d, ok := any(slot).(Destroyer); ok {
		d.Destroy()
	}
	var zero T
	*slot = zero
}
