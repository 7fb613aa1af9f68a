package ripple

// Signal is a mutable reactive cell. Reading one inside a computed getter or
// an effect body subscribes that consumer; writing an unequal value bumps the
// signal's version and propagates through the graph.
//
// The zero value is not usable; construct with NewSignal or NewSignalFunc.
type Signal[T any] struct {
	n     *node
	value T
	eq    func(a, b T) bool
}

// NewSignal creates a signal holding initial. Writes are gated on ==.
func NewSignal[T comparable](rt *Runtime, initial T) *Signal[T] {
	return NewSignalFunc(rt, initial, func(a, b T) bool { return a == b })
}

// NewSignalFunc creates a signal for a type that is not comparable, or one
// that needs looser change detection. eq decides whether a write is a no-op.
func NewSignalFunc[T any](rt *Runtime, initial T, eq func(a, b T) bool) *Signal[T] {
	s := &Signal[T]{
		n:     rt.newNode(kindSignal),
		value: reseedValue(rt, initial),
		eq:    eq,
	}
	s.n.version = 1
	rt.recordStateCell(s)
	return s
}

// Read returns the current value and subscribes the active consumer, if any.
func (s *Signal[T]) Read() T {
	s.n.rt.touch(s.n)
	return s.value
}

// Peek returns the current value without establishing a dependency edge.
func (s *Signal[T]) Peek() T {
	return s.value
}

// Write replaces the value. Equal writes are dropped before any propagation
// happens, so they cannot wake subscribers. Unequal writes mark direct
// dependents dirty, transitive ones check, and flush unless a batch or an
// in-progress flush defers the drain.
func (s *Signal[T]) Write(v T) {
	if s.eq(s.value, v) {
		return
	}

	s.value = v
	s.n.version++

	for _, o := range s.n.observers {
		o.markStale(stateDirty)
	}
	s.n.rt.afterWrite()
}

// Update applies fn to the current value and writes the result back.
func (s *Signal[T]) Update(fn func(T) T) {
	s.Write(fn(s.value))
}

// Version returns the signal's write stamp. It moves only on committed,
// unequal writes.
func (s *Signal[T]) Version() uint64 {
	return s.n.version
}

// rawValue implements stateCell for the state-migration adapter.
func (s *Signal[T]) rawValue() any {
	return s.value
}
