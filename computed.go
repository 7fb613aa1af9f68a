package ripple

// Computed is a cached derived value. The getter runs lazily: creation and
// upstream writes only mark the node stale, the actual recomputation happens
// on the next Read (or Peek). A recomputation whose result is equal to the
// previous cache leaves the version stamp alone, which stops propagation at
// this node.
type Computed[T any] struct {
	n      *node
	getter func() T
	value  T
	eq     func(a, b T) bool
}

// NewComputed creates a computed whose change detection is ==.
// The getter does not run until the first Read.
func NewComputed[T comparable](rt *Runtime, getter func() T) *Computed[T] {
	return NewComputedFunc(rt, getter, func(a, b T) bool { return a == b })
}

// NewComputedFunc creates a computed for a non-comparable result type.
func NewComputedFunc[T any](rt *Runtime, getter func() T, eq func(a, b T) bool) *Computed[T] {
	c := &Computed[T]{
		n:      rt.newNode(kindComputed),
		getter: getter,
		eq:     eq,
	}
	c.n.state = stateDirty
	c.n.recompute = c.recompute
	if scope := rt.currentScope(); scope != nil {
		scope.own(c)
	}
	return c
}

// Read brings the cached value up to date and returns it, subscribing the
// active consumer. A getter panic propagates to this caller; the cache,
// version and edges are left exactly as they were before the attempt.
//
// After the owning scope disposes the node, Read keeps returning the last
// cached value and never recomputes again.
func (c *Computed[T]) Read() T {
	c.n.rt.touch(c.n)
	if !c.n.disposed {
		c.n.refresh()
	}
	return c.value
}

// Peek returns the up-to-date value without subscribing the active consumer.
func (c *Computed[T]) Peek() T {
	if !c.n.disposed {
		c.n.refresh()
	}
	return c.value
}

// Version returns the computed's change stamp; it moves only when a
// recomputation produced an unequal value.
func (c *Computed[T]) Version() uint64 {
	return c.n.version
}

// recompute runs the getter under tracking and commits the result. Commit is
// all-or-nothing: a panic inside the getter unwinds before any field here is
// touched.
func (c *Computed[T]) recompute() bool {
	var next T
	read := c.n.rt.capture(c.n, func() {
		next = c.getter()
	})

	c.n.rewire(read)

	changed := c.n.version == 0 || !c.eq(c.value, next)
	c.value = next
	if changed {
		c.n.version++
	}
	return changed
}

func (c *Computed[T]) dispose() {
	if c.n.disposed {
		return
	}
	c.n.disposed = true
	c.n.unlink()
}
