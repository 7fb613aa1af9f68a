package ripple

// Effect is a terminal reactive consumer: a side-effecting body with no
// cached value. The body runs once, synchronously, at creation to establish
// its dependencies, and again after any flush in which one of them settled
// to a new value.
type Effect struct {
	n    *node
	body func() error
}

// NewEffect creates the effect and runs its body immediately. Body errors,
// now and on every re-run, are reported through the runtime's fault callback
// rather than returned, so a failing effect never blocks the flush that
// triggered it.
func NewEffect(rt *Runtime, body func() error) *Effect {
	e := &Effect{
		n:    rt.newNode(kindEffect),
		body: body,
	}
	e.n.runBody = e.run
	if scope := rt.currentScope(); scope != nil {
		scope.own(e)
	}

	e.run()
	return e
}

// Dispose deactivates the effect and severs every edge it holds. Safe to
// call from inside the effect's own body: the in-progress run finishes, but
// no re-subscription happens and the effect never runs again, even if it is
// already sitting in the pending queue.
func (e *Effect) Dispose() {
	e.dispose()
}

func (e *Effect) dispose() {
	if e.n.disposed {
		return
	}
	e.n.disposed = true
	e.n.unlink()
}

func (e *Effect) run() {
	n := e.n
	var err error
	read := n.rt.capture(n, func() {
		err = e.body()
	})

	if n.disposed {
		// Disposed mid-run; drop what was read instead of resubscribing.
		return
	}
	n.rewire(read)

	if err != nil {
		n.rt.fault(&FaultError{EffectID: n.id, Err: err})
	}
}

func (rt *Runtime) runEffectNode(n *node) {
	if n.runBody != nil {
		n.runBody()
	}
}
