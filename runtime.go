package ripple

// Runtime is the reactive engine. It owns the ambient state the primitives
// share: the consumer currently being tracked, the batch depth, the queue of
// effects waiting for the next flush and the scope stack. Everything created
// against one Runtime forms one dependency graph.
//
// A Runtime is confined to a single logical thread of evaluation. It takes
// no locks of its own; callers that share one across goroutines must
// serialize every read, write and flush externally.
type Runtime struct {
	lastID uint64

	// active is the consumer whose run is currently being tracked, nil when
	// no tracked evaluation is underway. gets collects the nodes it read.
	active *node
	gets   []*node

	// pauseStack holds consumers displaced by PauseTracking.
	pauseStack []*node

	batchDepth int
	flushing   bool
	pending    []*node

	scopes []*Scope

	reseed *StateSnapshot

	maxPasses int
	onFault   func(error)
	onFlush   func()
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithOnFault installs the callback that receives effect body errors and
// engine faults such as ErrPropagationOverflow. Faults are reported, never
// panicked, so one failing effect cannot take down a flush.
func WithOnFault(fn func(error)) Option {
	return func(rt *Runtime) {
		rt.onFault = fn
	}
}

// WithOnFlush installs the host invalidation hook. It runs once at the end
// of every flush in which at least one effect fired, which is the signal a
// host uses to schedule its own re-render.
func WithOnFlush(fn func()) Option {
	return func(rt *Runtime) {
		rt.onFlush = fn
	}
}

// WithMaxFlushPasses bounds how many drain passes a single flush may take
// before the runtime gives up and reports ErrPropagationOverflow. Each pass
// exists only because an effect body wrote a signal during the previous one.
func WithMaxFlushPasses(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.maxPasses = n
		}
	}
}

const defaultMaxFlushPasses = 64

func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		maxPasses: defaultMaxFlushPasses,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// touch records that the active consumer read dep. Repeat reads of the same
// source within one run collapse to a single edge.
func (rt *Runtime) touch(dep *node) {
	sub := rt.active
	if sub == nil || sub == dep {
		return
	}
	if k := len(rt.gets); k > 0 && rt.gets[k-1] == dep {
		return
	}
	for _, g := range rt.gets {
		if g == dep {
			return
		}
	}
	rt.gets = append(rt.gets, dep)
}

// capture runs body with n installed as the active consumer and returns the
// sources it read. The previous consumer and its partial read list are
// restored even if body panics; in that case nothing was collected and the
// caller must not rewire.
func (rt *Runtime) capture(n *node, body func()) (read []*node) {
	prevActive, prevGets := rt.active, rt.gets
	rt.active, rt.gets = n, nil
	defer func() {
		rt.active, rt.gets = prevActive, prevGets
	}()

	body()
	read = rt.gets
	return read
}

// PauseTracking clears the active consumer so reads establish no edges.
// Calls nest; each pause must be paired with a ResumeTracking.
func (rt *Runtime) PauseTracking() {
	rt.pauseStack = append(rt.pauseStack, rt.active)
	rt.active = nil
}

// ResumeTracking restores the consumer displaced by the matching
// PauseTracking.
func (rt *Runtime) ResumeTracking() {
	last := len(rt.pauseStack) - 1
	rt.active = rt.pauseStack[last]
	rt.pauseStack = rt.pauseStack[:last]
}

// Untrack runs fn with dependency tracking suspended and returns its result.
// Reads inside fn see current values but subscribe nothing.
func Untrack[T any](rt *Runtime, fn func() T) T {
	rt.PauseTracking()
	defer rt.ResumeTracking()
	return fn()
}

// Batch coalesces every signal write inside fn into a single flush. Batches
// nest; the drain happens when the outermost batch ends. Each pending effect
// runs at most once and observes only the batch's final values.
func Batch(rt *Runtime, fn func()) {
	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		if rt.batchDepth == 0 {
			rt.flush()
		}
	}()
	fn()
}

func (rt *Runtime) enqueueEffect(n *node) {
	if n.queued || n.disposed {
		return
	}
	n.queued = true
	rt.pending = append(rt.pending, n)
}

// afterWrite is the propagation entry point a signal write finishes with.
// Inside a batch or a running flush the pending queue just accumulates.
func (rt *Runtime) afterWrite() {
	if rt.batchDepth == 0 && !rt.flushing {
		rt.flush()
	}
}

// Flush drains the pending effect queue immediately. Hosts that batch their
// own work can call this at a tick boundary; writes outside a batch flush
// on their own and make this a no-op.
func (rt *Runtime) Flush() {
	if rt.batchDepth == 0 {
		rt.flush()
	}
}

func (rt *Runtime) flush() {
	if rt.flushing {
		return
	}
	rt.flushing = true
	defer func() {
		rt.flushing = false
	}()

	ran := false
	for pass := 0; len(rt.pending) > 0; pass++ {
		if pass >= rt.maxPasses {
			for _, n := range rt.pending {
				n.queued = false
			}
			rt.pending = rt.pending[:0]
			rt.fault(ErrPropagationOverflow)
			break
		}
		if rt.flushPass() {
			ran = true
		}
	}

	if ran && rt.onFlush != nil {
		rt.onFlush()
	}
}

// flushPass runs every effect pending at the start of the pass, in the order
// they were notified. Effects enqueued by the bodies themselves land in the
// next pass. Reports whether any body actually ran.
func (rt *Runtime) flushPass() bool {
	queue := rt.pending
	rt.pending = nil

	ran := false
	for _, n := range queue {
		n.queued = false
		if n.disposed {
			continue
		}

		runIt := n.state == stateDirty
		if n.state == stateCheck {
			for i, src := range n.sources {
				src.refresh()
				if src.version != n.sourceVers[i] {
					runIt = true
					break
				}
			}
		}
		n.state = stateClean

		if runIt {
			rt.runEffectNode(n)
			ran = true
		}
	}
	return ran
}

func (rt *Runtime) fault(err error) {
	if rt.onFault != nil {
		rt.onFault(err)
	}
}

// currentScope returns the innermost scope being run, or nil.
func (rt *Runtime) currentScope() *Scope {
	if len(rt.scopes) == 0 {
		return nil
	}
	return rt.scopes[len(rt.scopes)-1]
}

// OnCleanup registers fn to run when the current scope is disposed.
// Returns ErrNoScope outside any Scope.Run.
func (rt *Runtime) OnCleanup(fn func()) error {
	scope := rt.currentScope()
	if scope == nil {
		return ErrNoScope
	}
	return scope.OnCleanup(fn)
}
