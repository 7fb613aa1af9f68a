package ripple

type disposable interface {
	dispose()
}

// Scope is a hierarchical ownership container. Every computed and effect
// created while a scope is running belongs to it and is torn down with it.
// Scopes nest: a Scope created inside another scope's Run becomes its child
// and is disposed along with the parent.
//
// Ownership is distinct from subscription: disposal walks only ownership
// edges, then severs each owned node's subscription edges as cleanup. A
// computed that outside code still subscribes to is never disposed just
// because a foreign scope that happened to read it went away.
type Scope struct {
	rt     *Runtime
	parent *Scope

	children []*Scope
	owned    []disposable
	cleanups []func()

	// values holds provided injection values, keyed by Key id.
	values map[int64]any

	// slots lists the signals created under this scope while it was the
	// outermost running scope, in creation order. SnapshotState reads them.
	slots []stateCell

	disposed bool
}

// NewScope creates a scope. If another scope is currently running the new
// one becomes its child; otherwise it is a root and the caller is the only
// thing that will ever dispose it.
func (rt *Runtime) NewScope() *Scope {
	s := &Scope{
		rt:     rt,
		parent: rt.currentScope(),
	}
	if s.parent != nil {
		s.parent.children = append(s.parent.children, s)
	}
	return s
}

// Run executes fn with this scope installed as the ambient owner. Nested Run
// calls stack; construction of computeds and effects inside fn registers
// them here. When this is the outermost running scope, the run is an
// evaluation pass: the creation-order slot list restarts and an armed state
// snapshot, if any, reseeds the signals fn creates.
func (s *Scope) Run(fn func() error) error {
	if s.disposed {
		return ErrScopeDisposed
	}

	rt := s.rt
	outermost := len(rt.scopes) == 0
	if outermost {
		s.slots = s.slots[:0]
		if rt.reseed != nil {
			rt.reseed.active = true
		}
	}

	rt.scopes = append(rt.scopes, s)
	defer func() {
		rt.scopes = rt.scopes[:len(rt.scopes)-1]
		if outermost {
			rt.reseed = nil
		}
	}()

	return fn()
}

// OnCleanup registers fn to run when this scope is disposed. Cleanups run
// after every owned node has been disposed, in reverse registration order.
func (s *Scope) OnCleanup(fn func()) error {
	if s.disposed {
		return ErrScopeDisposed
	}
	s.cleanups = append(s.cleanups, fn)
	return nil
}

// Dispose tears the scope down: child scopes first, then owned computeds and
// effects, then cleanups, each in reverse creation order. Disposing an
// already-disposed scope is a no-op, as is disposing one from inside an
// effect it owns; the in-progress run completes and nothing re-arms.
func (s *Scope) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true

	if s.parent != nil {
		s.parent.removeChild(s)
		s.parent = nil
	}

	children := s.children
	s.children = nil
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	owned := s.owned
	s.owned = nil
	for i := len(owned) - 1; i >= 0; i-- {
		owned[i].dispose()
	}

	cleanups := s.cleanups
	s.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	s.values = nil
	s.slots = nil
}

// IsDisposed reports whether Dispose has run.
func (s *Scope) IsDisposed() bool {
	return s.disposed
}

func (s *Scope) own(d disposable) {
	s.owned = append(s.owned, d)
}

func (s *Scope) removeChild(child *Scope) {
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// RunInScope creates a scope under the current one, runs fn inside it and
// returns the scope so the caller can dispose it.
func RunInScope(rt *Runtime, fn func() error) (*Scope, error) {
	s := rt.NewScope()
	err := s.Run(fn)
	return s, err
}
