package ripple

import (
	mapset "github.com/deckarep/golang-set/v2"
)

type cellState uint8

const (
	stateClean cellState = iota // cached value is valid, no need to recompute
	stateCheck                  // value might be stale, poll sources to decide whether to recompute
	stateDirty                  // a directly watched value changed, must recompute
)

type nodeKind uint8

const (
	kindSignal nodeKind = iota
	kindComputed
	kindEffect
)

// node is the type-erased vertex shared by Signal, Computed and Effect.
// The generic wrappers own the values; the node owns the graph: both
// directions of every subscription edge, the tri-state staleness flag and
// the version stamp the staleness resolution compares against.
type node struct {
	rt   *Runtime
	id   uint64
	kind nodeKind

	state   cellState
	version uint64

	// sources are the nodes read during the most recent run, in first-read
	// order. sourceVers[i] is sources[i].version as observed at the end of
	// that run.
	sources    []*node
	sourceVers []uint64

	// observers are the nodes subscribed to this one, in subscription order.
	observers []*node

	// recompute re-runs a computed's getter and reports whether the cached
	// value changed. nil for signals and effects.
	recompute func() bool

	// runBody executes an effect's body under tracking. nil for signals and
	// computeds.
	runBody func()

	disposed bool
	queued   bool
	updating bool
}

func (rt *Runtime) newNode(kind nodeKind) *node {
	rt.lastID++
	return &node{
		rt:   rt,
		id:   rt.lastID,
		kind: kind,
	}
}

// markStale propagates a write through the subscriber graph. Direct
// dependents of the changed value arrive with stateDirty, transitive ones
// with stateCheck. Observers are only walked on the first transition away
// from clean, so a wide graph is marked once per pass, not once per path.
func (n *node) markStale(level cellState) {
	if n.disposed || n.state >= level {
		return
	}

	wasClean := n.state == stateClean
	n.state = level

	if n.kind == kindEffect {
		n.rt.enqueueEffect(n)
	}

	if wasClean {
		for _, o := range n.observers {
			o.markStale(stateCheck)
		}
	}
}

// refresh brings the node up to date before its value is read. A stateCheck
// node polls its sources first: each source is refreshed (untracked) and its
// version compared against the one observed last run. If nothing moved the
// node demotes itself to clean without recomputing, which is what keeps a
// diamond's shared tip from running twice.
func (n *node) refresh() {
	if n.disposed {
		return
	}
	if n.updating {
		// A getter reading its own output. Returning the stale cached value
		// bounds the recursion instead of spinning.
		return
	}

	if n.state == stateCheck {
		n.state = stateClean
		for i, src := range n.sources {
			src.refresh()
			if src.version != n.sourceVers[i] {
				n.state = stateDirty
				break
			}
		}
	}

	if n.state == stateDirty && n.recompute != nil {
		n.updating = true
		defer func() {
			n.updating = false
		}()
		n.recompute()
		n.state = stateClean
	}
}

// rewire replaces the node's source edges with the set collected during the
// run that just finished. Sources no longer read are unsubscribed, newly
// read ones subscribed; unchanged edges are left alone.
func (n *node) rewire(read []*node) {
	prev := mapset.NewThreadUnsafeSet(n.sources...)
	next := mapset.NewThreadUnsafeSet(read...)

	for dropped := range prev.Difference(next).Iter() {
		dropped.removeObserver(n)
	}
	for added := range next.Difference(prev).Iter() {
		added.observers = append(added.observers, n)
	}

	n.sources = read
	if cap(n.sourceVers) < len(read) {
		n.sourceVers = make([]uint64, len(read))
	} else {
		n.sourceVers = n.sourceVers[:len(read)]
	}
	for i, src := range read {
		n.sourceVers[i] = src.version
	}
}

// unlink severs every source edge. Called on disposal; downstream observers
// keep their edge to this node and simply read its frozen value from then on.
func (n *node) unlink() {
	for _, src := range n.sources {
		src.removeObserver(n)
	}
	n.sources = nil
	n.sourceVers = nil
}

func (n *node) removeObserver(o *node) {
	for i, existing := range n.observers {
		if existing == o {
			n.observers = append(n.observers[:i], n.observers[i+1:]...)
			return
		}
	}
}
