package ripple

// State migration ("hot state preservation"): when a host rebuilds a scope
// from scratch, say a dev-server reload or a component re-mounted with new
// code, the raw values of the previous pass's signals can be carried over
// into the fresh instances. The mapping is purely positional: signal i of
// the new pass is seeded from signal i of the snapshotted pass. That only
// holds up when both passes create the same signals in the same order; a
// conditional branch that changes the creation count shifts every later
// slot. The adapter does not try to detect or repair that. An out-of-range
// or type-mismatched slot simply falls back to the caller-supplied default.

// stateCell is the slice of a signal the adapter needs: its raw value,
// untracked.
type stateCell interface {
	rawValue() any
}

// StateSnapshot is an ordered capture of raw signal values from one
// evaluation pass.
type StateSnapshot struct {
	values []any

	pos    int
	active bool
}

// Len returns the number of captured slots.
func (snap *StateSnapshot) Len() int {
	return len(snap.values)
}

// At returns the raw value captured at position i.
func (snap *StateSnapshot) At(i int) any {
	return snap.values[i]
}

func (snap *StateSnapshot) next() (any, bool) {
	if snap.pos >= len(snap.values) {
		return nil, false
	}
	v := snap.values[snap.pos]
	snap.pos++
	return v, true
}

// SnapshotState captures the current raw values of every signal created
// under this scope during its most recent outermost run, in creation order.
// Typically called just before disposing the scope.
func (s *Scope) SnapshotState() *StateSnapshot {
	snap := &StateSnapshot{
		values: make([]any, len(s.slots)),
	}
	for i, cell := range s.slots {
		snap.values[i] = cell.rawValue()
	}
	return snap
}

// RestoreState arms snap for the next outermost scope run. Signals created
// during that run take their initial value from the snapshot, by position,
// instead of from the caller. The snapshot is consumed whether or not every
// slot was used; a later pass starts clean.
func (rt *Runtime) RestoreState(snap *StateSnapshot) {
	if snap != nil {
		snap.pos = 0
		snap.active = false
	}
	rt.reseed = snap
}

// recordStateCell appends a freshly created signal to the slot list of the
// outermost running scope, if any. Signals created outside every scope are
// not part of an evaluation pass and are not migrated.
func (rt *Runtime) recordStateCell(cell stateCell) {
	if len(rt.scopes) == 0 {
		return
	}
	pass := rt.scopes[0]
	pass.slots = append(pass.slots, cell)
}

// reseedValue resolves the initial value for a signal under construction:
// the armed snapshot's next slot when one is active and assignable to T,
// otherwise the fallback the caller passed.
func reseedValue[T any](rt *Runtime, fallback T) T {
	snap := rt.reseed
	if snap == nil || !snap.active {
		return fallback
	}
	raw, ok := snap.next()
	if !ok {
		return fallback
	}
	if v, ok := raw.(T); ok {
		return v
	}
	return fallback
}
