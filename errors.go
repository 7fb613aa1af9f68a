package ripple

import (
	"errors"
	"fmt"
)

// ErrNoScope is returned when an operation that needs an ambient scope,
// such as Provide or OnCleanup, is invoked outside every Scope.Run.
var ErrNoScope = errors.New("ripple: no scope is running")

// ErrScopeDisposed is returned when a disposed scope is asked to run code or
// register cleanups.
var ErrScopeDisposed = errors.New("ripple: scope already disposed")

// ErrPropagationOverflow is reported through the fault callback when effect
// bodies keep writing signals pass after pass and a single flush exceeds its
// pass ceiling. The remaining queue is dropped instead of hanging.
var ErrPropagationOverflow = errors.New("ripple: flush pass ceiling exceeded, effects are ping-ponging writes")

// FaultError carries an effect body error to the fault callback without
// hiding the original.
type FaultError struct {
	EffectID uint64
	Err      error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("ripple: effect %d failed: %v", e.EffectID, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}
