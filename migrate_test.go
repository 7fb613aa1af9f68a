package ripple_test

import (
	"testing"

	ripple "github.com/ripplefn/ripple"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshot then reseed reproduces the previous pass's values even though the
// second pass passes different defaults
func TestMigrationRoundTrip(t *testing.T) {
	rt := ripple.NewRuntime()

	build := func(d1, d2, d3 int) (a, b, c *ripple.Signal[int], scope *ripple.Scope) {
		scope, err := ripple.RunInScope(rt, func() error {
			a = ripple.NewSignal(rt, d1)
			b = ripple.NewSignal(rt, d2)
			c = ripple.NewSignal(rt, d3)
			return nil
		})
		require.NoError(t, err)
		return a, b, c, scope
	}

	a, b, c, scope := build(1, 2, 3)
	a.Write(100)
	b.Write(200)
	c.Write(300)

	snap := scope.SnapshotState()
	require.Equal(t, 3, snap.Len())
	scope.Dispose()

	rt.RestoreState(snap)
	a2, b2, c2, _ := build(7, 8, 9) // defaults differ, snapshot wins

	assert.Equal(t, 100, a2.Read())
	assert.Equal(t, 200, b2.Read())
	assert.Equal(t, 300, c2.Read())
}

// the snapshot covers exactly one pass; a later pass gets plain defaults
func TestMigrationSnapshotIsConsumedByOnePass(t *testing.T) {
	rt := ripple.NewRuntime()

	scope, err := ripple.RunInScope(rt, func() error {
		ripple.NewSignal(rt, 11)
		return nil
	})
	require.NoError(t, err)
	snap := scope.SnapshotState()

	rt.RestoreState(snap)
	var first, second *ripple.Signal[int]
	_, err = ripple.RunInScope(rt, func() error {
		first = ripple.NewSignal(rt, 0)
		return nil
	})
	require.NoError(t, err)
	_, err = ripple.RunInScope(rt, func() error {
		second = ripple.NewSignal(rt, 0)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 11, first.Read())
	assert.Equal(t, 0, second.Read())
}

// position mapping is best effort: extra signals past the snapshot fall
// back to their defaults, and a type-mismatched slot is skipped in place
func TestMigrationMismatchFallsBackToDefaults(t *testing.T) {
	rt := ripple.NewRuntime()

	scope, err := ripple.RunInScope(rt, func() error {
		ripple.NewSignal(rt, 1)
		ripple.NewSignal(rt, "two")
		return nil
	})
	require.NoError(t, err)
	snap := scope.SnapshotState()

	rt.RestoreState(snap)
	var a *ripple.Signal[int]
	var b, c *ripple.Signal[string]
	_, err = ripple.RunInScope(rt, func() error {
		a = ripple.NewSignal(rt, 0)        // slot 0: 1
		b = ripple.NewSignal(rt, "other")  // slot 1: "two"
		c = ripple.NewSignal(rt, "extra")  // no slot 2
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, a.Read())
	assert.Equal(t, "two", b.Read())
	assert.Equal(t, "extra", c.Read())

	// shifted types: an int slot cannot seed a string signal
	rt.RestoreState(snap)
	var s *ripple.Signal[string]
	_, err = ripple.RunInScope(rt, func() error {
		s = ripple.NewSignal(rt, "fallback")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fallback", s.Read())
}

// signals created outside any scope are not part of a pass
func TestMigrationIgnoresScopelessSignals(t *testing.T) {
	rt := ripple.NewRuntime()
	ripple.NewSignal(rt, 1)

	scope, err := ripple.RunInScope(rt, func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 0, scope.SnapshotState().Len())
}

// nested scope runs contribute to the outermost pass in creation order
func TestMigrationNestedScopesShareThePass(t *testing.T) {
	rt := ripple.NewRuntime()

	scope, err := ripple.RunInScope(rt, func() error {
		ripple.NewSignal(rt, 1)
		_, err := ripple.RunInScope(rt, func() error {
			ripple.NewSignal(rt, 2)
			return nil
		})
		if err != nil {
			return err
		}
		ripple.NewSignal(rt, 3)
		return nil
	})
	require.NoError(t, err)

	snap := scope.SnapshotState()
	require.Equal(t, 3, snap.Len())
	assert.Equal(t, 1, snap.At(0))
	assert.Equal(t, 2, snap.At(1))
	assert.Equal(t, 3, snap.At(2))
}
