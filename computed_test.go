package ripple_test

import (
	"testing"

	ripple "github.com/ripplefn/ripple"
	"github.com/stretchr/testify/assert"
)

func TestComputedCore(t *testing.T) {
	/*
	   a  b
	   | /
	   c
	*/
	t.Run("two signals", func(t *testing.T) {
		rt := ripple.NewRuntime()

		a := ripple.NewSignal(rt, 7)
		b := ripple.NewSignal(rt, 1)
		callCount := 0

		c := ripple.NewComputed(rt, func() int {
			callCount++
			return a.Read() * b.Read()
		})

		assert.Equal(t, 7, c.Read())

		a.Write(2)
		assert.Equal(t, 2, c.Read())

		b.Write(3)
		assert.Equal(t, 6, c.Read())

		assert.Equal(t, 3, callCount)
		c.Read()
		assert.Equal(t, 3, callCount)
	})

	/*
	   a  b
	   | /
	   c
	   |
	   d
	*/
	t.Run("dependent computed", func(t *testing.T) {
		rt := ripple.NewRuntime()
		a := ripple.NewSignal(rt, 7)
		b := ripple.NewSignal(rt, 1)

		callCount1 := 0
		c := ripple.NewComputed(rt, func() int {
			callCount1++
			return a.Read() * b.Read()
		})

		callCount2 := 0
		d := ripple.NewComputed(rt, func() int {
			callCount2++
			return c.Read() + 1
		})

		assert.Equal(t, 8, d.Read())
		assert.Equal(t, 1, callCount1)
		assert.Equal(t, 1, callCount2)
		a.Write(3)
		assert.Equal(t, 4, d.Read())
		assert.Equal(t, 2, callCount1)
		assert.Equal(t, 2, callCount2)
	})

	/*
	   a
	   |
	   c
	*/
	t.Run("equality check", func(t *testing.T) {
		callCount := 0
		rt := ripple.NewRuntime()
		a := ripple.NewSignal(rt, 7)
		c := ripple.NewComputed(rt, func() int {
			callCount++
			return a.Read() + 10
		})

		c.Read()
		c.Read()
		assert.Equal(t, 1, callCount)
		a.Write(7)
		assert.Equal(t, 1, callCount) // unchanged, equality check
	})

	/*
	   a     b
	   |     |
	   cA   cB
	   |   / (dynamically depends on cB)
	   cAB
	*/
	t.Run("dynamic computed", func(t *testing.T) {
		rt := ripple.NewRuntime()
		a := ripple.NewSignal(rt, 1)
		b := ripple.NewSignal(rt, 2)
		var callCountA, callCountB, callCountAB int

		cA := ripple.NewComputed(rt, func() int {
			callCountA++
			return a.Read()
		})

		cB := ripple.NewComputed(rt, func() int {
			callCountB++
			return b.Read()
		})

		cAB := ripple.NewComputed(rt, func() int {
			callCountAB++
			if av := cA.Read(); av != 0 {
				return av
			}
			return cB.Read()
		})

		assert.Equal(t, 1, cAB.Read())
		a.Write(2)
		b.Write(3)
		assert.Equal(t, 2, cAB.Read())

		assert.Equal(t, 2, callCountA)
		assert.Equal(t, 2, callCountAB)
		assert.Equal(t, 0, callCountB)
		a.Write(0)
		assert.Equal(t, 3, cAB.Read())
		assert.Equal(t, 3, callCountA)
		assert.Equal(t, 3, callCountAB)
		assert.Equal(t, 1, callCountB)
		b.Write(4)
		assert.Equal(t, 4, cAB.Read())
		assert.Equal(t, 3, callCountA)
		assert.Equal(t, 4, callCountAB)
		assert.Equal(t, 2, callCountB)
	})

	/*
	   a
	   |
	   b (=)
	   |
	   c
	*/
	t.Run("boolean equality check", func(t *testing.T) {
		rt := ripple.NewRuntime()
		a := ripple.NewSignal(rt, 0)
		b := ripple.NewComputed(rt, func() bool {
			return a.Read() > 0
		})
		callCount := 0

		c := ripple.NewComputed(rt, func() int {
			callCount++
			if b.Read() {
				return 1
			}
			return 0
		})

		assert.Equal(t, 0, c.Read())
		assert.Equal(t, 1, callCount)

		a.Write(1)
		assert.Equal(t, 1, c.Read())
		assert.Equal(t, 2, callCount)

		a.Write(2)
		assert.Equal(t, 1, c.Read())
		assert.Equal(t, 2, callCount) // b still true, c must not rerun
	})

	/*
	   s
	   |
	   a
	   | \
	   b  c
	    \ |
	      d
	*/
	t.Run("diamond computeds", func(t *testing.T) {
		rt := ripple.NewRuntime()
		s := ripple.NewSignal(rt, 1)
		a := ripple.NewComputed(rt, func() int {
			return s.Read()
		})
		b := ripple.NewComputed(rt, func() int {
			return a.Read() * 2
		})
		c := ripple.NewComputed(rt, func() int {
			return a.Read() * 3
		})
		callCount := 0
		d := ripple.NewComputed(rt, func() int {
			callCount++
			return b.Read() + c.Read()
		})

		assert.Equal(t, 5, d.Read())
		assert.Equal(t, 1, callCount)
		s.Write(2)
		assert.Equal(t, 10, d.Read())
		assert.Equal(t, 2, callCount)
		s.Write(3)
		assert.Equal(t, 15, d.Read())
		assert.Equal(t, 3, callCount)
	})

	/*
	   s
	   |
	   c1 - c2 - ... - c100
	*/
	t.Run("deep chain recomputes once per link", func(t *testing.T) {
		rt := ripple.NewRuntime()
		s := ripple.NewSignal(rt, 1)

		prev := ripple.NewComputed(rt, func() int { return s.Read() })
		runs := 0
		for i := 0; i < 99; i++ {
			inner := prev
			prev = ripple.NewComputed(rt, func() int {
				runs++
				return inner.Read() + 1
			})
		}

		assert.Equal(t, 100, prev.Read())
		assert.Equal(t, 99, runs)

		s.Write(2)
		assert.Equal(t, 101, prev.Read())
		assert.Equal(t, 198, runs)
	})

	// a getter writing an unrelated signal mid-run must not corrupt tracking
	t.Run("set inside computed", func(t *testing.T) {
		rt := ripple.NewRuntime()
		s := ripple.NewSignal(rt, 1)
		a := ripple.NewComputed(rt, func() bool {
			s.Write(2)
			return true
		})
		l := ripple.NewComputed(rt, func() int {
			return s.Read() + 100
		})

		a.Read()
		assert.Equal(t, 102, l.Read())
	})
}

// a getter panic must leave the cache, version and edges untouched so the
// node can recover on the next read
func TestComputedGetterPanicLeavesNodeConsistent(t *testing.T) {
	rt := ripple.NewRuntime()
	a := ripple.NewSignal(rt, 1)
	boom := false

	c := ripple.NewComputed(rt, func() int {
		v := a.Read()
		if boom {
			panic("getter exploded")
		}
		return v * 10
	})

	assert.Equal(t, 10, c.Read())
	ver := c.Version()

	boom = true
	a.Write(2)
	assert.Panics(t, func() { c.Read() })
	assert.Equal(t, ver, c.Version())

	boom = false
	assert.Equal(t, 20, c.Read())
	assert.Equal(t, ver+1, c.Version())
}
