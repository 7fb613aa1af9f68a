package ripple

import (
	"github.com/cespare/xxhash/v2"
)

// Key is a typed handle for ambient provide/inject values carried on the
// scope tree. Lookup walks from the current scope to the root; the first
// scope that provided the key wins. This is plain linked lookup over the
// Scope data structure, nothing reactive: providing a new value does not
// notify anything.
type Key[T any] struct {
	rt       *Runtime
	id       int64
	name     string
	fallback T
}

// NewKey creates a key. The id is derived from the name, so two keys with
// the same name address the same slot; pick names the way you would pick
// context keys.
func NewKey[T any](rt *Runtime, name string, fallback T) *Key[T] {
	return &Key[T]{
		rt:       rt,
		id:       keyID(name),
		name:     name,
		fallback: fallback,
	}
}

func keyID(name string) int64 {
	return int64(xxhash.Sum64String(name) & 0x7fffffffffffffff)
}

// Name returns the name the key was created with.
func (k *Key[T]) Name() string {
	return k.name
}

// Provide stores v on the current scope, shadowing any value a parent scope
// provided. Returns ErrNoScope when called outside every Scope.Run.
func (k *Key[T]) Provide(v T) error {
	scope := k.rt.currentScope()
	if scope == nil {
		return ErrNoScope
	}
	if scope.values == nil {
		scope.values = map[int64]any{}
	}
	scope.values[k.id] = v
	return nil
}

// Inject resolves the key against the current scope chain. When nothing
// provided it, or when no scope is running, the key's fallback is returned.
func (k *Key[T]) Inject() T {
	for scope := k.rt.currentScope(); scope != nil; scope = scope.parent {
		if raw, ok := scope.values[k.id]; ok {
			if v, ok := raw.(T); ok {
				return v
			}
		}
	}
	return k.fallback
}
