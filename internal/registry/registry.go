// Package registry provides a concurrency-safe name-to-value table with
// atomic insert-if-absent and remove-and-return semantics. Policy (what an
// absent or duplicate name means) belongs to the caller.
package registry

import "sync"

// Registry maps names to values of type T. The zero value is ready to use.
type Registry[T any] struct {
	entries sync.Map
}

// Open registers value under name. It reports false without modifying the
// table when the name is already taken, so concurrent opens of the same
// name admit exactly one caller.
func (r *Registry[T]) Open(name string, value T) bool {
	_, loaded := r.entries.LoadOrStore(name, value)
	return !loaded
}

// Lookup returns the value registered under name.
func (r *Registry[T]) Lookup(name string) (T, bool) {
	v, ok := r.entries.Load(name)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Close removes name and returns the value it held. Concurrent closes of
// the same name succeed for exactly one caller.
func (r *Registry[T]) Close(name string) (T, bool) {
	v, ok := r.entries.LoadAndDelete(name)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Range calls fn for each registered entry until fn returns false.
func (r *Registry[T]) Range(fn func(name string, value T) bool) {
	r.entries.Range(func(k, v any) bool {
		return fn(k.(string), v.(T))
	})
}
