package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-errors"

	"github.com/confweave/confweave/schema"
	"github.com/confweave/confweave/value"
)

// Fn is the zero-argument callable contract behind --from-fn
// directives. It returns either a record instance, a *value.Mapping,
// or a plain map[string]any.
type Fn func() (any, error)

// FnLoader resolves a qualified name to a callable. Go cannot import
// code at runtime, so the default loader is an explicit registry
// populated at process start.
type FnLoader interface {
	Load(name string) (Fn, error)
}

// FnRegistry is the registry-backed FnLoader.
type FnRegistry struct {
	mu  sync.RWMutex
	fns map[string]Fn
}

// NewFnRegistry returns an empty registry.
func NewFnRegistry() *FnRegistry {
	return &FnRegistry{fns: map[string]Fn{}}
}

// Register stores fn under a qualified "pkg:name" key. Registering
// the same name twice panics: silently replacing config producers
// makes runs irreproducible.
func (r *FnRegistry) Register(name string, fn Fn) {
	if !strings.Contains(name, ":") {
		panic(fmt.Sprintf("config: fn name %q must have the form \"pkg:name\"", name))
	}
	if fn == nil {
		panic(fmt.Sprintf("config: nil fn registered under %q", name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fns[name]; ok {
		panic(fmt.Sprintf("config: fn %q already registered", name))
	}
	r.fns[name] = fn
}

// Load implements FnLoader.
func (r *FnRegistry) Load(name string) (Fn, error) {
	r.mu.RLock()
	fn, ok := r.fns[name]
	names := make([]string, 0, len(r.fns))
	for k := range r.fns {
		names = append(names, k)
	}
	r.mu.RUnlock()

	if !ok {
		sort.Strings(names)
		return nil, errors.New("no callable registered under the qualified name", errors.CategoryBadInput).
			WithTextCode(TextCodeCallableLoad).
			WithMetadata(map[string]any{
				"name":       name,
				"registered": names,
			})
	}
	return fn, nil
}

// DefaultFns is the process-wide registry used when a Resolver is not
// given an explicit loader.
var DefaultFns = NewFnRegistry()

// RegisterFn registers fn on the process-wide registry.
func RegisterFn(name string, fn Fn) {
	DefaultFns.Register(name, fn)
}

// invokeFn calls a loaded Fn and converts its result into a document
// mapping via the structural inverse of reconstruction.
func invokeFn(name string, fn Fn) (m *value.Mapping, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, errors.New("callable panicked", errors.CategoryOperation).
				WithTextCode(TextCodeCallableInvocation).
				WithMetadata(map[string]any{
					"name":  name,
					"panic": fmt.Sprintf("%v", r),
				})
		}
	}()

	result, err := fn()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "callable returned an error").
			WithTextCode(TextCodeCallableInvocation).
			WithMetadata(map[string]any{"name": name})
	}

	doc, err := schema.ToValue(result)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "callable result cannot be serialized").
			WithTextCode(TextCodeCallableInvocation).
			WithMetadata(map[string]any{"name": name})
	}
	mapping, ok := doc.Mapping()
	if !ok {
		return nil, errors.New("callable must produce a mapping or record instance", errors.CategoryBadInput).
			WithTextCode(TextCodeCallableInvocation).
			WithMetadata(map[string]any{
				"name": name,
				"kind": doc.Kind().String(),
			})
	}
	return mapping, nil
}
