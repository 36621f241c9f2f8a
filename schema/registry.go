package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// DiscriminatorKey is the reserved mapping key naming the concrete
// variant to build when the declared field type is an interface.
const DiscriminatorKey = "_type_"

// The variant registry maps qualified names ("pkg:TypeName") to
// concrete record types. Go has no runtime package scanning, so
// variants are registered explicitly, typically from an init func in
// the package that defines them.
type registry struct {
	mu      sync.RWMutex
	byName  map[string]reflect.Type
	nameFor map[reflect.Type]string
}

var variants = &registry{
	byName:  map[string]reflect.Type{},
	nameFor: map[reflect.Type]string{},
}

// Register associates a qualified name with a concrete record type.
// The prototype may be a struct value or a pointer to one; either
// way the struct type is registered. Registering the same name twice
// with a different type panics, as does a malformed name.
func Register(name string, prototype any) {
	t := reflect.TypeOf(prototype)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("schema: Register expects a struct prototype, got %T", prototype))
	}
	if !strings.Contains(name, ":") {
		panic(fmt.Sprintf("schema: variant name %q must have the form \"pkg:TypeName\"", name))
	}

	variants.mu.Lock()
	defer variants.mu.Unlock()
	if existing, ok := variants.byName[name]; ok && existing != t {
		panic(fmt.Sprintf("schema: variant %q already registered as %s", name, existing))
	}
	variants.byName[name] = t
	variants.nameFor[t] = name
}

// Resolve looks up the concrete type registered under name.
func Resolve(name string) (reflect.Type, bool) {
	variants.mu.RLock()
	defer variants.mu.RUnlock()
	t, ok := variants.byName[name]
	return t, ok
}

// TypeName returns the qualified name a concrete type was registered
// under.
func TypeName(t reflect.Type) (string, bool) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	variants.mu.RLock()
	defer variants.mu.RUnlock()
	name, ok := variants.nameFor[t]
	return name, ok
}

// implementsInterface reports whether concrete (or a pointer to it)
// satisfies iface.
func implementsInterface(concrete, iface reflect.Type) bool {
	if concrete.Implements(iface) {
		return true
	}
	return reflect.PointerTo(concrete).Implements(iface)
}
