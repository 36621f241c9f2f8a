package schema

import (
	"reflect"
	"strconv"

	"github.com/goliatone/go-errors"

	"github.com/confweave/confweave/value"
)

// Reconstruct builds a typed instance of T from an untyped document.
// T may be a struct, a pointer to struct, or a registered-variant
// interface. The conversion is strict: every declared field must be
// present or carry a default, keys not matching a declaration are
// rejected, and scalar shapes must match exactly (no string to number
// coercion; whole JSON numbers populate integer fields).
func Reconstruct[T any](doc value.Value) (T, error) {
	var zero T
	target := reflect.TypeOf(&zero).Elem()
	rv, err := reconstruct(doc, target, "")
	if err != nil {
		return zero, err
	}
	out, _ := rv.Interface().(T)
	return out, nil
}

// ReconstructType is the reflect-level variant of Reconstruct.
func ReconstructType(doc value.Value, target reflect.Type) (reflect.Value, error) {
	return reconstruct(doc, target, "")
}

func reconstruct(v value.Value, target reflect.Type, path string) (reflect.Value, error) {
	switch target.Kind() {
	case reflect.Pointer:
		if v.IsNull() {
			return reflect.Zero(target), nil
		}
		elem, err := reconstruct(v, target.Elem(), path)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil

	case reflect.Interface:
		if target.NumMethod() == 0 {
			out := reflect.New(target).Elem()
			if raw := v.Interface(); raw != nil {
				out.Set(reflect.ValueOf(raw))
			}
			return out, nil
		}
		return reconstructVariant(v, target, path)

	case reflect.Bool:
		b, ok := v.Bool()
		if !ok {
			return reflect.Value{}, typeMismatch(path, target, v)
		}
		return reflect.ValueOf(b).Convert(target), nil

	case reflect.String:
		s, ok := v.Text()
		if !ok {
			return reflect.Value{}, typeMismatch(path, target, v)
		}
		return reflect.ValueOf(s).Convert(target), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.Int()
		if !ok {
			return reflect.Value{}, typeMismatch(path, target, v)
		}
		out := reflect.New(target).Elem()
		if out.OverflowInt(n) {
			return reflect.Value{}, typeMismatch(path, target, v)
		}
		out.SetInt(n)
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := v.Int()
		if !ok || n < 0 {
			return reflect.Value{}, typeMismatch(path, target, v)
		}
		out := reflect.New(target).Elem()
		if out.OverflowUint(uint64(n)) {
			return reflect.Value{}, typeMismatch(path, target, v)
		}
		out.SetUint(uint64(n))
		return out, nil

	case reflect.Float32, reflect.Float64:
		n, ok := v.Number()
		if !ok {
			return reflect.Value{}, typeMismatch(path, target, v)
		}
		out := reflect.New(target).Elem()
		out.SetFloat(n)
		return out, nil

	case reflect.Slice:
		items, ok := v.Sequence()
		if !ok {
			return reflect.Value{}, typeMismatch(path, target, v)
		}
		out := reflect.MakeSlice(target, len(items), len(items))
		for i, item := range items {
			elem, err := reconstruct(item, target.Elem(), indexPath(path, i))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(elem)
		}
		return out, nil

	case reflect.Map:
		if target.Key().Kind() != reflect.String {
			return reflect.Value{}, unsupportedTarget(path, target)
		}
		m, ok := v.Mapping()
		if !ok {
			return reflect.Value{}, typeMismatch(path, target, v)
		}
		out := reflect.MakeMapWithSize(target, m.Len())
		var mapErr error
		m.Range(func(key string, item value.Value) bool {
			elem, err := reconstruct(item, target.Elem(), childPath(path, key))
			if err != nil {
				mapErr = err
				return false
			}
			out.SetMapIndex(reflect.ValueOf(key).Convert(target.Key()), elem)
			return true
		})
		if mapErr != nil {
			return reflect.Value{}, mapErr
		}
		return out, nil

	case reflect.Struct:
		return reconstructRecord(v, target, path)

	default:
		return reflect.Value{}, unsupportedTarget(path, target)
	}
}

// reconstructRecord builds a concrete record from a mapping, binding
// every declared field and rejecting keys without a declaration.
func reconstructRecord(v value.Value, target reflect.Type, path string) (reflect.Value, error) {
	m, ok := v.Mapping()
	if !ok {
		return reflect.Value{}, typeMismatch(path, target, v)
	}

	decls := declaredFields(target)
	declared := make(map[string]bool, len(decls))
	for _, d := range decls {
		declared[d.key] = true
	}

	var unknown error
	m.Range(func(key string, _ value.Value) bool {
		if !declared[key] {
			unknown = unknownField(path, key, target)
			return false
		}
		return true
	})
	if unknown != nil {
		return reflect.Value{}, unknown
	}

	out := reflect.New(target).Elem()
	for _, d := range decls {
		fv, present := m.Get(d.key)
		if !present {
			if !d.hasDefault {
				return reflect.Value{}, missingField(path, d.key, target)
			}
			fv = d.defaultValue()
		}
		bound, err := reconstruct(fv, d.typ, childPath(path, d.key))
		if err != nil {
			return reflect.Value{}, err
		}
		out.Field(d.index).Set(bound)
	}
	return out, nil
}

// reconstructVariant resolves the discriminator key against the
// variant registry and builds the concrete record it names.
func reconstructVariant(v value.Value, iface reflect.Type, path string) (reflect.Value, error) {
	m, ok := v.Mapping()
	if !ok {
		return reflect.Value{}, typeMismatch(path, iface, v)
	}

	disc, ok := m.Get(DiscriminatorKey)
	if !ok {
		return reflect.Value{}, errors.New("cannot pick a variant without a discriminator", errors.CategoryBadInput).
			WithTextCode(TextCodeDiscriminatorMissing).
			WithMetadata(map[string]any{
				"path":              path,
				"target":            iface.String(),
				"discriminator_key": DiscriminatorKey,
			})
	}
	name, ok := disc.Text()
	if !ok {
		return reflect.Value{}, typeMismatch(childPath(path, DiscriminatorKey), reflect.TypeOf(""), disc)
	}

	concrete, ok := Resolve(name)
	if !ok || !implementsInterface(concrete, iface) {
		return reflect.Value{}, errors.New("discriminator does not name a registered variant of the target", errors.CategoryBadInput).
			WithTextCode(TextCodeUnknownVariant).
			WithMetadata(map[string]any{
				"path":    path,
				"target":  iface.String(),
				"variant": name,
			})
	}

	fields := m.Clone()
	fields.Delete(DiscriminatorKey)
	rec, err := reconstructRecord(value.Map(fields), concrete, path)
	if err != nil {
		return reflect.Value{}, err
	}

	out := reflect.New(iface).Elem()
	if concrete.Implements(iface) {
		out.Set(rec)
		return out, nil
	}
	ptr := reflect.New(concrete)
	ptr.Elem().Set(rec)
	out.Set(ptr)
	return out, nil
}

func childPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return childPath(path, "["+strconv.Itoa(i)+"]")
}

func typeMismatch(path string, target reflect.Type, v value.Value) error {
	return errors.New("value shape does not match the declared type", errors.CategoryBadInput).
		WithTextCode(TextCodeTypeMismatch).
		WithMetadata(map[string]any{
			"path":       path,
			"target":     target.String(),
			"value_kind": v.Kind().String(),
		})
}

func missingField(path, key string, target reflect.Type) error {
	return errors.New("required field is absent and has no default", errors.CategoryBadInput).
		WithTextCode(TextCodeMissingField).
		WithMetadata(map[string]any{
			"path":   childPath(path, key),
			"field":  key,
			"record": target.String(),
		})
}

func unknownField(path, key string, target reflect.Type) error {
	return errors.New("key does not match any declared field", errors.CategoryBadInput).
		WithTextCode(TextCodeUnknownField).
		WithMetadata(map[string]any{
			"path":   childPath(path, key),
			"field":  key,
			"record": target.String(),
		})
}

func unsupportedTarget(path string, target reflect.Type) error {
	return errors.New("target type cannot be reconstructed", errors.CategoryBadInput).
		WithTextCode(TextCodeTypeMismatch).
		WithMetadata(map[string]any{
			"path":   path,
			"target": target.String(),
		})
}
