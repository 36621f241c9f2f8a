package schema

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/goliatone/go-errors"

	"github.com/confweave/confweave/value"
)

// ToValue converts a typed instance into the untyped document model.
// It is the structural inverse of Reconstruct: interface-typed record
// fields gain a leading discriminator key naming the registered
// variant, optional (pointer) fields render nil as null, and numbers
// collapse to the shared number shape. For any instance built by
// Reconstruct, reconstructing ToValue's output yields the instance
// back.
func ToValue(instance any) (value.Value, error) {
	if instance == nil {
		return value.Null(), nil
	}
	switch v := instance.(type) {
	case value.Value:
		return v.Clone(), nil
	case *value.Mapping:
		return value.Map(v.Clone()), nil
	}
	return toValue(reflect.ValueOf(instance))
}

func toValue(rv reflect.Value) (value.Value, error) {
	switch rv.Kind() {
	case reflect.Invalid:
		return value.Null(), nil

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return value.Null(), nil
		}
		return toValue(rv.Elem())

	case reflect.Bool:
		return value.Bool(rv.Bool()), nil

	case reflect.String:
		return value.String(rv.String()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.Number(float64(rv.Uint())), nil

	case reflect.Float32, reflect.Float64:
		return value.Number(rv.Float()), nil

	case reflect.Slice, reflect.Array:
		items := make([]value.Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := toValue(rv.Index(i))
			if err != nil {
				return value.Null(), err
			}
			items[i] = item
		}
		return value.Sequence(items...), nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return value.Null(), fmt.Errorf("schema: cannot serialize map with %s keys", rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			keys = append(keys, iter.Key().String())
		}
		sort.Strings(keys)
		m := value.NewMapping()
		for _, key := range keys {
			item, err := toValue(rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key())))
			if err != nil {
				return value.Null(), err
			}
			m.Set(key, item)
		}
		return value.Map(m), nil

	case reflect.Struct:
		return recordToValue(rv)

	default:
		return value.Null(), fmt.Errorf("schema: cannot serialize %s", rv.Type())
	}
}

func recordToValue(rv reflect.Value) (value.Value, error) {
	m := value.NewMapping()
	for _, d := range declaredFields(rv.Type()) {
		field := rv.Field(d.index)
		fv, err := toValue(field)
		if err != nil {
			return value.Null(), err
		}
		if d.typ.Kind() == reflect.Interface && d.typ.NumMethod() > 0 && !field.IsNil() {
			fv, err = withDiscriminator(field, fv)
			if err != nil {
				return value.Null(), err
			}
		}
		m.Set(d.key, fv)
	}
	return value.Map(m), nil
}

// withDiscriminator rebuilds a variant field's mapping with the
// `_type_` key first, mirroring the key order Reconstruct expects.
func withDiscriminator(field reflect.Value, fv value.Value) (value.Value, error) {
	name, ok := TypeName(field.Elem().Type())
	if !ok {
		return value.Null(), errors.New("concrete variant type is not registered", errors.CategoryBadInput).
			WithTextCode(TextCodeUnknownVariant).
			WithMetadata(map[string]any{
				"concrete": field.Elem().Type().String(),
			})
	}
	body, ok := fv.Mapping()
	if !ok {
		return value.Null(), fmt.Errorf("schema: variant %s did not serialize to a mapping", name)
	}
	out := value.NewMapping().Set(DiscriminatorKey, value.String(name))
	body.Range(func(key string, v value.Value) bool {
		out.Set(key, v)
		return true
	})
	return value.Map(out), nil
}
