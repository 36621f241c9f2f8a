// Package value holds the untyped document model every configuration
// source is normalized into before merging and typed decoding. The
// model is a closed set of shapes (null, bool, number, string,
// sequence, mapping) so consumers can switch exhaustively on Kind.
package value

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Kind identifies the shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is one node of the untyped document tree. The zero Value is
// null.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	seq  []Value
	m    *Mapping
}

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number. Integers and floats share this
// representation, mirroring JSON.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Int wraps a whole number.
func Int(n int64) Value { return Number(float64(n)) }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Sequence wraps an ordered list of Values.
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, seq: items}
}

// Map wraps a Mapping. A nil Mapping is promoted to an empty one.
func Map(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, m: m}
}

// Kind reports the shape of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null Value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload, the second result reporting
// whether v actually is a bool.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Number returns the numeric payload.
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Int returns the numeric payload when it is a whole number.
func (v Value) Int() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if v.num != math.Trunc(v.num) || math.IsInf(v.num, 0) {
		return 0, false
	}
	return int64(v.num), true
}

// Text returns the string payload.
func (v Value) Text() (string, bool) {
	return v.str, v.kind == KindString
}

// Sequence returns the element slice. Callers must not grow the
// returned slice.
func (v Value) Sequence() ([]Value, bool) {
	return v.seq, v.kind == KindSequence
}

// Mapping returns the mapping payload. The Mapping is shared, not
// copied; mutations are visible through every alias of v.
func (v Value) Mapping() (*Mapping, bool) {
	return v.m, v.kind == KindMapping
}

// Interface converts v into the plain Go representation used by the
// koanf and mapstructure ecosystems: nil, bool, int64 or float64,
// string, []any, or map[string]any. Mapping key order is not
// preserved.
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		if n, ok := v.Int(); ok {
			return n
		}
		return v.num
	case KindString:
		return v.str
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		return v.m.Raw()
	default:
		return nil
	}
}

// String renders a compact debug form.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.str)
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindSequence:
		items := make([]Value, len(v.seq))
		for i, item := range v.seq {
			items[i] = item.Clone()
		}
		return Sequence(items...)
	case KindMapping:
		return Map(v.m.Clone())
	default:
		return v
	}
}

// Equal compares two Values structurally. Mapping key order carries
// no weight; sequence order does.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if a.m.Len() != b.m.Len() {
			return false
		}
		equal := true
		a.m.Range(func(key string, av Value) bool {
			bv, ok := b.m.Get(key)
			if !ok || !Equal(av, bv) {
				equal = false
				return false
			}
			return true
		})
		return equal
	default:
		return false
	}
}

// FromAny converts a decoded Go value (as produced by the JSON, YAML,
// and TOML parsers, or by koanf's Raw) into a Value. Map keys must be
// strings; non-string keys and unrepresentable types are errors.
func FromAny(in any) (Value, error) {
	switch v := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case *Mapping:
		return Map(v), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return Int(int64(v)), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	case float32:
		return Number(float64(v)), nil
	case float64:
		return Number(v), nil
	}

	rv := reflect.ValueOf(in)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return Null(), err
			}
			items[i] = item
		}
		return Sequence(items...), nil
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		backing := make(map[string]any, rv.Len())
		for iter.Next() {
			key, ok := iter.Key().Interface().(string)
			if !ok {
				return Null(), fmt.Errorf("value: map key %v is not a string", iter.Key().Interface())
			}
			keys = append(keys, key)
			backing[key] = iter.Value().Interface()
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, key := range keys {
			item, err := FromAny(backing[key])
			if err != nil {
				return Null(), err
			}
			m.Set(key, item)
		}
		return Map(m), nil
	default:
		return Null(), fmt.Errorf("value: cannot represent %T", in)
	}
}
