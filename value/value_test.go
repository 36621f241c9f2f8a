package value

import (
	"testing"
)

func TestFromAny(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null()},
		{"bool", true, Bool(true)},
		{"int", 42, Int(42)},
		{"int64", int64(-7), Int(-7)},
		{"float", 0.5, Number(0.5)},
		{"string", "hello", String("hello")},
		{
			"slice",
			[]any{1, "two", nil},
			Sequence(Int(1), String("two"), Null()),
		},
		{
			"nested map",
			map[string]any{"a": map[string]any{"b": 1}},
			Map(NewMapping().Set("a", Map(NewMapping().Set("b", Int(1))))),
		},
		{
			"typed slice",
			[]string{"x", "y"},
			Sequence(String("x"), String("y")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			if err != nil {
				t.Fatalf("FromAny(%v) failed: %v", tt.in, err)
			}
			if !Equal(got, tt.want) {
				t.Errorf("FromAny(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromAnyRejectsNonStringKeys(t *testing.T) {
	if _, err := FromAny(map[int]any{1: "x"}); err == nil {
		t.Fatal("expected error for non-string map key")
	}
}

func TestInt(t *testing.T) {
	if n, ok := Number(2).Int(); !ok || n != 2 {
		t.Errorf("Number(2).Int() = %v, %v", n, ok)
	}
	if _, ok := Number(2.5).Int(); ok {
		t.Error("Number(2.5).Int() should not be whole")
	}
	if _, ok := String("2").Int(); ok {
		t.Error("String(\"2\").Int() should fail")
	}
}

func TestEqualIgnoresMappingOrder(t *testing.T) {
	a := Map(NewMapping().Set("x", Int(1)).Set("y", Int(2)))
	b := Map(NewMapping().Set("y", Int(2)).Set("x", Int(1)))
	if !Equal(a, b) {
		t.Error("mapping equality should ignore key order")
	}

	c := Sequence(Int(1), Int(2))
	d := Sequence(Int(2), Int(1))
	if Equal(c, d) {
		t.Error("sequence equality should respect order")
	}
}

func TestMappingOrder(t *testing.T) {
	m := NewMapping()
	m.Set("b", Int(1))
	m.Set("a", Int(2))
	m.Set("b", Int(3)) // update keeps position

	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("unexpected key order: %v", keys)
	}
	if v, _ := m.Get("b"); !Equal(v, Int(3)) {
		t.Errorf("expected b=3, got %v", v)
	}

	m.Delete("b")
	keys = m.Keys()
	if len(keys) != 1 || keys[0] != "a" {
		t.Fatalf("unexpected keys after delete: %v", keys)
	}
}

func TestCloneIsDeep(t *testing.T) {
	inner := NewMapping().Set("k", Int(1))
	orig := Map(NewMapping().Set("nested", Map(inner)))

	cloned := orig.Clone()
	inner.Set("k", Int(99))

	m, _ := cloned.Mapping()
	nested, _ := m.Get("nested")
	nm, _ := nested.Mapping()
	if v, _ := nm.Get("k"); !Equal(v, Int(1)) {
		t.Errorf("clone shares state with original: %v", v)
	}
}

func TestInterfaceRoundTrip(t *testing.T) {
	doc := Map(NewMapping().
		Set("n", Int(3)).
		Set("f", Number(1.5)).
		Set("items", Sequence(String("a"), Bool(false))))

	back, err := FromAny(doc.Interface())
	if err != nil {
		t.Fatalf("FromAny failed: %v", err)
	}
	if !Equal(doc, back) {
		t.Errorf("round trip mismatch: %v vs %v", doc, back)
	}
}
