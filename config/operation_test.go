package config

import (
	"testing"

	"github.com/confweave/confweave/value"
)

func TestMergeAllOrder(t *testing.T) {
	t.Run("sibling sets then parent replace", func(t *testing.T) {
		root, err := ParseArgs([]string{"a.b.c=1", "a.b.d=2"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := docFrom(t, map[string]any{
			"a": map[string]any{"b": map[string]any{"c": 1, "d": 2}},
		})
		if !value.Equal(value.Map(root), want) {
			t.Fatalf("document = %v", root.Raw())
		}

		root, err = ParseArgs([]string{"a.b.c=1", "a.b.d=2", "a.b=5"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want = docFrom(t, map[string]any{"a": map[string]any{"b": 5}})
		if !value.Equal(value.Map(root), want) {
			t.Fatalf("later replace should win whole subtree, got %v", root.Raw())
		}
	})

	t.Run("sequence replace is whole", func(t *testing.T) {
		root, err := ParseArgs([]string{"--set-json=l=[1, 2, 3]", "--set-json=l=[9]"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := docFrom(t, map[string]any{"l": []any{9}})
		if !value.Equal(value.Map(root), want) {
			t.Fatalf("document = %v", root.Raw())
		}
	})
}

func TestApplyPathConflict(t *testing.T) {
	_, err := ParseArgs([]string{"a=1", "a.b=2"})
	if got := ErrorCode(err); got != TextCodePathConflict {
		t.Fatalf("error code = %q (err: %v)", got, err)
	}

	// the failed operation must not leave partial writes behind
	root := value.NewMapping()
	root.Set("a", value.Number(1))
	op := ReplaceAt(value.ParsePath("a.b.c"), value.Number(2))
	if err := Apply(root, op); err == nil {
		t.Fatalf("expected conflict")
	}
	want := docFrom(t, map[string]any{"a": 1})
	if !value.Equal(value.Map(root), want) {
		t.Fatalf("document mutated by failed operation: %v", root.Raw())
	}
}

func TestApplyMergeSemantics(t *testing.T) {
	mapping := func(raw map[string]any) *value.Mapping {
		m, ok := docFrom(t, raw).Mapping()
		if !ok {
			t.Fatalf("fixture is not a mapping")
		}
		return m
	}

	t.Run("root merges union deeply", func(t *testing.T) {
		root, err := MergeAll([]Operation{
			MergeAt(nil, mapping(map[string]any{"db": map[string]any{"host": "localhost"}, "debug": true})),
			MergeAt(nil, mapping(map[string]any{"db": map[string]any{"port": 5432}})),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := docFrom(t, map[string]any{
			"db":    map[string]any{"host": "localhost", "port": 5432},
			"debug": true,
		})
		if !value.Equal(value.Map(root), want) {
			t.Fatalf("document = %v", root.Raw())
		}
	})

	t.Run("merge onto scalar overwrites", func(t *testing.T) {
		root, err := MergeAll([]Operation{
			ReplaceAt(value.ParsePath("a"), value.Number(1)),
			MergeAt(value.ParsePath("a"), mapping(map[string]any{"x": 1})),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := docFrom(t, map[string]any{"a": map[string]any{"x": 1}})
		if !value.Equal(value.Map(root), want) {
			t.Fatalf("document = %v", root.Raw())
		}
	})

	t.Run("disjoint operations commute", func(t *testing.T) {
		a := ReplaceAt(value.ParsePath("left.x"), value.Number(1))
		b := ReplaceAt(value.ParsePath("right.y"), value.String("two"))

		ab, err := MergeAll([]Operation{a, b})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ba, err := MergeAll([]Operation{b, a})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !value.Equal(value.Map(ab), value.Map(ba)) {
			t.Fatalf("disjoint fold differs: %v vs %v", ab.Raw(), ba.Raw())
		}
	})

	t.Run("merged subtrees are isolated", func(t *testing.T) {
		src := mapping(map[string]any{"inner": map[string]any{"n": 1}})
		root, err := MergeAll([]Operation{MergeAt(nil, src)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		inner, _ := src.Get("inner")
		im, _ := inner.Mapping()
		im.Set("n", value.Number(99))

		want := docFrom(t, map[string]any{"inner": map[string]any{"n": 1}})
		if !value.Equal(value.Map(root), want) {
			t.Fatalf("source mutation leaked into document: %v", root.Raw())
		}
	})
}
