package config

import (
	"github.com/confweave/confweave/value"
)

// LeafFunc marks pairs that must be treated as indivisible when
// diffing: the target value is then emitted as a whole replacement
// instead of a structural merge.
type LeafFunc func(from, to value.Value) bool

// DiffOption tweaks Diff behavior.
type DiffOption func(*differ)

// WithLeafFunc installs a custom leaf predicate.
func WithLeafFunc(fn LeafFunc) DiffOption {
	return func(d *differ) { d.isLeaf = fn }
}

// WithAtomicSequences treats every changed sequence as a leaf. CLI
// directives cannot merge sequences element-wise, so diffs meant for
// Args rendering should use this.
func WithAtomicSequences() DiffOption {
	return func(d *differ) {
		d.isLeaf = func(from, to value.Value) bool {
			return to.Kind() == value.KindSequence && !value.Equal(from, to)
		}
	}
}

type updateKind int

const (
	updateReplace updateKind = iota
	updateMapMerge
	updateSeqMerge
)

type updateNode struct {
	kind   updateKind
	leaf   value.Value
	keys   []string
	fields map[string]updateNode
	elems  []updateNode
}

// Update is the minimal change turning one document into another:
// applying it to the original yields the target. Mapping nodes merge
// key by key, sequence nodes merge element-wise, everything else
// replaces outright.
type Update struct {
	node updateNode
}

type differ struct {
	isLeaf LeafFunc
}

// Diff computes the minimal update such that u.Apply(from) equals to.
// This is always possible because any subtree can fall back to a
// whole replacement; Diff prefers replacements as little as it can.
func Diff(from, to value.Value, opts ...DiffOption) Update {
	d := &differ{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return Update{node: d.diff(from, to)}
}

func (d *differ) leaf(from, to value.Value) bool {
	return d.isLeaf != nil && d.isLeaf(from, to)
}

func (d *differ) diff(from, to value.Value) updateNode {
	fromMap, fromIsMap := from.Mapping()
	if fromIsMap {
		if d.leaf(from, to) {
			return replaceNode(to)
		}
		toMap, ok := to.Mapping()
		if !ok {
			return replaceNode(to)
		}
		return d.diffMappings(fromMap, toMap)
	}

	fromSeq, fromIsSeq := from.Sequence()
	if fromIsSeq {
		if d.leaf(from, to) {
			return replaceNode(to)
		}
		toSeq, ok := to.Sequence()
		if !ok {
			return replaceNode(to)
		}
		return d.diffSequences(fromSeq, toSeq)
	}

	return replaceNode(to)
}

func (d *differ) diffMappings(from, to *value.Mapping) updateNode {
	// a merge can only add or change keys, never drop them
	for _, key := range from.Keys() {
		if !to.Has(key) {
			return replaceNode(value.Map(to))
		}
	}

	node := updateNode{kind: updateMapMerge, fields: map[string]updateNode{}}
	to.Range(func(key string, tv value.Value) bool {
		fv, ok := from.Get(key)
		if !ok {
			node.keys = append(node.keys, key)
			node.fields[key] = replaceNode(tv)
			return true
		}
		if value.Equal(fv, tv) {
			return true
		}
		node.keys = append(node.keys, key)
		node.fields[key] = d.diff(fv, tv)
		return true
	})
	return node
}

func (d *differ) diffSequences(from, to []value.Value) updateNode {
	if len(to) < len(from) {
		// a merge keeps the base tail alive, so shrinking needs a
		// whole replacement
		return replaceNode(value.Sequence(to...))
	}

	node := updateNode{kind: updateSeqMerge}
	for i, tv := range to {
		if i >= len(from) {
			node.elems = append(node.elems, replaceNode(tv))
			continue
		}
		if tailsEqual(from[i:], to[i:len(from)]) && len(to) == len(from) {
			// everything from here on is unchanged
			return node
		}
		node.elems = append(node.elems, d.diff(from[i], tv))
	}
	return node
}

func tailsEqual(a, b []value.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !value.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func replaceNode(v value.Value) updateNode {
	return updateNode{kind: updateReplace, leaf: v.Clone()}
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.node.kind == updateMapMerge && len(u.node.keys) == 0
}

// Apply merges the update onto base and returns the result. Base is
// not mutated.
func (u Update) Apply(base value.Value) value.Value {
	return applyNode(base, u.node)
}

// Value renders the update as a plain document, resolving every node
// as if it applied to an empty base.
func (u Update) Value() value.Value {
	return resolveNode(u.node)
}

func applyNode(base value.Value, n updateNode) value.Value {
	switch n.kind {
	case updateReplace:
		return n.leaf.Clone()

	case updateMapMerge:
		baseMap, ok := base.Mapping()
		if !ok {
			return resolveNode(n)
		}
		out := baseMap.Clone()
		for _, key := range n.keys {
			child := n.fields[key]
			if existing, ok := out.Get(key); ok {
				out.Set(key, applyNode(existing, child))
			} else {
				out.Set(key, resolveNode(child))
			}
		}
		return value.Map(out)

	case updateSeqMerge:
		baseSeq, ok := base.Sequence()
		if !ok {
			return resolveNode(n)
		}
		var out []value.Value
		for i, elem := range n.elems {
			if i < len(baseSeq) {
				out = append(out, applyNode(baseSeq[i], elem))
			} else {
				out = append(out, resolveNode(elem))
			}
		}
		// base elements past the update survive
		for i := len(n.elems); i < len(baseSeq); i++ {
			out = append(out, baseSeq[i].Clone())
		}
		return value.Sequence(out...)

	default:
		return value.Null()
	}
}

func resolveNode(n updateNode) value.Value {
	switch n.kind {
	case updateReplace:
		return n.leaf.Clone()
	case updateMapMerge:
		out := value.NewMapping()
		for _, key := range n.keys {
			out.Set(key, resolveNode(n.fields[key]))
		}
		return value.Map(out)
	case updateSeqMerge:
		items := make([]value.Value, len(n.elems))
		for i, elem := range n.elems {
			items[i] = resolveNode(elem)
		}
		return value.Sequence(items...)
	default:
		return value.Null()
	}
}
