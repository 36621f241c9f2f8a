package config

import (
	goerrors "errors"

	"github.com/goliatone/go-errors"

	"github.com/confweave/confweave/value"
)

// OpKind names the two ways an operation lands in the document.
type OpKind string

const (
	// OpReplace overwrites whatever sits at the target path.
	OpReplace OpKind = "replace"
	// OpMerge unions the incoming mapping into the target, later
	// values winning on non-mapping leaves.
	OpMerge OpKind = "merge"
)

// Operation is one point update emitted by a directive resolver.
// Operations are produced in CLI order and must be applied in that
// order: overlapping paths make the fold non-commutative.
type Operation struct {
	Kind  OpKind
	Path  value.Path
	Value value.Value

	// Directive remembers the argument that produced the operation,
	// for error reports.
	Directive string
	Index     int
}

// ReplaceAt builds a point-overwrite operation.
func ReplaceAt(path value.Path, v value.Value) Operation {
	return Operation{Kind: OpReplace, Path: path, Value: v}
}

// MergeAt builds a structural-merge operation. The root path merges
// the mapping into the whole document.
func MergeAt(path value.Path, m *value.Mapping) Operation {
	return Operation{Kind: OpMerge, Path: path, Value: value.Map(m)}
}

// MergeAll folds operations into a fresh root document, strictly in
// input order. A failing operation aborts the fold; nothing of the
// failed operation is applied.
func MergeAll(ops []Operation) (*value.Mapping, error) {
	root := value.NewMapping()
	for _, op := range ops {
		if err := Apply(root, op); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// Apply lands a single operation on root, mutating it in place.
func Apply(root *value.Mapping, op Operation) error {
	switch op.Kind {
	case OpReplace:
		if op.Path.IsRoot() {
			return errors.New("replace needs a non-root path", errors.CategoryBadInput).
				WithTextCode(TextCodePathConflict).
				WithMetadata(operationMeta(op))
		}
		if err := value.Set(root, op.Path, op.Value.Clone()); err != nil {
			return wrapPathConflict(err, op)
		}
		return nil

	case OpMerge:
		incoming, ok := op.Value.Mapping()
		if !ok {
			return errors.New("merge operations carry mappings only", errors.CategoryBadInput).
				WithTextCode(TextCodeValueParse).
				WithMetadata(operationMeta(op))
		}
		if op.Path.IsRoot() {
			mergeInto(root, incoming)
			return nil
		}
		if existing, found := value.Get(root, op.Path); found {
			if target, isMapping := existing.Mapping(); isMapping {
				mergeInto(target, incoming)
				return nil
			}
		}
		// absent or non-mapping target: the incoming mapping becomes
		// the value at the path
		if err := value.Set(root, op.Path, op.Value.Clone()); err != nil {
			return wrapPathConflict(err, op)
		}
		return nil

	default:
		return errors.New("unknown operation kind", errors.CategoryBadInput).
			WithTextCode(TextCodeValueParse).
			WithMetadata(operationMeta(op))
	}
}

// mergeInto unions src into dst. Mapping pairs merge key by key;
// every other pairing lets the incoming value win. Incoming subtrees
// are cloned so later mutations of dst never leak into the source.
func mergeInto(dst, src *value.Mapping) {
	src.Range(func(key string, sv value.Value) bool {
		if dv, ok := dst.Get(key); ok {
			dm, dok := dv.Mapping()
			sm, sok := sv.Mapping()
			if dok && sok {
				mergeInto(dm, sm)
				return true
			}
		}
		dst.Set(key, sv.Clone())
		return true
	})
}

func wrapPathConflict(err error, op Operation) error {
	if goerrors.Is(err, value.ErrPathConflict) {
		return errors.Wrap(err, errors.CategoryBadInput, "directive path collides with an existing scalar").
			WithTextCode(TextCodePathConflict).
			WithMetadata(operationMeta(op))
	}
	return errors.Wrap(err, errors.CategoryOperation, "failed to apply operation").
		WithMetadata(operationMeta(op))
}

func operationMeta(op Operation) map[string]any {
	meta := map[string]any{
		"op":   string(op.Kind),
		"path": op.Path.String(),
	}
	if op.Directive != "" {
		meta["directive"] = op.Directive
		meta["directive_index"] = op.Index
	}
	return meta
}
