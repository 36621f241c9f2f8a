package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"

	"github.com/confweave/confweave/value"
)

// DirectivesFromValue renders a document as a list of CLI directives
// that rebuild it from an empty config. Nested mappings become dotted
// paths, everything else is emitted as a --set-json leaf. Keys that
// contain a dot cannot appear inside a path, so their parent mapping
// is emitted as a single JSON leaf instead.
func DirectivesFromValue(doc value.Value) ([]string, error) {
	m, ok := doc.Mapping()
	if !ok {
		return nil, errors.New("only mapping documents can be rendered as directives", errors.CategoryBadInput).
			WithTextCode(TextCodeValueParse).
			WithMetadata(map[string]any{"kind": doc.Kind().String()})
	}
	var out []string
	if err := renderMapping(m, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Args renders the update as CLI directives such that re-parsing them
// onto the original document yields the target. Merge nodes become
// dotted paths; replacement nodes are emitted as one whole-JSON
// --set-json leaf, which re-parses as a replacement, so keys dropped
// between the two documents stay dropped. Sequence merges cannot be
// expressed on the command line, so updates meant for Args must be
// built with WithAtomicSequences.
func (u Update) Args() ([]string, error) {
	if u.node.kind != updateMapMerge {
		return nil, errors.New("update replaces the whole document and cannot be expressed as directives", errors.CategoryBadInput).
			WithTextCode(TextCodeValueParse)
	}
	var out []string
	if err := renderUpdateNode(u.node, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func renderUpdateNode(n updateNode, path []string, out *[]string) error {
	switch n.kind {
	case updateReplace:
		directive, err := renderLeaf(path, n.leaf)
		if err != nil {
			return err
		}
		*out = append(*out, directive)
		return nil

	case updateMapMerge:
		for _, key := range n.keys {
			if strings.Contains(key, ".") {
				return errors.New("merged key contains a dot and cannot be addressed by a directive path", errors.CategoryBadInput).
					WithTextCode(TextCodeValueParse).
					WithMetadata(map[string]any{"key": key, "path": strings.Join(path, ".")})
			}
			child := append(append([]string{}, path...), key)
			if err := renderUpdateNode(n.fields[key], child, out); err != nil {
				return err
			}
		}
		return nil

	case updateSeqMerge:
		return errors.New("sequence merges cannot be expressed as directives, diff with WithAtomicSequences", errors.CategoryBadInput).
			WithTextCode(TextCodeValueParse).
			WithMetadata(map[string]any{"path": strings.Join(path, ".")})

	default:
		return errors.New("unknown update node", errors.CategoryOperation).
			WithTextCode(TextCodeValueParse)
	}
}

// UpdateArgs builds an argument list that reproduces target starting
// from the output of the named callable: "--from-fn=<name>" followed
// by directives for whatever the callable does not already produce.
func UpdateArgs(fnName string, loader FnLoader, target value.Value) ([]string, error) {
	if loader == nil {
		loader = DefaultFns
	}
	fn, err := loader.Load(fnName)
	if err != nil {
		return nil, err
	}
	base, err := invokeFn(fnName, fn)
	if err != nil {
		return nil, err
	}

	diff := Diff(value.Map(base), target, WithAtomicSequences())
	extra, err := diff.Args()
	if err != nil {
		return nil, err
	}
	return append([]string{"--from-fn=" + fnName}, extra...), nil
}

func renderMapping(m *value.Mapping, path []string, out *[]string) error {
	var err error
	m.Range(func(key string, v value.Value) bool {
		if len(path) == 0 && strings.Contains(key, ".") {
			// a top-level dotted key has no parent to fall back to
			// and would re-parse as nested mappings
			err = errors.New("top-level key contains a dot and cannot be addressed by a directive path", errors.CategoryBadInput).
				WithTextCode(TextCodeValueParse).
				WithMetadata(map[string]any{"key": key})
			return false
		}
		child := append(append([]string{}, path...), key)
		if nested, ok := v.Mapping(); ok && nested.Len() > 0 && !hasDottedKey(nested) {
			err = renderMapping(nested, child, out)
			return err == nil
		}
		var directive string
		directive, err = renderLeaf(child, v)
		if err != nil {
			return false
		}
		*out = append(*out, directive)
		return true
	})
	return err
}

func hasDottedKey(m *value.Mapping) bool {
	for _, key := range m.Keys() {
		if strings.Contains(key, ".") {
			return true
		}
	}
	return false
}

func renderLeaf(path []string, v value.Value) (string, error) {
	raw, err := json.Marshal(v.Interface())
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryOperation, "value cannot be rendered as JSON").
			WithTextCode(TextCodeValueParse).
			WithMetadata(map[string]any{"path": strings.Join(path, ".")})
	}
	return fmt.Sprintf("--set-json=%s=%s", strings.Join(path, "."), raw), nil
}
