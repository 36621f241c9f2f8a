package config

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/tidwall/sjson"

	"github.com/confweave/confweave/value"
)

var (
	// DefaultEnvPrefix selects which environment variables feed the
	// document.
	DefaultEnvPrefix = "APP_"
	// DefaultEnvDelimiter separates nesting levels inside a variable
	// name, so APP_DATABASE__DSN lands at database.dsn.
	DefaultEnvDelimiter = "__"
)

// EnvSource merges environment variables into the document. Variable
// names are lowercased after the prefix is stripped, the delimiter
// becomes path nesting, and values follow the same JSON-or-literal
// rule as --set, so APP_PORT=8080 is a number and APP_HOST=db is a
// string.
type EnvSource struct {
	prefix   string
	delim    string
	priority int
	environ  func() []string
}

// NewEnvSource builds an EnvSource over the process environment.
func NewEnvSource(prefix, delim string) *EnvSource {
	return &EnvSource{
		prefix:   prefix,
		delim:    delim,
		priority: int(PriorityEnv),
		environ:  os.Environ,
	}
}

func (e *EnvSource) Name() string  { return "env" }
func (e *EnvSource) Priority() int { return e.priority }

// Operations assembles one root-level merge from the matching
// variables. The nested document is built through sjson so a.b.c
// style keys expand into mappings.
func (e *EnvSource) Operations(ctx context.Context) ([]Operation, error) {
	out := "{}"
	for _, entry := range e.environ() {
		if !strings.HasPrefix(entry, e.prefix) {
			continue
		}
		name, raw, _ := strings.Cut(entry, "=")

		key := strings.ToLower(strings.TrimPrefix(name, e.prefix))
		key = strings.ReplaceAll(key, e.delim, ".")
		if key == "" {
			continue
		}

		v, err := ParseScalar(raw, false)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse environment value").
				WithTextCode(TextCodeValueParse).
				WithMetadata(map[string]any{"variable": name})
		}

		next, err := sjson.Set(out, key, v.Interface())
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to assemble environment document").
				WithMetadata(map[string]any{"variable": name, "key": key})
		}
		out = next
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "environment document is not a mapping")
	}
	doc, err := value.FromAny(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "environment document cannot be represented")
	}
	m, _ := doc.Mapping()
	if m.Len() == 0 {
		return nil, nil
	}
	return []Operation{MergeAt(nil, m)}, nil
}
