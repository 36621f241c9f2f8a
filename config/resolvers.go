package config

import (
	"encoding/json"
	goerrors "errors"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-errors"

	"github.com/confweave/confweave/value"
)

// Directive prefixes. Matching is exact and case-sensitive. The
// -py-fn spellings are accepted as aliases so existing farconf-style
// command lines keep working.
const (
	prefixSet        = "--set="
	prefixSetJSON    = "--set-json="
	prefixSetFile    = "--set-from-file="
	prefixFile       = "--from-file="
	prefixSetFn      = "--set-from-fn="
	prefixFn         = "--from-fn="
	prefixSetFnAlias = "--set-from-py-fn="
	prefixFnAlias    = "--from-py-fn="
)

// jsonHintChars are the characters whose presence means the author
// intended JSON: a parse failure then surfaces instead of falling
// back to a literal string.
const jsonHintChars = `{}[]"`

// Resolver maps one CLI directive to one Operation. File contents and
// callables come from external collaborators so the mapping itself
// stays a pure function of its inputs.
type Resolver struct {
	// Decoder turns file bytes into documents. Defaults to the koanf
	// parser-backed decoder.
	Decoder FileDecoder
	// FS is the filesystem file directives read from. Defaults to the
	// process working directory.
	FS fs.FS
	// Fns loads callables for --from-fn directives. Defaults to the
	// process-wide registry.
	Fns FnLoader
}

// NewResolver returns a Resolver with the default collaborators.
func NewResolver() *Resolver { return &Resolver{} }

func (r *Resolver) decoder() FileDecoder {
	if r.Decoder != nil {
		return r.Decoder
	}
	return NewFileDecoder()
}

// readFile goes through r.FS when one is set; otherwise straight to
// the OS so absolute paths work.
func (r *Resolver) readFile(path string) ([]byte, error) {
	if r.FS != nil {
		return fs.ReadFile(r.FS, path)
	}
	return os.ReadFile(path)
}

func (r *Resolver) fns() FnLoader {
	if r.Fns != nil {
		return r.Fns
	}
	return DefaultFns
}

// ResolveAll resolves a full argument list, left to right.
func (r *Resolver) ResolveAll(args []string) ([]Operation, error) {
	ops := make([]Operation, 0, len(args))
	for i, arg := range args {
		op, err := r.Resolve(i, arg)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Resolve maps the directive at position index to its Operation.
func (r *Resolver) Resolve(index int, arg string) (Operation, error) {
	var (
		op  Operation
		err error
	)

	switch {
	case strings.HasPrefix(arg, prefixSet):
		op, err = r.resolveAssignment(strings.TrimPrefix(arg, prefixSet), false)

	case strings.HasPrefix(arg, prefixSetJSON):
		op, err = r.resolveAssignment(strings.TrimPrefix(arg, prefixSetJSON), true)

	case strings.HasPrefix(arg, prefixSetFile):
		op, err = r.resolveFileMerge(strings.TrimPrefix(arg, prefixSetFile))

	case strings.HasPrefix(arg, prefixFile):
		op, err = r.resolveFile(nil, strings.TrimPrefix(arg, prefixFile))

	case strings.HasPrefix(arg, prefixSetFn), strings.HasPrefix(arg, prefixSetFnAlias):
		rest := strings.TrimPrefix(strings.TrimPrefix(arg, prefixSetFnAlias), prefixSetFn)
		op, err = r.resolveFnMerge(rest)

	case strings.HasPrefix(arg, prefixFn), strings.HasPrefix(arg, prefixFnAlias):
		rest := strings.TrimPrefix(strings.TrimPrefix(arg, prefixFnAlias), prefixFn)
		op, err = r.resolveFn(nil, rest)

	case strings.HasPrefix(arg, "-"):
		err = errors.New(
			"only --set, --set-json, --set-from-file, --from-file, --from-fn and --set-from-fn directives may start with a dash; "+
				"to set a key starting with a dash, use --set=-key=value",
			errors.CategoryBadInput,
		).WithTextCode(TextCodeUnknownDirective)

	case strings.Contains(arg, "="):
		op, err = r.resolveAssignment(arg, false)

	default:
		err = errors.New("directive is not an assignment, it contains no \"=\"", errors.CategoryBadInput).
			WithTextCode(TextCodeUnknownDirective)
	}

	if err != nil {
		return Operation{}, decorateDirective(err, index, arg)
	}
	op.Directive = arg
	op.Index = index
	return op, nil
}

// resolveAssignment handles `path=value` bodies for --set, --set-json
// and bare assignments.
func (r *Resolver) resolveAssignment(body string, strict bool) (Operation, error) {
	key, raw, ok := splitAssign(body)
	if !ok {
		return Operation{}, errors.New("assignment is missing \"=\"", errors.CategoryBadInput).
			WithTextCode(TextCodeUnknownDirective)
	}
	v, err := ParseScalar(raw, strict)
	if err != nil {
		return Operation{}, err
	}
	return ReplaceAt(value.ParsePath(key), v), nil
}

func (r *Resolver) resolveFileMerge(body string) (Operation, error) {
	key, path, ok := splitAssign(body)
	if !ok {
		return Operation{}, errors.New("expected path=filepath", errors.CategoryBadInput).
			WithTextCode(TextCodeUnknownDirective)
	}
	return r.resolveFile(value.ParsePath(key), path)
}

func (r *Resolver) resolveFile(at value.Path, filePath string) (Operation, error) {
	data, err := r.readFile(filePath)
	if err != nil {
		return Operation{}, errors.Wrap(err, errors.CategoryBadInput, "failed to read config file").
			WithTextCode(TextCodeFileDecode).
			WithMetadata(map[string]any{"filepath": filePath})
	}
	doc, err := r.decoder().Decode(data, DetectFormat(filePath))
	if err != nil {
		return Operation{}, err
	}
	return MergeAt(at, doc), nil
}

func (r *Resolver) resolveFnMerge(body string) (Operation, error) {
	key, name, ok := splitAssign(body)
	if !ok {
		return Operation{}, errors.New("expected path=pkg:name", errors.CategoryBadInput).
			WithTextCode(TextCodeUnknownDirective)
	}
	return r.resolveFn(value.ParsePath(key), name)
}

func (r *Resolver) resolveFn(at value.Path, name string) (Operation, error) {
	fn, err := r.fns().Load(name)
	if err != nil {
		return Operation{}, err
	}
	doc, err := invokeFn(name, fn)
	if err != nil {
		return Operation{}, err
	}
	return MergeAt(at, doc), nil
}

// ParseScalar parses a directive value as a JSON fragment. In
// non-strict mode, text that fails to parse and carries none of the
// JSON structural characters {}[]" falls back to a literal string;
// strict mode always surfaces the parse error.
func ParseScalar(raw string, strict bool) (value.Value, error) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		if strict || strings.ContainsAny(raw, jsonHintChars) {
			return value.Null(), errors.Wrap(err, errors.CategoryBadInput, "value is not valid JSON").
				WithTextCode(TextCodeValueParse).
				WithMetadata(map[string]any{"value": raw})
		}
		return value.String(raw), nil
	}
	v, err := value.FromAny(decoded)
	if err != nil {
		return value.Null(), errors.Wrap(err, errors.CategoryBadInput, "value cannot be represented").
			WithTextCode(TextCodeValueParse).
			WithMetadata(map[string]any{"value": raw})
	}
	return v, nil
}

// splitAssign splits on the first "=", keeping any later "=" in the
// value part.
func splitAssign(s string) (key, val string, ok bool) {
	key, val, ok = strings.Cut(s, "=")
	return key, val, ok
}

// decorateDirective stamps the offending argument and its position
// onto a resolution error, preserving metadata set at the source.
func decorateDirective(err error, index int, arg string) error {
	var e *errors.Error
	if !goerrors.As(err, &e) {
		return err
	}
	meta := map[string]any{
		"directive":       arg,
		"directive_index": index,
	}
	for k, v := range e.Metadata {
		meta[k] = v
	}
	return e.WithMetadata(meta)
}
