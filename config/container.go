package config

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/mitchellh/copystructure"

	"github.com/confweave/confweave/bindx"
	"github.com/confweave/confweave/expand"
	"github.com/confweave/confweave/logger"
	"github.com/confweave/confweave/schema"
	"github.com/confweave/confweave/value"
)

var DefaultDelimiter = "."

// Validable configs get a semantic validation pass after decoding.
type Validable interface {
	Validate() error
}

// Source contributes ordered operations to the merged document.
// Sources load in Priority order; directive arguments default to the
// highest priority so the command line wins.
type Source interface {
	Name() string
	Priority() int
	Operations(ctx context.Context) ([]Operation, error)
}

// Priority orders sources. Offsets allow slotting a source between
// the defaults.
type Priority int

func (p Priority) WithOffset(offset int) Priority {
	return Priority(int(p) + offset)
}

var (
	PriorityDocument Priority = 10
	PriorityFile     Priority = 20
	PriorityEnv      Priority = 30
	PriorityArgs     Priority = 40
)

// Container drives the full pipeline for one target config type:
// sources emit operations, the merge engine folds them into a single
// document, expansion passes rewrite it, and the reconstructor builds
// the typed instance.
type Container[C any] struct {
	resolver *Resolver
	sources  []Source
	passes   []expand.Pass
	maxPass  int
	lenient  bool
	log      logger.Logger

	doc value.Value
	cfg C
}

// New returns a Container with no sources. Configure it with the
// With* builders, then call Load.
func New[C any]() *Container[C] {
	return &Container[C]{
		resolver: NewResolver(),
		maxPass:  1,
		log:      logger.NewDefaultLogger("config"),
	}
}

// WithArgs adds CLI directives as the highest-priority source.
func (c *Container[C]) WithArgs(args ...string) *Container[C] {
	c.sources = append(c.sources, &argsSource{resolver: c.resolver, args: args, priority: int(PriorityArgs)})
	return c
}

// WithFile merges a config file below env and args.
func (c *Container[C]) WithFile(path string, priority ...Priority) *Container[C] {
	p := PriorityFile
	if len(priority) > 0 {
		p = priority[0]
	}
	c.sources = append(c.sources, &fileSource{resolver: c.resolver, path: path, priority: int(p)})
	return c
}

// WithEnv merges prefixed environment variables.
func (c *Container[C]) WithEnv(prefix, delim string) *Container[C] {
	src := NewEnvSource(prefix, delim)
	c.sources = append(c.sources, src)
	return c
}

// WithDocument seeds the pipeline with an in-memory mapping, below
// every other source.
func (c *Container[C]) WithDocument(m *value.Mapping) *Container[C] {
	c.sources = append(c.sources, &docSource{doc: m, priority: int(PriorityDocument)})
	return c
}

// WithSource adds a custom source.
func (c *Container[C]) WithSource(sources ...Source) *Container[C] {
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	return c
}

// WithExpansion appends document rewrite passes run between merging
// and reconstruction.
func (c *Container[C]) WithExpansion(passes ...expand.Pass) *Container[C] {
	c.passes = append(c.passes, passes...)
	return c
}

// WithExpansionRounds caps how many convergence rounds the expansion
// passes may take (minimum 1).
func (c *Container[C]) WithExpansionRounds(n int) *Container[C] {
	if n < 1 {
		n = 1
	}
	c.maxPass = n
	return c
}

// WithLenientDecode switches decoding from the strict reconstructor
// to the weakly-typed bindx builder: unknown keys are tolerated and
// scalars coerce. Use it for gradual adoption only.
func (c *Container[C]) WithLenientDecode() *Container[C] {
	c.lenient = true
	return c
}

// WithDecoder replaces the file decoder collaborator.
func (c *Container[C]) WithDecoder(d FileDecoder) *Container[C] {
	c.resolver.Decoder = d
	return c
}

// WithFns replaces the callable loader collaborator.
func (c *Container[C]) WithFns(l FnLoader) *Container[C] {
	c.resolver.Fns = l
	return c
}

// WithLogger replaces the logger.
func (c *Container[C]) WithLogger(l logger.Logger) *Container[C] {
	c.log = l
	return c
}

// Resolver exposes the directive resolver for collaborator tweaks.
func (c *Container[C]) Resolver() *Resolver { return c.resolver }

// MustLoad is Load, panicking on error.
func (c *Container[C]) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
}

// Load runs the pipeline end to end. On success the typed config is
// available from Config and the merged document from Document.
func (c *Container[C]) Load(ctx context.Context) error {
	sources := make([]Source, len(c.sources))
	copy(sources, c.sources)
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority() < sources[j].Priority()
	})

	var ops []Operation
	for _, src := range sources {
		c.log.Debug("loading source %s", src.Name())
		srcOps, err := src.Operations(ctx)
		if err != nil {
			// source errors already carry their taxonomy code and
			// directive metadata, surface them as-is
			return err
		}
		ops = append(ops, srcOps...)
	}

	root, err := MergeAll(ops)
	if err != nil {
		return err
	}

	if len(c.passes) > 0 {
		root, err = c.runExpansions(root)
		if err != nil {
			return err
		}
	}
	c.doc = value.Map(root)

	cfg, err := c.decode(root)
	if err != nil {
		return err
	}
	c.cfg = cfg

	if v, ok := any(c.cfg).(Validable); ok {
		if err := v.Validate(); err != nil {
			return errors.Wrap(err, errors.CategoryValidation, "configuration validation failed").
				WithTextCode("CONFIG_VALIDATION_FAILED")
		}
	}
	return nil
}

// runExpansions bridges the document into koanf, applies the passes
// until the document stops changing or the round cap is hit, and
// converts the result back.
func (c *Container[C]) runExpansions(root *value.Mapping) (*value.Mapping, error) {
	k := koanf.New(DefaultDelimiter)
	if err := k.Load(confmap.Provider(root.Raw(), DefaultDelimiter), nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to stage document for expansion")
	}

	for round := 0; round < c.maxPass; round++ {
		before, snapshotOK := snapshotDocument(k)
		for _, pass := range c.passes {
			pass.Expand(k)
		}
		if !snapshotOK {
			continue
		}
		if reflect.DeepEqual(before, k.Raw()) {
			break
		}
	}

	expanded, err := value.FromAny(k.Raw())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "expanded document cannot be represented")
	}
	m, ok := expanded.Mapping()
	if !ok {
		return nil, errors.New("expanded document is not a mapping", errors.CategoryOperation)
	}
	return m, nil
}

func (c *Container[C]) decode(root *value.Mapping) (C, error) {
	if c.lenient {
		return bindx.Build[C](root.Raw(), bindx.WithTagName[C]("conf"))
	}
	return schema.Reconstruct[C](value.Map(root))
}

// Config returns the reconstructed instance of the last Load.
func (c *Container[C]) Config() C { return c.cfg }

// Document returns the merged (and expanded) document of the last
// Load.
func (c *Container[C]) Document() value.Value { return c.doc }

// Koanf exposes the merged document through a koanf instance for
// interop with koanf-based tooling.
func (c *Container[C]) Koanf() (*koanf.Koanf, error) {
	k := koanf.New(DefaultDelimiter)
	m, ok := c.doc.Mapping()
	if !ok {
		return k, nil
	}
	if err := k.Load(confmap.Provider(m.Raw(), DefaultDelimiter), nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load document into koanf")
	}
	return k, nil
}

func snapshotDocument(k *koanf.Koanf) (any, bool) {
	raw := k.Raw()
	cloned, err := copystructure.Copy(raw)
	if err != nil {
		return raw, false
	}
	return cloned, true
}

type argsSource struct {
	resolver *Resolver
	args     []string
	priority int
}

func (s *argsSource) Name() string  { return "args" }
func (s *argsSource) Priority() int { return s.priority }

func (s *argsSource) Operations(context.Context) ([]Operation, error) {
	return s.resolver.ResolveAll(s.args)
}

type fileSource struct {
	resolver *Resolver
	path     string
	priority int
}

func (s *fileSource) Name() string  { return "file" }
func (s *fileSource) Priority() int { return s.priority }

func (s *fileSource) Operations(context.Context) ([]Operation, error) {
	op, err := s.resolver.resolveFile(nil, s.path)
	if err != nil {
		return nil, err
	}
	return []Operation{op}, nil
}

type docSource struct {
	doc      *value.Mapping
	priority int
}

func (s *docSource) Name() string  { return "document" }
func (s *docSource) Priority() int { return s.priority }

func (s *docSource) Operations(context.Context) ([]Operation, error) {
	if s.doc == nil {
		return nil, nil
	}
	return []Operation{MergeAt(nil, s.doc)}, nil
}
