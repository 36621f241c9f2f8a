package config

import (
	"github.com/confweave/confweave/schema"
	"github.com/confweave/confweave/value"
)

// ParseArgs resolves CLI directives left to right and merges them
// into one document, using the default collaborators.
func ParseArgs(args []string) (*value.Mapping, error) {
	return ParseArgsWith(NewResolver(), args)
}

// ParseArgsWith is ParseArgs with an explicit resolver.
func ParseArgsWith(r *Resolver, args []string) (*value.Mapping, error) {
	ops, err := r.ResolveAll(args)
	if err != nil {
		return nil, err
	}
	return MergeAll(ops)
}

// Parse runs the whole pipeline: directives to document to a typed
// instance of T.
func Parse[T any](args []string) (T, error) {
	return ParseWith[T](NewResolver(), args)
}

// ParseWith is Parse with an explicit resolver.
func ParseWith[T any](r *Resolver, args []string) (T, error) {
	root, err := ParseArgsWith(r, args)
	if err != nil {
		var zero T
		return zero, err
	}
	return schema.Reconstruct[T](value.Map(root))
}
