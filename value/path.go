package value

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPathConflict reports that an intermediate path segment already
// holds a non-mapping value, so the path cannot be descended.
var ErrPathConflict = errors.New("value: path conflict")

// PathError carries the offending path and the segment index where
// traversal stopped.
type PathError struct {
	Path    Path
	Segment int
}

func (e *PathError) Error() string {
	return fmt.Sprintf("segment %q of path %q holds a non-mapping value", e.Path[e.Segment], e.Path)
}

func (e *PathError) Unwrap() error { return ErrPathConflict }

// Path addresses an entry in nested Mappings, one segment per level.
// An empty Path addresses the root.
type Path []string

// ParsePath splits a dot-delimited key into a Path. The empty string
// parses to the root path.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, "."))
}

// String joins the segments with dots.
func (p Path) String() string {
	return strings.Join([]string(p), ".")
}

// IsRoot reports whether the path has no segments.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Get reads the value at p inside root. For the root path it returns
// root itself.
func Get(root *Mapping, p Path) (Value, bool) {
	if len(p) == 0 {
		return Map(root), true
	}
	current := root
	for _, seg := range p[:len(p)-1] {
		next, ok := current.Get(seg)
		if !ok {
			return Null(), false
		}
		nested, ok := next.Mapping()
		if !ok {
			return Null(), false
		}
		current = nested
	}
	return current.Get(p[len(p)-1])
}

// Set writes v at p inside root, creating intermediate Mappings for
// absent segments. When an intermediate segment already holds a
// non-mapping value, Set fails with ErrPathConflict and leaves root
// untouched. Sibling keys are never modified.
func Set(root *Mapping, p Path, v Value) error {
	if len(p) == 0 {
		return fmt.Errorf("value: cannot set the root path")
	}
	// walk first so a conflict deep in the path does not leave
	// partially created intermediates behind
	current := root
	for i, seg := range p[:len(p)-1] {
		existing, ok := current.Get(seg)
		if !ok {
			// everything below an absent segment gets created fresh
			break
		}
		nested, ok := existing.Mapping()
		if !ok {
			return &PathError{Path: p, Segment: i}
		}
		current = nested
	}

	current = root
	for _, seg := range p[:len(p)-1] {
		existing, ok := current.Get(seg)
		if ok {
			nested, _ := existing.Mapping()
			current = nested
			continue
		}
		nested := NewMapping()
		current.Set(seg, Map(nested))
		current = nested
	}
	current.Set(p[len(p)-1], v)
	return nil
}
