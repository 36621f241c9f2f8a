package expand

import (
	"strings"

	"github.com/knadh/koanf/v2"
)

const (
	defaultRefStart = "${"
	defaultRefEnd   = "}"
)

type refPass struct {
	delims delimiters
}

// NewRefPass returns a pass that substitutes references to other
// document paths inside string values. With the default delimiters a
// value like "${db.host}:5432" becomes "localhost:5432". A reference
// that makes up the whole value is replaced by the referenced value
// itself, keeping its type. References to absent paths are left
// untouched.
func NewRefPass(start, end string) Pass {
	if start == "" {
		start = defaultRefStart
	}
	if end == "" {
		end = defaultRefEnd
	}
	return &refPass{delims: delimiters{start: start, end: end}}
}

func (p refPass) Expand(doc *koanf.Koanf) *koanf.Koanf {
	if doc == nil {
		return doc
	}
	for key, val := range doc.All() {
		str, ok := val.(string)
		if !ok {
			continue
		}
		p.rewrite(doc, key, str)
	}
	return doc
}

func (p refPass) rewrite(doc *koanf.Koanf, key, val string) {
	start := strings.Index(val, p.delims.start)
	if start == -1 {
		return
	}
	inner := start + len(p.delims.start)

	end := strings.Index(val[inner:], p.delims.end)
	if end == -1 {
		return
	}
	end += inner

	path := val[inner:end]
	if path == "" || path == key {
		// self reference, substituting would never converge
		return
	}
	if !doc.Exists(path) {
		return
	}

	resolved := doc.Get(path)
	if start == 0 && end+len(p.delims.end) == len(val) {
		// the reference is the whole value, keep the resolved type
		doc.Set(key, resolved)
		return
	}
	doc.Set(key, val[:start]+stringify(resolved)+val[end+len(p.delims.end):])
}
