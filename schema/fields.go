package schema

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/confweave/confweave/value"
)

// fieldDecl is the read-only declaration of one record attribute,
// derived from a struct field and cached per record type.
type fieldDecl struct {
	key        string // mapping key, from the conf tag or snake_case
	index      int
	typ        reflect.Type
	defaultRaw string
	hasDefault bool
}

var declCache sync.Map // reflect.Type -> []fieldDecl

// declaredFields returns the field declarations of a record type.
// Fields tagged `conf:"-"` and unexported fields are not part of the
// record's declaration.
func declaredFields(t reflect.Type) []fieldDecl {
	if cached, ok := declCache.Load(t); ok {
		return cached.([]fieldDecl)
	}

	decls := make([]fieldDecl, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		key := strings.TrimSpace(f.Tag.Get("conf"))
		if key == "-" {
			continue
		}
		if key == "" {
			key = snakeCase(f.Name)
		}
		d := fieldDecl{key: key, index: i, typ: f.Type}
		if raw, ok := f.Tag.Lookup("default"); ok {
			d.defaultRaw = raw
			d.hasDefault = true
		}
		decls = append(decls, d)
	}

	declCache.Store(t, decls)
	return decls
}

// defaultValue parses a field's default tag. The tag holds JSON;
// text that fails to parse is taken as a literal string, so
// `default:"adam"` and `default:"\"adam\""` are equivalent.
func (d fieldDecl) defaultValue() value.Value {
	var parsed any
	if err := json.Unmarshal([]byte(d.defaultRaw), &parsed); err != nil {
		return value.String(d.defaultRaw)
	}
	v, err := value.FromAny(parsed)
	if err != nil {
		return value.String(d.defaultRaw)
	}
	return v
}

func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// start a new word unless continuing an acronym run
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
