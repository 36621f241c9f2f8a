// Package expand rewrites merged config documents before they are
// reconstructed into typed records. Passes operate on a koanf view of
// the document and run repeatedly until the document stops changing.
package expand

import (
	"fmt"
	"reflect"

	"github.com/knadh/koanf/v2"
)

// Pass is a single document rewrite. Implementations mutate the given
// koanf instance in place and return it for chaining.
type Pass interface {
	Expand(doc *koanf.Koanf) *koanf.Koanf
}

type delimiters struct {
	start string
	end   string
}

func stringify(v any) string {
	return fmt.Sprintf("%v", reflect.ValueOf(v))
}
