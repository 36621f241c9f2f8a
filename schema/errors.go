// Package schema converts untyped document trees into statically
// declared record structs and back. Records are plain Go structs with
// `conf` tags; open (abstract) record types are Go interfaces whose
// concrete variants are registered under qualified names and selected
// at decode time by the `_type_` discriminator key.
package schema

import (
	goerrors "errors"

	"github.com/goliatone/go-errors"
)

// Text codes attached to reconstruction errors.
const (
	TextCodeMissingField         = "MISSING_FIELD"
	TextCodeUnknownField         = "UNKNOWN_FIELD"
	TextCodeDiscriminatorMissing = "DISCRIMINATOR_MISSING"
	TextCodeUnknownVariant       = "UNKNOWN_VARIANT"
	TextCodeTypeMismatch         = "TYPE_MISMATCH"
)

// ErrorCode extracts the text code carried by err, or returns the
// empty string for foreign errors.
func ErrorCode(err error) string {
	var e *errors.Error
	if goerrors.As(err, &e) {
		return e.TextCode
	}
	return ""
}
