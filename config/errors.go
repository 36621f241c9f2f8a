package config

import (
	goerrors "errors"

	"github.com/goliatone/go-errors"
)

// Text codes attached to directive resolution and merge errors. The
// reconstruction codes live in the schema package.
const (
	TextCodeUnknownDirective   = "UNKNOWN_DIRECTIVE"
	TextCodeValueParse         = "VALUE_PARSE_ERROR"
	TextCodePathConflict       = "PATH_CONFLICT"
	TextCodeFileDecode         = "FILE_DECODE_ERROR"
	TextCodeCallableLoad       = "CALLABLE_LOAD_ERROR"
	TextCodeCallableInvocation = "CALLABLE_INVOCATION_ERROR"
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
