package schema

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// ErrorCode categorizes schema errors.
type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"      // schema path missing
	ErrCodeNoFiles       ErrorCode = "NO_FILES"       // directory has no .cue files
	ErrCodeLoadFailed    ErrorCode = "LOAD_FAILED"    // CUE load or build failed
	ErrCodeInvalidSchema ErrorCode = "INVALID_SCHEMA" // document does not match #Schema
	ErrCodeUnknownTable  ErrorCode = "UNKNOWN_TABLE"
	ErrCodeUnknownColumn ErrorCode = "UNKNOWN_COLUMN"
)

// Error is a schema loading or validation failure. Pos is set for errors that
// originate in a CUE source file.
type Error struct {
	Code    ErrorCode
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// fromCUE converts a CUE error, keeping the position of the first one.
func fromCUE(code ErrorCode, err error) *Error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Code: code, Message: err.Error()}
	}
	first := errs[0]
	e := &Error{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsUnknownTable returns true if err reports a table missing from the schema.
func IsUnknownTable(err error) bool { return hasCode(err, ErrCodeUnknownTable) }

// IsUnknownColumn returns true if err reports a column missing from the schema.
func IsUnknownColumn(err error) bool { return hasCode(err, ErrCodeUnknownColumn) }

// IsInvalidSchema returns true if the schema document itself is invalid.
func IsInvalidSchema(err error) bool { return hasCode(err, ErrCodeInvalidSchema) }
