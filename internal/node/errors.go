package node

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes node errors.
type ErrorCode string

const (
	// ErrCodeInvalidJoinSpec indicates a malformed table or condition was
	// supplied to a join factory.
	ErrCodeInvalidJoinSpec ErrorCode = "INVALID_JOIN_SPEC"

	// ErrCodeInvalidNode indicates any other factory input that violates a
	// structural rule (empty identifier, unknown operator, wrong operand kind).
	ErrCodeInvalidNode ErrorCode = "INVALID_NODE"

	// ErrCodeMalformedTree indicates a tree that could not have been produced
	// by the factories in this package.
	ErrCodeMalformedTree ErrorCode = "MALFORMED_TREE"
)

// Error is returned by node factories and by Validate.
//
// Construction errors are caller errors and are never recovered from
// automatically.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Kind is the node kind being constructed or inspected, if known.
	Kind Kind

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalidJoin(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidJoinSpec, Kind: KindJoin, Message: fmt.Sprintf(format, args...)}
}

func invalidNode(kind Kind, format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidNode, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewMalformedTreeError creates an error for a tree that violates the
// structural invariants of the node model.
func NewMalformedTreeError(kind Kind, format string, args ...any) *Error {
	return &Error{Code: ErrCodeMalformedTree, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsInvalidJoinSpec returns true if err is a join construction error.
// Uses errors.As to handle wrapped errors.
func IsInvalidJoinSpec(err error) bool {
	return hasCode(err, ErrCodeInvalidJoinSpec)
}

// IsInvalidNode returns true if err is a non-join construction error.
func IsInvalidNode(err error) bool {
	return hasCode(err, ErrCodeInvalidNode)
}

// IsMalformedTree returns true if err reports a structurally broken tree.
func IsMalformedTree(err error) bool {
	return hasCode(err, ErrCodeMalformedTree)
}

func hasCode(err error, code ErrorCode) bool {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Code == code
	}
	return false
}
