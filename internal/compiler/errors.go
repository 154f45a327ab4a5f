package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/querykit/internal/node"
)

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedConstruct indicates a node kind or clause combination
	// the active dialect cannot render.
	ErrCodeUnsupportedConstruct ErrorCode = "UNSUPPORTED_CONSTRUCT"
)

// Error is a compile-time failure. It signals a mismatch between the tree and
// the dialect and is never retried.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Dialect is the name of the dialect that rejected the tree.
	Dialect string

	// Kind is the node kind being compiled.
	Kind node.Kind

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (dialect=%s, node=%s)", e.Code, e.Message, e.Dialect, e.Kind)
}

// IsUnsupportedConstruct returns true if err reports a construct the dialect
// cannot render. Uses errors.As to handle wrapped errors.
func IsUnsupportedConstruct(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeUnsupportedConstruct
	}
	return false
}

// IsMalformedTree returns true if compilation was rejected because the tree
// violates the node model's structural invariants.
func IsMalformedTree(err error) bool {
	return node.IsMalformedTree(err)
}
