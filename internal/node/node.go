package node

import (
	"reflect"
	"slices"
)

// Kind is the discriminant tag of a node.
//
// The set of kinds is closed. Adding a kind requires updating the compiler's
// type switch and every dialect that must support it.
type Kind string

const (
	KindTable        Kind = "TableNode"
	KindColumn       Kind = "ColumnNode"
	KindSelectAll    Kind = "SelectAllNode"
	KindAlias        Kind = "AliasNode"
	KindValue        Kind = "ValueNode"
	KindValueList    Kind = "ValueListNode"
	KindFilter       Kind = "FilterNode"
	KindAnd          Kind = "AndNode"
	KindOr           Kind = "OrNode"
	KindParens       Kind = "ParensNode"
	KindJoin         Kind = "JoinNode"
	KindOrderByItem  Kind = "OrderByItemNode"
	KindColumnUpdate Kind = "ColumnUpdateNode"
	KindSelectQuery  Kind = "SelectQueryNode"
	KindInsertQuery  Kind = "InsertQueryNode"
	KindUpdateQuery  Kind = "UpdateQueryNode"
	KindDeleteQuery  Kind = "DeleteQueryNode"
	KindRaw          Kind = "RawNode"
)

// Node is one immutable syntactic fragment of a query.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	// Kind returns the discriminant tag of the node.
	Kind() Kind

	operationNode() // Marker method - seals interface to this package
}

// Equal reports whether two trees are structurally equal.
// Node identity is irrelevant; only kinds and field values are compared.
func Equal(a, b Node) bool {
	return reflect.DeepEqual(a, b)
}

// KindOf returns the kind of n, or "" for a nil node.
func KindOf(n Node) Kind {
	if isNil(n) {
		return ""
	}
	return n.Kind()
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *TableNode:
		return v == nil
	case *ColumnNode:
		return v == nil
	case *SelectAllNode:
		return v == nil
	case *AliasNode:
		return v == nil
	case *ValueNode:
		return v == nil
	case *ValueListNode:
		return v == nil
	case *FilterNode:
		return v == nil
	case *AndNode:
		return v == nil
	case *OrNode:
		return v == nil
	case *ParensNode:
		return v == nil
	case *JoinNode:
		return v == nil
	case *OrderByItemNode:
		return v == nil
	case *ColumnUpdateNode:
		return v == nil
	case *SelectQueryNode:
		return v == nil
	case *InsertQueryNode:
		return v == nil
	case *UpdateQueryNode:
		return v == nil
	case *DeleteQueryNode:
		return v == nil
	case *RawNode:
		return v == nil
	}
	return false
}

// kindIn reports whether n is non-nil and one of kinds.
func kindIn(n Node, kinds ...Kind) bool {
	if isNil(n) {
		return false
	}
	return slices.Contains(kinds, n.Kind())
}

// concat returns a fresh slice holding a followed by b, or nil if both are
// empty. The result never shares a backing array with its inputs.
func concat[T any](a, b []T) []T {
	if len(a)+len(b) == 0 {
		return nil
	}
	return slices.Concat(a, b)
}

// cloneSlice returns a copy of s, or nil if s is empty.
func cloneSlice[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return slices.Clone(s)
}
