// Package node provides the operation-node tree that querykit queries are
// built from.
//
// A query is a tree of small immutable values, one per SQL construct. The
// builder layer assembles trees through the factories in this package and the
// compiler renders a finished tree into SQL text plus bound parameters.
//
// ARCHITECTURE:
//
//	[builder] → [node factories] → [node tree] → [compiler + dialect] → (sql, params)
//
// SEALED INTERFACE:
//
// Node is a sealed interface using the marker method pattern. Only types in
// this package implement it, so a type switch over the concrete node types is
// exhaustive and the compiler can fail fast on anything else.
//
//	switch n := n.(type) {
//	case *JoinNode:
//	    // ...
//	case *FilterNode:
//	    // ...
//	default:
//	    // unreachable for trees built by this package
//	}
//
// IMMUTABILITY:
//
// Node fields are unexported and only readable through accessors. Factories
// validate their inputs and copy every slice they are given; accessors return
// copies. "Clone-with" operations such as JoinNode.AndWith return a new node and
// leave the receiver untouched, so a partially built tree can be branched and
// shared between goroutines without locking.
//
// COMBINATORS:
//
// AndWith and OrWith always wrap the existing condition as the left operand of
// the new combinator and never re-flatten it. Precedence is fixed at merge time:
//
//	on := p1                  // p1
//	on = OrWith(on, p2)       // p1 OR p2
//	on = AndWith(on, p3)      // (p1 OR p2) AND p3
//
// ERRORS:
//
// Factories report invalid input as *Error with code INVALID_JOIN_SPEC or
// INVALID_NODE. Validate reports trees that could not have come from the
// factories (nil children, zero-value nodes) as MALFORMED_TREE.
package node
