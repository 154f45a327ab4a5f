// Package builder provides fluent query builders on top of the node model.
//
// Builders are values. Every method returns a new builder and leaves its
// receiver untouched, so a partially built query can be branched:
//
//	base := builder.SelectFrom("person").Where("gender", "=", "female")
//	adults := base.Where("age", ">=", 18)
//	minors := base.Where("age", "<", 18)
//
// Construction errors do not panic. The first error is recorded on the
// builder, every later call is a no-op, and the error is reported by Err,
// Node and Compile.
package builder

import (
	"errors"
	"fmt"

	"github.com/roach88/querykit/internal/compiler"
	"github.com/roach88/querykit/internal/dialect"
	"github.com/roach88/querykit/internal/node"
)

// ErrInvalidReference is returned for table or column strings that cannot be
// parsed.
var ErrInvalidReference = errors.New("invalid reference")

// Reference is a column reference used as a right-hand operand, as opposed to
// a string value. Create one with Ref.
type Reference string

// Ref marks s ("column" or "table.column") as a column reference.
//
//	Where("pet.owner_id", "=", builder.Ref("person.id"))
func Ref(s string) Reference {
	return Reference(s)
}

// Expression is anything that can be turned into a node. Every builder in
// this package implements it.
type Expression interface {
	Node() (node.Node, error)
}

// Query is an Expression that can be compiled on its own: a statement, a
// join clause or a raw fragment.
type Query interface {
	Expression
	Compile(d dialect.Dialect) (*compiler.CompiledQuery, error)
}

// AliasedExpression is an expression with an alias, usable as a selection or
// a FROM source.
type AliasedExpression struct {
	alias *node.AliasNode
	err   error
}

// Node implements Expression.
func (a AliasedExpression) Node() (node.Node, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.alias, nil
}

func aliased(e Expression, alias string) AliasedExpression {
	n, err := e.Node()
	if err != nil {
		return AliasedExpression{err: err}
	}
	a, err := node.NewAlias(n, alias)
	if err != nil {
		return AliasedExpression{err: fmt.Errorf("as %q: %w", alias, err)}
	}
	return AliasedExpression{alias: a}
}

// compile compiles n unless a construction error was recorded.
func compile(n node.Node, err error, d dialect.Dialect) (*compiler.CompiledQuery, error) {
	if err != nil {
		return nil, err
	}
	return compiler.New(d).Compile(n)
}

// wrap annotates a construction error with the builder method that failed.
func wrap(method string, err error) error {
	return fmt.Errorf("%s: %w", method, err)
}
