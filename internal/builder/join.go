package builder

import (
	"github.com/roach88/querykit/internal/compiler"
	"github.com/roach88/querykit/internal/dialect"
	"github.com/roach88/querykit/internal/node"
)

// JoinBuilder builds one join clause. On and OrOn extend the join condition
// with AND and OR; the existing condition always stays the left operand.
type JoinBuilder struct {
	join *node.JoinNode
	err  error
}

// NewJoin starts an unconditioned join of table ("table", "schema.table",
// optionally "as alias").
func NewJoin(joinType node.JoinType, table string) JoinBuilder {
	t, err := parseTable(table)
	if err != nil {
		return JoinBuilder{err: wrap("Join", err)}
	}
	j, err := node.NewJoin(joinType, t)
	if err != nil {
		return JoinBuilder{err: wrap("Join", err)}
	}
	return JoinBuilder{join: j}
}

func (b JoinBuilder) extend(method string, or bool, p node.Node, err error) JoinBuilder {
	if b.err != nil {
		return b
	}
	if err != nil {
		return JoinBuilder{err: wrap(method, err)}
	}
	var j *node.JoinNode
	if or {
		j, err = b.join.OrWith(p)
	} else {
		j, err = b.join.AndWith(p)
	}
	if err != nil {
		return JoinBuilder{err: wrap(method, err)}
	}
	return JoinBuilder{join: j}
}

// On AND-merges "<lhs> <op> <rhs>" into the join condition.
func (b JoinBuilder) On(lhs any, op string, rhs any) JoinBuilder {
	f, err := newFilter(lhs, op, rhs)
	return b.extend("On", false, f, err)
}

// OnRef AND-merges a column-to-column comparison.
func (b JoinBuilder) OnRef(lhs, op, rhs string) JoinBuilder {
	f, err := newRefFilter(lhs, op, rhs)
	return b.extend("OnRef", false, f, err)
}

// OrOn OR-merges "<lhs> <op> <rhs>" into the join condition.
func (b JoinBuilder) OrOn(lhs any, op string, rhs any) JoinBuilder {
	f, err := newFilter(lhs, op, rhs)
	return b.extend("OrOn", true, f, err)
}

// OrOnRef OR-merges a column-to-column comparison.
func (b JoinBuilder) OrOnRef(lhs, op, rhs string) JoinBuilder {
	f, err := newRefFilter(lhs, op, rhs)
	return b.extend("OrOnRef", true, f, err)
}

// OnGroup AND-merges a parenthesized sub-condition.
func (b JoinBuilder) OnGroup(fn func(ConditionBuilder) ConditionBuilder) JoinBuilder {
	p, err := group(fn)
	return b.extend("OnGroup", false, p, err)
}

// OrOnGroup OR-merges a parenthesized sub-condition.
func (b JoinBuilder) OrOnGroup(fn func(ConditionBuilder) ConditionBuilder) JoinBuilder {
	p, err := group(fn)
	return b.extend("OrOnGroup", true, p, err)
}

// Err returns the first construction error.
func (b JoinBuilder) Err() error { return b.err }

// JoinNode returns the built join.
func (b JoinBuilder) JoinNode() (*node.JoinNode, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.join, nil
}

// Node implements Expression.
func (b JoinBuilder) Node() (node.Node, error) {
	j, err := b.JoinNode()
	if err != nil {
		return nil, err
	}
	return j, nil
}

// Compile compiles the join clause on its own.
func (b JoinBuilder) Compile(d dialect.Dialect) (*compiler.CompiledQuery, error) {
	n, err := b.Node()
	return compile(n, err, d)
}
