package builder

import (
	"fmt"
	"strings"

	"github.com/roach88/querykit/internal/compiler"
	"github.com/roach88/querykit/internal/dialect"
	"github.com/roach88/querykit/internal/node"
)

// SelectQueryBuilder builds a SELECT statement.
type SelectQueryBuilder struct {
	query *node.SelectQueryNode
	err   error
}

// SelectFrom starts a SELECT over the given sources. Strings are tables
// ("person", "public.person", "person as p"); an AliasedExpression is a
// derived table.
func SelectFrom(from ...any) SelectQueryBuilder {
	sources, err := sourceNodes(from)
	if err != nil {
		return SelectQueryBuilder{err: wrap("SelectFrom", err)}
	}
	q, err := node.NewSelectQuery(sources...)
	if err != nil {
		return SelectQueryBuilder{err: wrap("SelectFrom", err)}
	}
	return SelectQueryBuilder{query: q}
}

func sourceNodes(from []any) ([]node.Node, error) {
	sources := make([]node.Node, 0, len(from))
	for _, f := range from {
		var n node.Node
		var err error
		switch x := f.(type) {
		case string:
			n, err = parseTable(x)
		case Expression:
			n, err = x.Node()
		default:
			err = fmt.Errorf("unsupported source %T", f)
		}
		if err != nil {
			return nil, err
		}
		sources = append(sources, n)
	}
	return sources, nil
}

func selectionNodes(sel []any) ([]node.Node, error) {
	nodes := make([]node.Node, 0, len(sel))
	for _, s := range sel {
		var n node.Node
		var err error
		switch x := s.(type) {
		case string:
			n, err = parseSelection(x)
		case Expression:
			n, err = x.Node()
		default:
			err = fmt.Errorf("unsupported selection %T", s)
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// apply runs fn unless an error was already recorded.
func (b SelectQueryBuilder) apply(method string, fn func(q *node.SelectQueryNode) (*node.SelectQueryNode, error)) SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	q, err := fn(b.query)
	if err != nil {
		return SelectQueryBuilder{err: wrap(method, err)}
	}
	return SelectQueryBuilder{query: q}
}

// Select appends selections: "*", "t.*", "col", "t.col", "col as alias", or
// an AliasedExpression / RawBuilder.
func (b SelectQueryBuilder) Select(sel ...any) SelectQueryBuilder {
	return b.apply("Select", func(q *node.SelectQueryNode) (*node.SelectQueryNode, error) {
		nodes, err := selectionNodes(sel)
		if err != nil {
			return nil, err
		}
		return q.WithSelections(nodes...)
	})
}

// Distinct makes the query SELECT DISTINCT.
func (b SelectQueryBuilder) Distinct() SelectQueryBuilder {
	return b.apply("Distinct", func(q *node.SelectQueryNode) (*node.SelectQueryNode, error) {
		return q.WithDistinct(), nil
	})
}

// Join appends a join of table. fn configures the ON condition; a nil fn
// leaves the join unconditioned.
func (b SelectQueryBuilder) Join(joinType node.JoinType, table string, fn func(JoinBuilder) JoinBuilder) SelectQueryBuilder {
	return b.apply("Join", func(q *node.SelectQueryNode) (*node.SelectQueryNode, error) {
		jb := NewJoin(joinType, table)
		if fn != nil {
			jb = fn(jb)
		}
		j, err := jb.JoinNode()
		if err != nil {
			return nil, err
		}
		return q.WithJoin(j)
	})
}

// InnerJoin is shorthand for Join(InnerJoin, table, On(leftRef = rightRef)).
func (b SelectQueryBuilder) InnerJoin(table, leftRef, rightRef string) SelectQueryBuilder {
	return b.Join(node.InnerJoin, table, onRef(leftRef, rightRef))
}

// LeftJoin is InnerJoin for LEFT JOIN.
func (b SelectQueryBuilder) LeftJoin(table, leftRef, rightRef string) SelectQueryBuilder {
	return b.Join(node.LeftJoin, table, onRef(leftRef, rightRef))
}

// RightJoin is InnerJoin for RIGHT JOIN.
func (b SelectQueryBuilder) RightJoin(table, leftRef, rightRef string) SelectQueryBuilder {
	return b.Join(node.RightJoin, table, onRef(leftRef, rightRef))
}

// FullJoin is InnerJoin for FULL JOIN.
func (b SelectQueryBuilder) FullJoin(table, leftRef, rightRef string) SelectQueryBuilder {
	return b.Join(node.FullJoin, table, onRef(leftRef, rightRef))
}

func onRef(leftRef, rightRef string) func(JoinBuilder) JoinBuilder {
	return func(j JoinBuilder) JoinBuilder {
		return j.OnRef(leftRef, "=", rightRef)
	}
}

func (b SelectQueryBuilder) where(method string, or bool, p node.Node, err error) SelectQueryBuilder {
	return b.apply(method, func(q *node.SelectQueryNode) (*node.SelectQueryNode, error) {
		if err != nil {
			return nil, err
		}
		if or {
			return q.WithOrWhere(p)
		}
		return q.WithWhere(p)
	})
}

// Where AND-merges "<lhs> <op> <rhs>" into WHERE.
func (b SelectQueryBuilder) Where(lhs any, op string, rhs any) SelectQueryBuilder {
	f, err := newFilter(lhs, op, rhs)
	return b.where("Where", false, f, err)
}

// OrWhere OR-merges "<lhs> <op> <rhs>" into WHERE.
func (b SelectQueryBuilder) OrWhere(lhs any, op string, rhs any) SelectQueryBuilder {
	f, err := newFilter(lhs, op, rhs)
	return b.where("OrWhere", true, f, err)
}

// WhereRef AND-merges a column-to-column comparison.
func (b SelectQueryBuilder) WhereRef(lhs, op, rhs string) SelectQueryBuilder {
	f, err := newRefFilter(lhs, op, rhs)
	return b.where("WhereRef", false, f, err)
}

// OrWhereRef OR-merges a column-to-column comparison.
func (b SelectQueryBuilder) OrWhereRef(lhs, op, rhs string) SelectQueryBuilder {
	f, err := newRefFilter(lhs, op, rhs)
	return b.where("OrWhereRef", true, f, err)
}

// WhereGroup AND-merges a parenthesized sub-condition.
func (b SelectQueryBuilder) WhereGroup(fn func(ConditionBuilder) ConditionBuilder) SelectQueryBuilder {
	p, err := group(fn)
	return b.where("WhereGroup", false, p, err)
}

// OrWhereGroup OR-merges a parenthesized sub-condition.
func (b SelectQueryBuilder) OrWhereGroup(fn func(ConditionBuilder) ConditionBuilder) SelectQueryBuilder {
	p, err := group(fn)
	return b.where("OrWhereGroup", true, p, err)
}

// WhereRaw AND-merges a raw SQL condition.
func (b SelectQueryBuilder) WhereRaw(sql string, params ...any) SelectQueryBuilder {
	r, err := node.NewRaw(sql, params...)
	return b.where("WhereRaw", false, r, err)
}

// GroupBy appends GROUP BY columns.
func (b SelectQueryBuilder) GroupBy(cols ...string) SelectQueryBuilder {
	return b.apply("GroupBy", func(q *node.SelectQueryNode) (*node.SelectQueryNode, error) {
		nodes := make([]node.Node, 0, len(cols))
		for _, c := range cols {
			col, err := parseColumn(c)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, col)
		}
		return q.WithGroupBy(nodes...)
	})
}

// Having AND-merges "<lhs> <op> <rhs>" into HAVING. lhs is typically a
// RawBuilder such as Raw("count(*)").
func (b SelectQueryBuilder) Having(lhs any, op string, rhs any) SelectQueryBuilder {
	return b.apply("Having", func(q *node.SelectQueryNode) (*node.SelectQueryNode, error) {
		f, err := newFilter(lhs, op, rhs)
		if err != nil {
			return nil, err
		}
		return q.WithHaving(f)
	})
}

// OrHaving OR-merges "<lhs> <op> <rhs>" into HAVING.
func (b SelectQueryBuilder) OrHaving(lhs any, op string, rhs any) SelectQueryBuilder {
	return b.apply("OrHaving", func(q *node.SelectQueryNode) (*node.SelectQueryNode, error) {
		f, err := newFilter(lhs, op, rhs)
		if err != nil {
			return nil, err
		}
		return q.WithOrHaving(f)
	})
}

// OrderBy appends an ORDER BY item. direction is "asc", "desc" or "".
func (b SelectQueryBuilder) OrderBy(col string, direction string) SelectQueryBuilder {
	return b.apply("OrderBy", func(q *node.SelectQueryNode) (*node.SelectQueryNode, error) {
		c, err := parseColumn(col)
		if err != nil {
			return nil, err
		}
		item, err := node.NewOrderByItem(c, node.Direction(strings.ToLower(strings.TrimSpace(direction))))
		if err != nil {
			return nil, err
		}
		return q.WithOrderBy(item)
	})
}

// Limit sets LIMIT. The value is bound as a parameter.
func (b SelectQueryBuilder) Limit(n int64) SelectQueryBuilder {
	return b.apply("Limit", func(q *node.SelectQueryNode) (*node.SelectQueryNode, error) {
		if n < 0 {
			return nil, fmt.Errorf("negative limit %d", n)
		}
		return q.WithLimit(node.NewValue(n)), nil
	})
}

// Offset sets OFFSET. The value is bound as a parameter.
func (b SelectQueryBuilder) Offset(n int64) SelectQueryBuilder {
	return b.apply("Offset", func(q *node.SelectQueryNode) (*node.SelectQueryNode, error) {
		if n < 0 {
			return nil, fmt.Errorf("negative offset %d", n)
		}
		return q.WithOffset(node.NewValue(n)), nil
	})
}

// As aliases the query for use as a derived table or scalar subquery.
func (b SelectQueryBuilder) As(alias string) AliasedExpression {
	return aliased(b, alias)
}

// Err returns the first construction error.
func (b SelectQueryBuilder) Err() error { return b.err }

// SelectNode returns the built statement.
func (b SelectQueryBuilder) SelectNode() (*node.SelectQueryNode, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.query, nil
}

// Node implements Expression.
func (b SelectQueryBuilder) Node() (node.Node, error) {
	q, err := b.SelectNode()
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Compile compiles the statement for d.
func (b SelectQueryBuilder) Compile(d dialect.Dialect) (*compiler.CompiledQuery, error) {
	n, err := b.Node()
	return compile(n, err, d)
}
