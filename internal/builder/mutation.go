package builder

import (
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/querykit/internal/compiler"
	"github.com/roach88/querykit/internal/dialect"
	"github.com/roach88/querykit/internal/node"
)

// returningNodes parses RETURNING entries, which follow the selection
// syntax.
func returningNodes(cols []string) ([]node.Node, error) {
	nodes := make([]node.Node, 0, len(cols))
	for _, c := range cols {
		n, err := parseSelection(c)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// valueOperand converts an inserted or assigned value. Unlike rightOperand a
// slice is a single value, not a list.
func valueOperand(v any) (node.Node, error) {
	switch x := v.(type) {
	case Reference:
		return parseColumn(string(x))
	case node.Node:
		return x, nil
	case Expression:
		return x.Node()
	}
	return node.NewValue(v), nil
}

// InsertQueryBuilder builds an INSERT statement.
type InsertQueryBuilder struct {
	query *node.InsertQueryNode
	err   error
}

// InsertInto starts an INSERT into table ("table" or "schema.table").
func InsertInto(table string) InsertQueryBuilder {
	t, err := parseTableName(table)
	if err != nil {
		return InsertQueryBuilder{err: wrap("InsertInto", err)}
	}
	q, err := node.NewInsertQuery(t)
	if err != nil {
		return InsertQueryBuilder{err: wrap("InsertInto", err)}
	}
	return InsertQueryBuilder{query: q}
}

func (b InsertQueryBuilder) apply(method string, fn func(q *node.InsertQueryNode) (*node.InsertQueryNode, error)) InsertQueryBuilder {
	if b.err != nil {
		return b
	}
	q, err := fn(b.query)
	if err != nil {
		return InsertQueryBuilder{err: wrap(method, err)}
	}
	return InsertQueryBuilder{query: q}
}

// Columns sets the column list.
func (b InsertQueryBuilder) Columns(cols ...string) InsertQueryBuilder {
	return b.apply("Columns", func(q *node.InsertQueryNode) (*node.InsertQueryNode, error) {
		nodes := make([]*node.ColumnNode, 0, len(cols))
		for _, c := range cols {
			col, err := node.NewColumn(c)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, col)
		}
		return q.WithColumns(nodes...)
	})
}

// Row appends one VALUES row, positionally matching Columns.
func (b InsertQueryBuilder) Row(values ...any) InsertQueryBuilder {
	return b.apply("Row", func(q *node.InsertQueryNode) (*node.InsertQueryNode, error) {
		row := make([]node.Node, 0, len(values))
		for _, v := range values {
			n, err := valueOperand(v)
			if err != nil {
				return nil, err
			}
			row = append(row, n)
		}
		return q.WithRow(row...)
	})
}

// Values appends one row given as column → value. If no columns are set yet
// they become the map's keys in sorted order; otherwise the keys must match
// the existing columns exactly.
func (b InsertQueryBuilder) Values(values map[string]any) InsertQueryBuilder {
	if b.err != nil {
		return b
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := b
	cols := b.query.Columns()
	if len(cols) == 0 {
		next = b.Columns(keys...)
		if next.err != nil {
			return next
		}
		cols = next.query.Columns()
	}

	row := make([]any, 0, len(cols))
	for _, col := range cols {
		v, ok := values[col.Column()]
		if !ok {
			return InsertQueryBuilder{err: wrap("Values", fmt.Errorf("missing value for column %q", col.Column()))}
		}
		row = append(row, v)
	}
	if len(values) != len(cols) {
		extra := slices.DeleteFunc(keys, func(k string) bool {
			return slices.ContainsFunc(cols, func(c *node.ColumnNode) bool { return c.Column() == k })
		})
		return InsertQueryBuilder{err: wrap("Values", fmt.Errorf("unknown column(s) %v", extra))}
	}
	return next.Row(row...)
}

// Returning appends RETURNING entries.
func (b InsertQueryBuilder) Returning(cols ...string) InsertQueryBuilder {
	return b.apply("Returning", func(q *node.InsertQueryNode) (*node.InsertQueryNode, error) {
		nodes, err := returningNodes(cols)
		if err != nil {
			return nil, err
		}
		return q.WithReturning(nodes...)
	})
}

// Err returns the first construction error.
func (b InsertQueryBuilder) Err() error { return b.err }

// Node implements Expression.
func (b InsertQueryBuilder) Node() (node.Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.query, nil
}

// Compile compiles the statement for d.
func (b InsertQueryBuilder) Compile(d dialect.Dialect) (*compiler.CompiledQuery, error) {
	n, err := b.Node()
	return compile(n, err, d)
}

// UpdateQueryBuilder builds an UPDATE statement.
type UpdateQueryBuilder struct {
	query *node.UpdateQueryNode
	err   error
}

// Update starts an UPDATE of table ("table", "schema.table", optionally
// "as alias").
func Update(table string) UpdateQueryBuilder {
	t, err := parseTable(table)
	if err != nil {
		return UpdateQueryBuilder{err: wrap("Update", err)}
	}
	q, err := node.NewUpdateQuery(t)
	if err != nil {
		return UpdateQueryBuilder{err: wrap("Update", err)}
	}
	return UpdateQueryBuilder{query: q}
}

func (b UpdateQueryBuilder) apply(method string, fn func(q *node.UpdateQueryNode) (*node.UpdateQueryNode, error)) UpdateQueryBuilder {
	if b.err != nil {
		return b
	}
	q, err := fn(b.query)
	if err != nil {
		return UpdateQueryBuilder{err: wrap(method, err)}
	}
	return UpdateQueryBuilder{query: q}
}

// Set appends "column = value".
func (b UpdateQueryBuilder) Set(column string, value any) UpdateQueryBuilder {
	return b.apply("Set", func(q *node.UpdateQueryNode) (*node.UpdateQueryNode, error) {
		col, err := node.NewColumn(column)
		if err != nil {
			return nil, err
		}
		v, err := valueOperand(value)
		if err != nil {
			return nil, err
		}
		u, err := node.NewColumnUpdate(col, v)
		if err != nil {
			return nil, err
		}
		return q.WithUpdates(u)
	})
}

func (b UpdateQueryBuilder) where(method string, or bool, p node.Node, err error) UpdateQueryBuilder {
	return b.apply(method, func(q *node.UpdateQueryNode) (*node.UpdateQueryNode, error) {
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
func (b UpdateQueryBuilder) Where(lhs any, op string, rhs any) UpdateQueryBuilder {
	f, err := newFilter(lhs, op, rhs)
	return b.where("Where", false, f, err)
}

// OrWhere OR-merges "<lhs> <op> <rhs>" into WHERE.
func (b UpdateQueryBuilder) OrWhere(lhs any, op string, rhs any) UpdateQueryBuilder {
	f, err := newFilter(lhs, op, rhs)
	return b.where("OrWhere", true, f, err)
}

// WhereGroup AND-merges a parenthesized sub-condition.
func (b UpdateQueryBuilder) WhereGroup(fn func(ConditionBuilder) ConditionBuilder) UpdateQueryBuilder {
	p, err := group(fn)
	return b.where("WhereGroup", false, p, err)
}

// OrWhereGroup OR-merges a parenthesized sub-condition.
func (b UpdateQueryBuilder) OrWhereGroup(fn func(ConditionBuilder) ConditionBuilder) UpdateQueryBuilder {
	p, err := group(fn)
	return b.where("OrWhereGroup", true, p, err)
}

// WhereRef AND-merges a column-to-column comparison.
func (b UpdateQueryBuilder) WhereRef(lhs, op, rhs string) UpdateQueryBuilder {
	f, err := newRefFilter(lhs, op, rhs)
	return b.where("WhereRef", false, f, err)
}

// WhereRaw AND-merges a raw SQL condition.
func (b UpdateQueryBuilder) WhereRaw(sql string, params ...any) UpdateQueryBuilder {
	r, err := node.NewRaw(sql, params...)
	return b.where("WhereRaw", false, r, err)
}

// Returning appends RETURNING entries.
func (b UpdateQueryBuilder) Returning(cols ...string) UpdateQueryBuilder {
	return b.apply("Returning", func(q *node.UpdateQueryNode) (*node.UpdateQueryNode, error) {
		nodes, err := returningNodes(cols)
		if err != nil {
			return nil, err
		}
		return q.WithReturning(nodes...)
	})
}

// Err returns the first construction error.
func (b UpdateQueryBuilder) Err() error { return b.err }

// Node implements Expression.
func (b UpdateQueryBuilder) Node() (node.Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.query, nil
}

// Compile compiles the statement for d.
func (b UpdateQueryBuilder) Compile(d dialect.Dialect) (*compiler.CompiledQuery, error) {
	n, err := b.Node()
	return compile(n, err, d)
}

// DeleteQueryBuilder builds a DELETE statement.
type DeleteQueryBuilder struct {
	query *node.DeleteQueryNode
	err   error
}

// DeleteFrom starts a DELETE from table.
func DeleteFrom(table string) DeleteQueryBuilder {
	t, err := parseTable(table)
	if err != nil {
		return DeleteQueryBuilder{err: wrap("DeleteFrom", err)}
	}
	q, err := node.NewDeleteQuery(t)
	if err != nil {
		return DeleteQueryBuilder{err: wrap("DeleteFrom", err)}
	}
	return DeleteQueryBuilder{query: q}
}

func (b DeleteQueryBuilder) apply(method string, fn func(q *node.DeleteQueryNode) (*node.DeleteQueryNode, error)) DeleteQueryBuilder {
	if b.err != nil {
		return b
	}
	q, err := fn(b.query)
	if err != nil {
		return DeleteQueryBuilder{err: wrap(method, err)}
	}
	return DeleteQueryBuilder{query: q}
}

func (b DeleteQueryBuilder) where(method string, or bool, p node.Node, err error) DeleteQueryBuilder {
	return b.apply(method, func(q *node.DeleteQueryNode) (*node.DeleteQueryNode, error) {
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
func (b DeleteQueryBuilder) Where(lhs any, op string, rhs any) DeleteQueryBuilder {
	f, err := newFilter(lhs, op, rhs)
	return b.where("Where", false, f, err)
}

// OrWhere OR-merges "<lhs> <op> <rhs>" into WHERE.
func (b DeleteQueryBuilder) OrWhere(lhs any, op string, rhs any) DeleteQueryBuilder {
	f, err := newFilter(lhs, op, rhs)
	return b.where("OrWhere", true, f, err)
}

// WhereGroup AND-merges a parenthesized sub-condition.
func (b DeleteQueryBuilder) WhereGroup(fn func(ConditionBuilder) ConditionBuilder) DeleteQueryBuilder {
	p, err := group(fn)
	return b.where("WhereGroup", false, p, err)
}

// OrWhereGroup OR-merges a parenthesized sub-condition.
func (b DeleteQueryBuilder) OrWhereGroup(fn func(ConditionBuilder) ConditionBuilder) DeleteQueryBuilder {
	p, err := group(fn)
	return b.where("OrWhereGroup", true, p, err)
}

// WhereRef AND-merges a column-to-column comparison.
func (b DeleteQueryBuilder) WhereRef(lhs, op, rhs string) DeleteQueryBuilder {
	f, err := newRefFilter(lhs, op, rhs)
	return b.where("WhereRef", false, f, err)
}

// WhereRaw AND-merges a raw SQL condition.
func (b DeleteQueryBuilder) WhereRaw(sql string, params ...any) DeleteQueryBuilder {
	r, err := node.NewRaw(sql, params...)
	return b.where("WhereRaw", false, r, err)
}

// Returning appends RETURNING entries.
func (b DeleteQueryBuilder) Returning(cols ...string) DeleteQueryBuilder {
	return b.apply("Returning", func(q *node.DeleteQueryNode) (*node.DeleteQueryNode, error) {
		nodes, err := returningNodes(cols)
		if err != nil {
			return nil, err
		}
		return q.WithReturning(nodes...)
	})
}

// Err returns the first construction error.
func (b DeleteQueryBuilder) Err() error { return b.err }

// Node implements Expression.
func (b DeleteQueryBuilder) Node() (node.Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.query, nil
}

// Compile compiles the statement for d.
func (b DeleteQueryBuilder) Compile(d dialect.Dialect) (*compiler.CompiledQuery, error) {
	n, err := b.Node()
	return compile(n, err, d)
}

// RawBuilder wraps caller-supplied SQL. It can be compiled on its own or used
// as an operand, selection or condition.
type RawBuilder struct {
	raw *node.RawNode
	err error
}

// Raw creates a raw fragment. Each "?" in sql is bound to the next parameter;
// "??" is a literal question mark, which compiles only for dialects with
// numbered placeholders.
func Raw(sql string, params ...any) RawBuilder {
	r, err := node.NewRaw(sql, params...)
	if err != nil {
		return RawBuilder{err: wrap("Raw", err)}
	}
	return RawBuilder{raw: r}
}

// As aliases the fragment for use as a selection.
func (b RawBuilder) As(alias string) AliasedExpression {
	return aliased(b, alias)
}

// Err returns the construction error, if any.
func (b RawBuilder) Err() error { return b.err }

// Node implements Expression.
func (b RawBuilder) Node() (node.Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.raw, nil
}

// Compile compiles the fragment for d.
func (b RawBuilder) Compile(d dialect.Dialect) (*compiler.CompiledQuery, error) {
	n, err := b.Node()
	return compile(n, err, d)
}
