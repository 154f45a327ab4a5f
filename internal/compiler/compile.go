// Package compiler renders node trees into parameterized SQL for a dialect.
package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/querykit/internal/dialect"
	"github.com/roach88/querykit/internal/node"
)

// CompiledQuery is the artifact handed to the execution collaborator.
//
// Placeholders in SQL correspond to Parameters strictly by position.
type CompiledQuery struct {
	SQL        string `json:"sql"`
	Parameters []any  `json:"parameters"`
}

// SQLCompiler compiles node trees to parameterized SQL for one dialect.
//
// CRITICAL: Literal values are NEVER interpolated - every one becomes a
// dialect placeholder and is appended to Parameters in traversal order.
//
// An SQLCompiler holds no per-compilation state and may be shared between
// goroutines.
type SQLCompiler struct {
	dialect dialect.Dialect
}

// New creates a compiler for d. A nil dialect selects dialect.Generic.
func New(d dialect.Dialect) *SQLCompiler {
	if d == nil {
		d = dialect.Generic
	}
	return &SQLCompiler{dialect: d}
}

// Dialect returns the dialect the compiler targets.
func (c *SQLCompiler) Dialect() dialect.Dialect {
	return c.dialect
}

// Compile renders root, which may be a statement or any fragment (a lone join,
// a filter, ...).
//
// Compilation either fully succeeds or returns no SQL at all. Compiling the
// same tree twice yields byte-identical output.
func (c *SQLCompiler) Compile(root node.Node) (*CompiledQuery, error) {
	if err := node.Validate(root); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	st := &compilation{dialect: c.dialect, params: []any{}}
	if err := st.compileNode(root); err != nil {
		return nil, fmt.Errorf("compile %s: %w", root.Kind(), err)
	}

	return &CompiledQuery{
		SQL:        st.sql.String(),
		Parameters: st.params,
	}, nil
}

// compilation is the state of a single Compile call.
type compilation struct {
	dialect dialect.Dialect
	sql     strings.Builder
	params  []any
}

func (st *compilation) write(s string) {
	st.sql.WriteString(s)
}

// writeValue emits a placeholder and records v as the next parameter.
func (st *compilation) writeValue(v any) {
	st.params = append(st.params, v)
	st.write(st.dialect.Placeholder(len(st.params)))
}

func (st *compilation) writeIdent(name string) {
	st.write(st.dialect.QuoteIdentifier(name))
}

func (st *compilation) unsupported(kind node.Kind, format string, args ...any) error {
	return &Error{
		Code:    ErrCodeUnsupportedConstruct,
		Dialect: st.dialect.Name(),
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func (st *compilation) require(c dialect.Capability, kind node.Kind, what string) error {
	if !st.dialect.Supports(c) {
		return st.unsupported(kind, "%s is not supported", what)
	}
	return nil
}

// compileNode is the single exhaustive dispatch over node kinds.
func (st *compilation) compileNode(n node.Node) error {
	switch v := n.(type) {
	case *node.TableNode:
		st.compileTable(v)
		return nil
	case *node.ColumnNode:
		st.compileColumn(v)
		return nil
	case *node.SelectAllNode:
		if v.Table() != "" {
			st.writeIdent(v.Table())
			st.write(".")
		}
		st.write("*")
		return nil
	case *node.AliasNode:
		return st.compileAlias(v)
	case *node.ValueNode:
		st.writeValue(v.Value())
		return nil
	case *node.ValueListNode:
		st.compileValueList(v)
		return nil
	case *node.FilterNode:
		return st.compileFilter(v)
	case *node.AndNode:
		return st.compileCombinator(node.KindAnd, v.Left(), v.Right())
	case *node.OrNode:
		return st.compileCombinator(node.KindOr, v.Left(), v.Right())
	case *node.ParensNode:
		return st.compileParens(v.Node())
	case *node.JoinNode:
		return st.compileJoin(v)
	case *node.OrderByItemNode:
		return st.compileOrderByItem(v)
	case *node.ColumnUpdateNode:
		return st.compileColumnUpdate(v)
	case *node.SelectQueryNode:
		return st.compileSelect(v)
	case *node.InsertQueryNode:
		return st.compileInsert(v)
	case *node.UpdateQueryNode:
		return st.compileUpdate(v)
	case *node.DeleteQueryNode:
		return st.compileDelete(v)
	case *node.RawNode:
		return st.compileRaw(v)
	default:
		return node.NewMalformedTreeError(node.KindOf(n), "unsupported node type %T", n)
	}
}

// compileOperand compiles n, parenthesizing subqueries.
func (st *compilation) compileOperand(n node.Node) error {
	if n.Kind() == node.KindSelectQuery {
		return st.compileParens(n)
	}
	return st.compileNode(n)
}

func (st *compilation) compileParens(n node.Node) error {
	st.write("(")
	if err := st.compileNode(n); err != nil {
		return err
	}
	st.write(")")
	return nil
}

func (st *compilation) compileTable(t *node.TableNode) {
	if t.Schema() != "" {
		st.writeIdent(t.Schema())
		st.write(".")
	}
	st.writeIdent(t.Table())
}

func (st *compilation) compileColumn(c *node.ColumnNode) {
	if c.Table() != "" {
		st.writeIdent(c.Table())
		st.write(".")
	}
	st.writeIdent(c.Column())
}

// compileAlias renders "<node> AS <alias>".
func (st *compilation) compileAlias(a *node.AliasNode) error {
	if err := st.compileOperand(a.Node()); err != nil {
		return err
	}
	st.write(" AS ")
	st.writeIdent(a.Alias())
	return nil
}

// compileValueList renders "(?, ?, ...)".
func (st *compilation) compileValueList(l *node.ValueListNode) {
	st.write("(")
	for i, v := range l.Values() {
		if i > 0 {
			st.write(", ")
		}
		st.writeValue(v)
	}
	st.write(")")
}

var operatorKeywords = map[node.Operator]string{
	node.OpIn:       "IN",
	node.OpNotIn:    "NOT IN",
	node.OpLike:     "LIKE",
	node.OpNotLike:  "NOT LIKE",
	node.OpILike:    "ILIKE",
	node.OpNotILike: "NOT ILIKE",
	node.OpIs:       "IS",
	node.OpIsNot:    "IS NOT",
}

// compileFilter renders "<left> <op> <right>".
func (st *compilation) compileFilter(f *node.FilterNode) error {
	op := f.Op()
	if op.IsILike() {
		if err := st.require(dialect.ILike, node.KindFilter, "ILIKE"); err != nil {
			return err
		}
	}

	if err := st.compileOperand(f.Left()); err != nil {
		return err
	}

	keyword, ok := operatorKeywords[op]
	if !ok {
		keyword = string(op)
	}
	st.write(" " + keyword + " ")

	// IS / IS NOT take NULL, TRUE or FALSE as keywords.
	if op.IsNullCheck() {
		if v, ok := f.Right().(*node.ValueNode); ok {
			switch val := v.Value().(type) {
			case nil:
				st.write("NULL")
			case bool:
				if val {
					st.write("TRUE")
				} else {
					st.write("FALSE")
				}
			default:
				return node.NewMalformedTreeError(node.KindFilter, "operator %q with %T operand", op, val)
			}
			return nil
		}
	}

	return st.compileOperand(f.Right())
}

// compileCombinator renders "<left> AND|OR <right>". An operand is
// parenthesized iff it is a combinator of the other kind; same-kind nesting is
// associative and needs no parentheses.
func (st *compilation) compileCombinator(kind node.Kind, left, right node.Node) error {
	keyword := " AND "
	if kind == node.KindOr {
		keyword = " OR "
	}

	if err := st.compileCombinatorOperand(kind, left); err != nil {
		return err
	}
	st.write(keyword)
	return st.compileCombinatorOperand(kind, right)
}

func (st *compilation) compileCombinatorOperand(parent node.Kind, operand node.Node) error {
	k := operand.Kind()
	// Raw fragments are opaque and may hold their own AND / OR.
	if k == node.KindRaw || ((k == node.KindAnd || k == node.KindOr) && k != parent) {
		return st.compileParens(operand)
	}
	return st.compileNode(operand)
}

var joinKeywords = map[node.JoinType]string{
	node.InnerJoin: "INNER JOIN",
	node.LeftJoin:  "LEFT JOIN",
	node.RightJoin: "RIGHT JOIN",
	node.FullJoin:  "FULL JOIN",
}

// compileJoin renders "<keyword> <table> [ON <condition>]".
func (st *compilation) compileJoin(j *node.JoinNode) error {
	keyword, ok := joinKeywords[j.JoinType()]
	if !ok {
		return node.NewMalformedTreeError(node.KindJoin, "unknown join type %q", j.JoinType())
	}

	switch j.JoinType() {
	case node.RightJoin:
		if err := st.require(dialect.RightJoin, node.KindJoin, "RIGHT JOIN"); err != nil {
			return err
		}
	case node.FullJoin:
		if err := st.require(dialect.FullJoin, node.KindJoin, "FULL JOIN"); err != nil {
			return err
		}
	}

	if j.On() == nil {
		capability := dialect.UnconditionedOuterJoin
		if j.JoinType() == node.InnerJoin {
			capability = dialect.UnconditionedInnerJoin
		}
		if err := st.require(capability, node.KindJoin, keyword+" without ON"); err != nil {
			return err
		}
	}

	st.write(keyword + " ")
	if err := st.compileNode(j.Table()); err != nil {
		return err
	}

	if j.On() != nil {
		st.write(" ON ")
		return st.compileNode(j.On())
	}
	return nil
}

func (st *compilation) compileOrderByItem(o *node.OrderByItemNode) error {
	if err := st.compileNode(o.Expr()); err != nil {
		return err
	}
	switch o.Direction() {
	case node.DirectionAsc:
		st.write(" ASC")
	case node.DirectionDesc:
		st.write(" DESC")
	}
	return nil
}

func (st *compilation) compileColumnUpdate(u *node.ColumnUpdateNode) error {
	st.writeIdent(u.Column().Column())
	st.write(" = ")
	return st.compileOperand(u.Value())
}

// compileList renders nodes separated by ", ".
func (st *compilation) compileList(nodes []node.Node) error {
	for i, n := range nodes {
		if i > 0 {
			st.write(", ")
		}
		if err := st.compileNode(n); err != nil {
			return err
		}
	}
	return nil
}

// compileSelect renders a SELECT in fixed clause order.
func (st *compilation) compileSelect(q *node.SelectQueryNode) error {
	st.write("SELECT ")
	if q.Distinct() {
		st.write("DISTINCT ")
	}

	if sel := q.Selections(); len(sel) > 0 {
		if err := st.compileList(sel); err != nil {
			return err
		}
	} else {
		st.write("*")
	}

	if from := q.From(); len(from) > 0 {
		st.write(" FROM ")
		if err := st.compileList(from); err != nil {
			return err
		}
	}

	for _, j := range q.Joins() {
		st.write(" ")
		if err := st.compileJoin(j); err != nil {
			return err
		}
	}

	if err := st.compileWhere(q.Where()); err != nil {
		return err
	}

	if groupBy := q.GroupBy(); len(groupBy) > 0 {
		st.write(" GROUP BY ")
		if err := st.compileList(groupBy); err != nil {
			return err
		}
	}

	if q.Having() != nil {
		st.write(" HAVING ")
		if err := st.compileNode(q.Having()); err != nil {
			return err
		}
	}

	if orderBy := q.OrderBy(); len(orderBy) > 0 {
		st.write(" ORDER BY ")
		for i, item := range orderBy {
			if i > 0 {
				st.write(", ")
			}
			if err := st.compileOrderByItem(item); err != nil {
				return err
			}
		}
	}

	if q.Limit() != nil {
		st.write(" LIMIT ")
		st.writeValue(q.Limit().Value())
	}

	if q.Offset() != nil {
		st.write(" OFFSET ")
		st.writeValue(q.Offset().Value())
	}

	return nil
}

func (st *compilation) compileWhere(where node.Node) error {
	if where == nil {
		return nil
	}
	st.write(" WHERE ")
	return st.compileNode(where)
}

func (st *compilation) compileReturning(kind node.Kind, returning []node.Node) error {
	if len(returning) == 0 {
		return nil
	}
	if err := st.require(dialect.Returning, kind, "RETURNING"); err != nil {
		return err
	}
	st.write(" RETURNING ")
	return st.compileList(returning)
}

// compileInsert renders "INSERT INTO t (c, ...) VALUES (...), (...)".
func (st *compilation) compileInsert(q *node.InsertQueryNode) error {
	st.write("INSERT INTO ")
	st.compileTable(q.Into())

	if cols := q.Columns(); len(cols) > 0 {
		st.write(" (")
		for i, col := range cols {
			if i > 0 {
				st.write(", ")
			}
			st.writeIdent(col.Column())
		}
		st.write(")")
	}

	rows := q.Rows()
	if len(rows) == 0 {
		return st.unsupported(node.KindInsertQuery, "INSERT without VALUES rows")
	}

	st.write(" VALUES ")
	for i, row := range rows {
		if i > 0 {
			st.write(", ")
		}
		st.write("(")
		for j, v := range row {
			if j > 0 {
				st.write(", ")
			}
			if err := st.compileOperand(v); err != nil {
				return err
			}
		}
		st.write(")")
	}

	return st.compileReturning(node.KindInsertQuery, q.Returning())
}

// compileUpdate renders "UPDATE t SET c = v, ... [WHERE ...]".
func (st *compilation) compileUpdate(q *node.UpdateQueryNode) error {
	updates := q.Updates()
	if len(updates) == 0 {
		return st.unsupported(node.KindUpdateQuery, "UPDATE without SET assignments")
	}

	st.write("UPDATE ")
	if err := st.compileNode(q.Table()); err != nil {
		return err
	}

	st.write(" SET ")
	for i, u := range updates {
		if i > 0 {
			st.write(", ")
		}
		if err := st.compileColumnUpdate(u); err != nil {
			return err
		}
	}

	if err := st.compileWhere(q.Where()); err != nil {
		return err
	}

	return st.compileReturning(node.KindUpdateQuery, q.Returning())
}

// compileDelete renders "DELETE FROM t [WHERE ...]".
func (st *compilation) compileDelete(q *node.DeleteQueryNode) error {
	st.write("DELETE FROM ")
	if err := st.compileNode(q.From()); err != nil {
		return err
	}

	if err := st.compileWhere(q.Where()); err != nil {
		return err
	}

	return st.compileReturning(node.KindDeleteQuery, q.Returning())
}

// compileRaw interleaves the raw segments with dialect placeholders.
//
// An escaped "??" is a literal question mark, which a dialect using "?"
// placeholders would read as one more parameter slot.
func (st *compilation) compileRaw(r *node.RawNode) error {
	segments := r.Segments()
	if st.dialect.Placeholder(1) == "?" {
		for _, seg := range segments {
			if strings.Contains(seg, "?") {
				return st.unsupported(node.KindRaw, "literal question mark in raw sql: %s uses ? placeholders", st.dialect.Name())
			}
		}
	}

	params := r.Parameters()
	for i, seg := range segments {
		st.write(seg)
		if i < len(params) {
			st.writeValue(params[i])
		}
	}
	return nil
}
