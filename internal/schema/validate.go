package schema

import (
	"errors"

	"github.com/roach88/querykit/internal/node"
)

// scope maps the qualifiers visible in one query level to their tables. A
// nil table is a derived table or raw source whose columns are unknown.
type scope struct {
	qualifiers map[string]*Table
	parent     *scope
}

func newScope(parent *scope) *scope {
	return &scope{qualifiers: make(map[string]*Table), parent: parent}
}

// resolve finds qualifier in this scope or an enclosing one.
func (sc *scope) resolve(qualifier string) (*Table, bool) {
	for s := sc; s != nil; s = s.parent {
		if t, ok := s.qualifiers[qualifier]; ok {
			return t, true
		}
	}
	return nil, false
}

// hasColumn searches every table in scope for an unqualified column. Opaque
// sources match anything.
func (sc *scope) hasColumn(column string) bool {
	for s := sc; s != nil; s = s.parent {
		for _, t := range s.qualifiers {
			if t == nil || t.HasColumn(column) {
				return true
			}
		}
	}
	return false
}

// validator accumulates every problem found in a tree.
type validator struct {
	schema *Schema
	errs   []error
}

// Validate checks that every table and column n references exists.
//
// Qualified columns resolve through aliases declared in the same query level
// or an enclosing one (correlated subqueries). Unqualified columns must belong
// to some table in scope; fragments without a FROM (a lone join or filter) are
// checked against the whole schema. Raw fragments are opaque and skipped.
//
// All problems are reported, joined with errors.Join.
func (s *Schema) Validate(n node.Node) error {
	if err := node.Validate(n); err != nil {
		return err
	}
	v := &validator{schema: s}
	v.check(n, nil)
	return errors.Join(v.errs...)
}

func (v *validator) fail(code ErrorCode, format string, args ...any) {
	v.errs = append(v.errs, newError(code, format, args...))
}

func (v *validator) check(n node.Node, sc *scope) {
	switch x := n.(type) {
	case *node.SelectQueryNode:
		v.checkSelect(x, sc)
	case *node.InsertQueryNode:
		v.checkInsert(x, sc)
	case *node.UpdateQueryNode:
		v.checkUpdate(x, sc)
	case *node.DeleteQueryNode:
		v.checkDelete(x, sc)
	case *node.JoinNode:
		if sc == nil {
			sc = v.globalScope()
		}
		v.declare(x.Table(), sc)
		v.checkOptional(x.On(), sc)
	case *node.TableNode:
		v.lookupTable(x)
	case *node.ColumnNode:
		v.checkColumn(x, sc)
	case *node.SelectAllNode:
		v.checkSelectAll(x, sc)
	case *node.RawNode:
		// Opaque.
	default:
		for _, child := range node.Children(n) {
			v.check(child, sc)
		}
	}
}

func (v *validator) checkOptional(n node.Node, sc *scope) {
	if n != nil {
		v.check(n, sc)
	}
}

// globalScope treats every schema table as visible. Used for fragments
// compiled outside a statement.
func (v *validator) globalScope() *scope {
	sc := newScope(nil)
	for name, t := range v.schema.Tables {
		sc.qualifiers[name] = t
	}
	return sc
}

func (v *validator) lookupTable(t *node.TableNode) *Table {
	table := v.schema.Table(t.Table())
	if table == nil {
		v.fail(ErrCodeUnknownTable, "table %q is not in the schema", t.Table())
		return nil
	}
	if t.Schema() != "" && table.Schema != "" && t.Schema() != table.Schema {
		v.fail(ErrCodeUnknownTable, "table %q is in schema %q, not %q", t.Table(), table.Schema, t.Schema())
	}
	return table
}

// declare registers a FROM or JOIN source in sc.
func (v *validator) declare(src node.Node, sc *scope) {
	switch x := src.(type) {
	case *node.TableNode:
		if t := v.lookupTable(x); t != nil {
			sc.qualifiers[x.Table()] = t
		}
	case *node.AliasNode:
		switch inner := x.Node().(type) {
		case *node.TableNode:
			t := v.lookupTable(inner)
			if t == nil {
				// Keep the alias resolvable so one bad table is reported once.
				sc.qualifiers[x.Alias()] = nil
				return
			}
			sc.qualifiers[x.Alias()] = t
		case *node.SelectQueryNode:
			v.checkSelect(inner, sc.parent)
			sc.qualifiers[x.Alias()] = nil
		default:
			sc.qualifiers[x.Alias()] = nil
		}
	}
}

func (v *validator) checkSelect(q *node.SelectQueryNode, parent *scope) {
	sc := newScope(parent)
	for _, src := range q.From() {
		v.declare(src, sc)
	}
	for _, j := range q.Joins() {
		v.declare(j.Table(), sc)
	}

	for _, sel := range q.Selections() {
		v.check(sel, sc)
	}
	for _, j := range q.Joins() {
		v.checkOptional(j.On(), sc)
	}
	v.checkOptional(q.Where(), sc)
	for _, g := range q.GroupBy() {
		v.check(g, sc)
	}
	v.checkOptional(q.Having(), sc)
	for _, o := range q.OrderBy() {
		v.check(o.Expr(), sc)
	}
}

func (v *validator) checkInsert(q *node.InsertQueryNode, parent *scope) {
	sc := newScope(parent)
	t := v.lookupTable(q.Into())
	if t == nil {
		return
	}
	sc.qualifiers[t.Name] = t

	for _, col := range q.Columns() {
		if !t.HasColumn(col.Column()) {
			v.fail(ErrCodeUnknownColumn, "column %q is not in table %q", col.Column(), t.Name)
		}
	}
	for _, row := range q.Rows() {
		for _, value := range row {
			v.check(value, parent)
		}
	}
	for _, r := range q.Returning() {
		v.check(r, sc)
	}
}

func (v *validator) checkUpdate(q *node.UpdateQueryNode, parent *scope) {
	sc := newScope(parent)
	v.declare(q.Table(), sc)

	for _, u := range q.Updates() {
		for _, t := range sc.qualifiers {
			if t != nil && !t.HasColumn(u.Column().Column()) {
				v.fail(ErrCodeUnknownColumn, "column %q is not in table %q", u.Column().Column(), t.Name)
			}
		}
		v.check(u.Value(), sc)
	}
	v.checkOptional(q.Where(), sc)
	for _, r := range q.Returning() {
		v.check(r, sc)
	}
}

func (v *validator) checkDelete(q *node.DeleteQueryNode, parent *scope) {
	sc := newScope(parent)
	v.declare(q.From(), sc)

	v.checkOptional(q.Where(), sc)
	for _, r := range q.Returning() {
		v.check(r, sc)
	}
}

func (v *validator) checkColumn(c *node.ColumnNode, sc *scope) {
	if sc == nil {
		sc = v.globalScope()
	}

	if c.Table() == "" {
		if !sc.hasColumn(c.Column()) {
			v.fail(ErrCodeUnknownColumn, "column %q is not in any table in scope", c.Column())
		}
		return
	}

	t, ok := sc.resolve(c.Table())
	if !ok {
		v.fail(ErrCodeUnknownTable, "%q is not a table or alias in scope (column %q)", c.Table(), c.Column())
		return
	}
	if t != nil && !t.HasColumn(c.Column()) {
		v.fail(ErrCodeUnknownColumn, "column %q is not in table %q", c.Column(), t.Name)
	}
}

func (v *validator) checkSelectAll(s *node.SelectAllNode, sc *scope) {
	if s.Table() == "" {
		return
	}
	if sc == nil {
		sc = v.globalScope()
	}
	if _, ok := sc.resolve(s.Table()); !ok {
		v.fail(ErrCodeUnknownTable, "%q is not a table or alias in scope", s.Table())
	}
}
