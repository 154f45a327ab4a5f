package node

import (
	"strings"
)

// TableNode references a table, optionally qualified by a schema.
type TableNode struct {
	schema string
	table  string
}

func (*TableNode) Kind() Kind { return KindTable }
func (*TableNode) operationNode() {}

// NewTable creates a reference to an unqualified table.
func NewTable(table string) (*TableNode, error) {
	return NewSchemaTable("", table)
}

// NewSchemaTable creates a reference to schema.table. An empty schema means
// the table is unqualified.
func NewSchemaTable(schema, table string) (*TableNode, error) {
	if strings.TrimSpace(table) == "" {
		return nil, invalidNode(KindTable, "table name is empty")
	}
	return &TableNode{schema: schema, table: table}, nil
}

// Schema returns the schema qualifier, or "" if unqualified.
func (t *TableNode) Schema() string { return t.schema }

// Table returns the table name.
func (t *TableNode) Table() string { return t.table }

// ColumnNode references a column, optionally qualified by a table or alias.
type ColumnNode struct {
	table  string
	column string
}

func (*ColumnNode) Kind() Kind { return KindColumn }
func (*ColumnNode) operationNode() {}

// NewColumn creates an unqualified column reference.
func NewColumn(column string) (*ColumnNode, error) {
	return NewReference("", column)
}

// NewReference creates a column reference qualified by table (a table name or
// an alias). An empty table means the column is unqualified.
func NewReference(table, column string) (*ColumnNode, error) {
	if strings.TrimSpace(column) == "" {
		return nil, invalidNode(KindColumn, "column name is empty")
	}
	if column == "*" {
		return nil, invalidNode(KindColumn, "use NewSelectAll for *")
	}
	return &ColumnNode{table: table, column: column}, nil
}

// Table returns the qualifier, or "" if unqualified.
func (c *ColumnNode) Table() string { return c.table }

// Column returns the column name.
func (c *ColumnNode) Column() string { return c.column }

// SelectAllNode is "*" or "table.*" in a selection list.
type SelectAllNode struct {
	table string
}

func (*SelectAllNode) Kind() Kind { return KindSelectAll }
func (*SelectAllNode) operationNode() {}

// NewSelectAll creates "*" (table == "") or "table.*".
func NewSelectAll(table string) *SelectAllNode {
	return &SelectAllNode{table: table}
}

// Table returns the qualifier, or "" for a bare "*".
func (s *SelectAllNode) Table() string { return s.table }

// AliasNode names a table, column, subquery or raw fragment.
//
// Rendered as "<node> AS <alias>".
type AliasNode struct {
	node  Node
	alias string
}

func (*AliasNode) Kind() Kind { return KindAlias }
func (*AliasNode) operationNode() {}

// NewAlias wraps n with an alias. n must be a table, column, select query or
// raw node.
func NewAlias(n Node, alias string) (*AliasNode, error) {
	if !kindIn(n, KindTable, KindColumn, KindSelectQuery, KindRaw) {
		return nil, invalidNode(KindAlias, "cannot alias %s", describe(n))
	}
	if strings.TrimSpace(alias) == "" {
		return nil, invalidNode(KindAlias, "alias is empty")
	}
	return &AliasNode{node: n, alias: alias}, nil
}

// Node returns the aliased node.
func (a *AliasNode) Node() Node { return a.node }

// Alias returns the alias name.
func (a *AliasNode) Alias() string { return a.alias }

// ValueNode is a literal value. The compiler never renders it as text; it
// becomes a placeholder and the value is appended to the parameter list.
type ValueNode struct {
	value any
}

func (*ValueNode) Kind() Kind { return KindValue }
func (*ValueNode) operationNode() {}

// NewValue wraps a literal value.
func NewValue(v any) *ValueNode {
	return &ValueNode{value: v}
}

// Value returns the literal.
func (v *ValueNode) Value() any { return v.value }

// ValueListNode is a parenthesised list of literals, e.g. the right side of IN.
type ValueListNode struct {
	values []any
}

func (*ValueListNode) Kind() Kind { return KindValueList }
func (*ValueListNode) operationNode() {}

// NewValueList creates a non-empty list of literals.
func NewValueList(values ...any) (*ValueListNode, error) {
	if len(values) == 0 {
		return nil, invalidNode(KindValueList, "value list is empty")
	}
	return &ValueListNode{values: cloneSlice(values)}, nil
}

// Values returns a copy of the literals.
func (l *ValueListNode) Values() []any { return cloneSlice(l.values) }

// Len returns the number of literals.
func (l *ValueListNode) Len() int { return len(l.values) }

// RawNode is caller-supplied SQL passed through verbatim.
//
// Every "?" in the SQL is a parameter slot; "??" is a literal question mark.
// The compiler replaces each slot with the dialect's placeholder, so raw SQL
// written with "?" works unchanged against "$n" dialects. A literal question
// mark only compiles for "$n" dialects; the others reject it with
// UNSUPPORTED_CONSTRUCT.
//
// Combined with other conditions, a raw node is always parenthesized.
type RawNode struct {
	sql        string
	segments   []string
	parameters []any
}

func (*RawNode) Kind() Kind { return KindRaw }
func (*RawNode) operationNode() {}

// NewRaw creates a raw fragment. The number of "?" slots must equal the
// number of parameters.
func NewRaw(sql string, parameters ...any) (*RawNode, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, invalidNode(KindRaw, "raw sql is empty")
	}
	segments := splitRaw(sql)
	if slots := len(segments) - 1; slots != len(parameters) {
		return nil, invalidNode(KindRaw, "raw sql has %d parameter slot(s) but %d parameter(s) were given", slots, len(parameters))
	}
	return &RawNode{
		sql:        sql,
		segments:   segments,
		parameters: cloneSlice(parameters),
	}, nil
}

// SQL returns the raw SQL as supplied.
func (r *RawNode) SQL() string { return r.sql }

// Segments returns the SQL text between parameter slots, with "??" already
// unescaped. len(Segments()) == len(Parameters())+1.
func (r *RawNode) Segments() []string { return cloneSlice(r.segments) }

// Parameters returns a copy of the bound parameters.
func (r *RawNode) Parameters() []any { return cloneSlice(r.parameters) }

// splitRaw splits sql on single "?" characters.
func splitRaw(sql string) []string {
	var segments []string
	var cur strings.Builder
	for i := 0; i < len(sql); i++ {
		if sql[i] != '?' {
			cur.WriteByte(sql[i])
			continue
		}
		if i+1 < len(sql) && sql[i+1] == '?' {
			cur.WriteByte('?')
			i++
			continue
		}
		segments = append(segments, cur.String())
		cur.Reset()
	}
	return append(segments, cur.String())
}

// describe names a node for error messages.
func describe(n Node) string {
	if isNil(n) {
		return "nil node"
	}
	return string(n.Kind())
}
