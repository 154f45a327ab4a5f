package node

// Direction is the sort direction of an ORDER BY item.
type Direction string

const (
	// DirectionDefault leaves the direction to the database.
	DirectionDefault Direction = ""
	DirectionAsc     Direction = "asc"
	DirectionDesc    Direction = "desc"
)

// OrderByItemNode is one ORDER BY item.
type OrderByItemNode struct {
	expr      Node
	direction Direction
}

func (*OrderByItemNode) Kind() Kind { return KindOrderByItem }
func (*OrderByItemNode) operationNode() {}

// NewOrderByItem creates an ORDER BY item over a column or raw fragment.
func NewOrderByItem(expr Node, direction Direction) (*OrderByItemNode, error) {
	if !kindIn(expr, KindColumn, KindRaw) {
		return nil, invalidNode(KindOrderByItem, "cannot order by %s", describe(expr))
	}
	switch direction {
	case DirectionDefault, DirectionAsc, DirectionDesc:
	default:
		return nil, invalidNode(KindOrderByItem, "unknown direction %q", direction)
	}
	return &OrderByItemNode{expr: expr, direction: direction}, nil
}

// Expr returns the ordered expression.
func (o *OrderByItemNode) Expr() Node { return o.expr }

// Direction returns the sort direction.
func (o *OrderByItemNode) Direction() Direction { return o.direction }

// ColumnUpdateNode is one "column = value" assignment of an UPDATE.
type ColumnUpdateNode struct {
	column *ColumnNode
	value  Node
}

func (*ColumnUpdateNode) Kind() Kind { return KindColumnUpdate }
func (*ColumnUpdateNode) operationNode() {}

// NewColumnUpdate creates an assignment. value is a literal, a column, a raw
// fragment or a subquery.
func NewColumnUpdate(column *ColumnNode, value Node) (*ColumnUpdateNode, error) {
	if column == nil {
		return nil, invalidNode(KindColumnUpdate, "column is nil")
	}
	if !kindIn(value, KindValue, KindColumn, KindRaw, KindSelectQuery) {
		return nil, invalidNode(KindColumnUpdate, "invalid value: %s", describe(value))
	}
	return &ColumnUpdateNode{column: column, value: value}, nil
}

// Column returns the assigned column.
func (u *ColumnUpdateNode) Column() *ColumnNode { return u.column }

// Value returns the assigned value.
func (u *ColumnUpdateNode) Value() Node { return u.value }

// SelectQueryNode is the root of a SELECT statement.
//
// Clause order when compiled: selections, from, joins, where, group by,
// having, order by, limit, offset.
type SelectQueryNode struct {
	distinct   bool
	selections []Node
	from       []Node
	joins      []*JoinNode
	where      Node
	groupBy    []Node
	having     Node
	orderBy    []*OrderByItemNode
	limit      *ValueNode
	offset     *ValueNode
}

func (*SelectQueryNode) Kind() Kind { return KindSelectQuery }
func (*SelectQueryNode) operationNode() {}

// NewSelectQuery creates a SELECT over the given sources. Sources are tables,
// or aliased tables, subqueries or raw fragments.
func NewSelectQuery(from ...Node) (*SelectQueryNode, error) {
	if err := checkSources(from); err != nil {
		return nil, err
	}
	return &SelectQueryNode{from: cloneSlice(from)}, nil
}

// IsSource reports whether n may appear in a FROM list.
func IsSource(n Node) bool {
	if kindIn(n, KindTable) {
		return true
	}
	if a, ok := n.(*AliasNode); ok && a != nil {
		return kindIn(a.node, KindTable, KindSelectQuery, KindRaw)
	}
	return false
}

// IsSelection reports whether n may appear in a selection or RETURNING list.
func IsSelection(n Node) bool {
	if kindIn(n, KindColumn, KindSelectAll, KindRaw) {
		return true
	}
	if a, ok := n.(*AliasNode); ok && a != nil {
		return kindIn(a.node, KindColumn, KindSelectQuery, KindRaw)
	}
	return false
}

func checkSources(from []Node) error {
	for i, n := range from {
		if !IsSource(n) {
			return invalidNode(KindSelectQuery, "from[%d]: invalid source %s", i, describe(n))
		}
	}
	return nil
}

func checkSelections(kind Kind, sel []Node) error {
	for i, n := range sel {
		if !IsSelection(n) {
			return invalidNode(kind, "selection[%d]: invalid selection %s", i, describe(n))
		}
	}
	return nil
}

func (q *SelectQueryNode) clone() *SelectQueryNode {
	c := *q
	return &c
}

// WithDistinct returns a copy rendered as SELECT DISTINCT.
func (q *SelectQueryNode) WithDistinct() *SelectQueryNode {
	c := q.clone()
	c.distinct = true
	return c
}

// WithSelections returns a copy with sel appended to the selection list.
func (q *SelectQueryNode) WithSelections(sel ...Node) (*SelectQueryNode, error) {
	if err := checkSelections(KindSelectQuery, sel); err != nil {
		return nil, err
	}
	c := q.clone()
	c.selections = concat(q.selections, sel)
	return c, nil
}

// WithFrom returns a copy with from appended to the FROM list.
func (q *SelectQueryNode) WithFrom(from ...Node) (*SelectQueryNode, error) {
	if err := checkSources(from); err != nil {
		return nil, err
	}
	c := q.clone()
	c.from = concat(q.from, from)
	return c, nil
}

// WithJoin returns a copy with j appended to the joins.
func (q *SelectQueryNode) WithJoin(j *JoinNode) (*SelectQueryNode, error) {
	if j == nil {
		return nil, invalidJoin("join is nil")
	}
	c := q.clone()
	c.joins = concat(q.joins, []*JoinNode{j})
	return c, nil
}

// WithWhere returns a copy whose WHERE condition is AND-merged with p.
func (q *SelectQueryNode) WithWhere(p Node) (*SelectQueryNode, error) {
	where, err := AndWith(q.where, p)
	if err != nil {
		return nil, err
	}
	c := q.clone()
	c.where = where
	return c, nil
}

// WithOrWhere returns a copy whose WHERE condition is OR-merged with p.
func (q *SelectQueryNode) WithOrWhere(p Node) (*SelectQueryNode, error) {
	where, err := OrWith(q.where, p)
	if err != nil {
		return nil, err
	}
	c := q.clone()
	c.where = where
	return c, nil
}

// WithGroupBy returns a copy with cols appended to GROUP BY.
func (q *SelectQueryNode) WithGroupBy(cols ...Node) (*SelectQueryNode, error) {
	for i, n := range cols {
		if !kindIn(n, KindColumn, KindRaw) {
			return nil, invalidNode(KindSelectQuery, "group by[%d]: cannot group by %s", i, describe(n))
		}
	}
	c := q.clone()
	c.groupBy = concat(q.groupBy, cols)
	return c, nil
}

// WithHaving returns a copy whose HAVING condition is AND-merged with p.
func (q *SelectQueryNode) WithHaving(p Node) (*SelectQueryNode, error) {
	having, err := AndWith(q.having, p)
	if err != nil {
		return nil, err
	}
	c := q.clone()
	c.having = having
	return c, nil
}

// WithOrHaving returns a copy whose HAVING condition is OR-merged with p.
func (q *SelectQueryNode) WithOrHaving(p Node) (*SelectQueryNode, error) {
	having, err := OrWith(q.having, p)
	if err != nil {
		return nil, err
	}
	c := q.clone()
	c.having = having
	return c, nil
}

// WithOrderBy returns a copy with items appended to ORDER BY.
func (q *SelectQueryNode) WithOrderBy(items ...*OrderByItemNode) (*SelectQueryNode, error) {
	for i, item := range items {
		if item == nil {
			return nil, invalidNode(KindSelectQuery, "order by[%d] is nil", i)
		}
	}
	c := q.clone()
	c.orderBy = concat(q.orderBy, items)
	return c, nil
}

// WithLimit returns a copy with the given LIMIT, replacing any previous one.
func (q *SelectQueryNode) WithLimit(limit *ValueNode) *SelectQueryNode {
	c := q.clone()
	c.limit = limit
	return c
}

// WithOffset returns a copy with the given OFFSET, replacing any previous one.
func (q *SelectQueryNode) WithOffset(offset *ValueNode) *SelectQueryNode {
	c := q.clone()
	c.offset = offset
	return c
}

// Distinct reports whether the query is SELECT DISTINCT.
func (q *SelectQueryNode) Distinct() bool { return q.distinct }

// Selections returns a copy of the selection list. Empty means "*".
func (q *SelectQueryNode) Selections() []Node { return cloneSlice(q.selections) }

// From returns a copy of the FROM list.
func (q *SelectQueryNode) From() []Node { return cloneSlice(q.from) }

// Joins returns a copy of the joins in declaration order.
func (q *SelectQueryNode) Joins() []*JoinNode { return cloneSlice(q.joins) }

// Where returns the WHERE condition, or nil.
func (q *SelectQueryNode) Where() Node { return q.where }

// GroupBy returns a copy of the GROUP BY list.
func (q *SelectQueryNode) GroupBy() []Node { return cloneSlice(q.groupBy) }

// Having returns the HAVING condition, or nil.
func (q *SelectQueryNode) Having() Node { return q.having }

// OrderBy returns a copy of the ORDER BY items.
func (q *SelectQueryNode) OrderBy() []*OrderByItemNode { return cloneSlice(q.orderBy) }

// Limit returns the LIMIT value, or nil.
func (q *SelectQueryNode) Limit() *ValueNode { return q.limit }

// Offset returns the OFFSET value, or nil.
func (q *SelectQueryNode) Offset() *ValueNode { return q.offset }

// InsertQueryNode is the root of an INSERT statement.
type InsertQueryNode struct {
	into      *TableNode
	columns   []*ColumnNode
	rows      [][]Node
	returning []Node
}

func (*InsertQueryNode) Kind() Kind { return KindInsertQuery }
func (*InsertQueryNode) operationNode() {}

// NewInsertQuery creates an INSERT into table.
func NewInsertQuery(into *TableNode) (*InsertQueryNode, error) {
	if into == nil {
		return nil, invalidNode(KindInsertQuery, "target table is nil")
	}
	return &InsertQueryNode{into: into}, nil
}

func (q *InsertQueryNode) clone() *InsertQueryNode {
	c := *q
	return &c
}

// WithColumns returns a copy with the column list set. Columns can only be
// set before the first row is added.
func (q *InsertQueryNode) WithColumns(cols ...*ColumnNode) (*InsertQueryNode, error) {
	if len(q.rows) > 0 {
		return nil, invalidNode(KindInsertQuery, "columns cannot change after rows were added")
	}
	if len(cols) == 0 {
		return nil, invalidNode(KindInsertQuery, "column list is empty")
	}
	for i, col := range cols {
		if col == nil {
			return nil, invalidNode(KindInsertQuery, "column[%d] is nil", i)
		}
		if col.table != "" {
			return nil, invalidNode(KindInsertQuery, "column[%d] %q must not be qualified", i, col.column)
		}
	}
	c := q.clone()
	c.columns = cloneSlice(cols)
	return c, nil
}

// WithRow returns a copy with one more VALUES row. The row must have one
// value per column; values are literals, raw fragments or subqueries.
func (q *InsertQueryNode) WithRow(values ...Node) (*InsertQueryNode, error) {
	if len(q.columns) == 0 {
		return nil, invalidNode(KindInsertQuery, "columns must be set before rows")
	}
	if len(values) != len(q.columns) {
		return nil, invalidNode(KindInsertQuery, "row has %d value(s), want %d", len(values), len(q.columns))
	}
	for i, v := range values {
		if !kindIn(v, KindValue, KindRaw, KindSelectQuery) {
			return nil, invalidNode(KindInsertQuery, "value[%d]: invalid value %s", i, describe(v))
		}
	}
	c := q.clone()
	c.rows = concat(q.rows, [][]Node{cloneSlice(values)})
	return c, nil
}

// WithReturning returns a copy with sel appended to RETURNING.
func (q *InsertQueryNode) WithReturning(sel ...Node) (*InsertQueryNode, error) {
	if err := checkSelections(KindInsertQuery, sel); err != nil {
		return nil, err
	}
	c := q.clone()
	c.returning = concat(q.returning, sel)
	return c, nil
}

// Into returns the target table.
func (q *InsertQueryNode) Into() *TableNode { return q.into }

// Columns returns a copy of the column list.
func (q *InsertQueryNode) Columns() []*ColumnNode { return cloneSlice(q.columns) }

// Rows returns a copy of the VALUES rows.
func (q *InsertQueryNode) Rows() [][]Node {
	rows := make([][]Node, len(q.rows))
	for i, row := range q.rows {
		rows[i] = cloneSlice(row)
	}
	return rows
}

// Returning returns a copy of the RETURNING list.
func (q *InsertQueryNode) Returning() []Node { return cloneSlice(q.returning) }

// UpdateQueryNode is the root of an UPDATE statement.
type UpdateQueryNode struct {
	table     Node
	updates   []*ColumnUpdateNode
	where     Node
	returning []Node
}

func (*UpdateQueryNode) Kind() Kind { return KindUpdateQuery }
func (*UpdateQueryNode) operationNode() {}

// NewUpdateQuery creates an UPDATE of a table or aliased table.
func NewUpdateQuery(table Node) (*UpdateQueryNode, error) {
	if !IsJoinTable(table) {
		return nil, invalidNode(KindUpdateQuery, "update target must be a table or aliased table, got %s", describe(table))
	}
	return &UpdateQueryNode{table: table}, nil
}

func (q *UpdateQueryNode) clone() *UpdateQueryNode {
	c := *q
	return &c
}

// WithUpdates returns a copy with updates appended to SET.
func (q *UpdateQueryNode) WithUpdates(updates ...*ColumnUpdateNode) (*UpdateQueryNode, error) {
	for i, u := range updates {
		if u == nil {
			return nil, invalidNode(KindUpdateQuery, "update[%d] is nil", i)
		}
	}
	c := q.clone()
	c.updates = concat(q.updates, updates)
	return c, nil
}

// WithWhere returns a copy whose WHERE condition is AND-merged with p.
func (q *UpdateQueryNode) WithWhere(p Node) (*UpdateQueryNode, error) {
	where, err := AndWith(q.where, p)
	if err != nil {
		return nil, err
	}
	c := q.clone()
	c.where = where
	return c, nil
}

// WithOrWhere returns a copy whose WHERE condition is OR-merged with p.
func (q *UpdateQueryNode) WithOrWhere(p Node) (*UpdateQueryNode, error) {
	where, err := OrWith(q.where, p)
	if err != nil {
		return nil, err
	}
	c := q.clone()
	c.where = where
	return c, nil
}

// WithReturning returns a copy with sel appended to RETURNING.
func (q *UpdateQueryNode) WithReturning(sel ...Node) (*UpdateQueryNode, error) {
	if err := checkSelections(KindUpdateQuery, sel); err != nil {
		return nil, err
	}
	c := q.clone()
	c.returning = concat(q.returning, sel)
	return c, nil
}

// Table returns the updated table.
func (q *UpdateQueryNode) Table() Node { return q.table }

// Updates returns a copy of the SET assignments.
func (q *UpdateQueryNode) Updates() []*ColumnUpdateNode { return cloneSlice(q.updates) }

// Where returns the WHERE condition, or nil.
func (q *UpdateQueryNode) Where() Node { return q.where }

// Returning returns a copy of the RETURNING list.
func (q *UpdateQueryNode) Returning() []Node { return cloneSlice(q.returning) }

// DeleteQueryNode is the root of a DELETE statement.
type DeleteQueryNode struct {
	from      Node
	where     Node
	returning []Node
}

func (*DeleteQueryNode) Kind() Kind { return KindDeleteQuery }
func (*DeleteQueryNode) operationNode() {}

// NewDeleteQuery creates a DELETE from a table or aliased table.
func NewDeleteQuery(from Node) (*DeleteQueryNode, error) {
	if !IsJoinTable(from) {
		return nil, invalidNode(KindDeleteQuery, "delete target must be a table or aliased table, got %s", describe(from))
	}
	return &DeleteQueryNode{from: from}, nil
}

func (q *DeleteQueryNode) clone() *DeleteQueryNode {
	c := *q
	return &c
}

// WithWhere returns a copy whose WHERE condition is AND-merged with p.
func (q *DeleteQueryNode) WithWhere(p Node) (*DeleteQueryNode, error) {
	where, err := AndWith(q.where, p)
	if err != nil {
		return nil, err
	}
	c := q.clone()
	c.where = where
	return c, nil
}

// WithOrWhere returns a copy whose WHERE condition is OR-merged with p.
func (q *DeleteQueryNode) WithOrWhere(p Node) (*DeleteQueryNode, error) {
	where, err := OrWith(q.where, p)
	if err != nil {
		return nil, err
	}
	c := q.clone()
	c.where = where
	return c, nil
}

// WithReturning returns a copy with sel appended to RETURNING.
func (q *DeleteQueryNode) WithReturning(sel ...Node) (*DeleteQueryNode, error) {
	if err := checkSelections(KindDeleteQuery, sel); err != nil {
		return nil, err
	}
	c := q.clone()
	c.returning = concat(q.returning, sel)
	return c, nil
}

// From returns the target table.
func (q *DeleteQueryNode) From() Node { return q.from }

// Where returns the WHERE condition, or nil.
func (q *DeleteQueryNode) Where() Node { return q.where }

// Returning returns a copy of the RETURNING list.
func (q *DeleteQueryNode) Returning() []Node { return cloneSlice(q.returning) }
