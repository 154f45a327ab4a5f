package node

// Children returns the direct children of n in compile order.
//
// Required children are always included, even when nil, so that Validate can
// report them. Optional children (WHERE, ON, LIMIT, ...) are included only
// when set.
func Children(n Node) []Node {
	if isNil(n) {
		return nil
	}

	switch v := n.(type) {
	case *TableNode, *ColumnNode, *SelectAllNode, *ValueNode, *ValueListNode, *RawNode:
		return nil
	case *AliasNode:
		return []Node{v.node}
	case *FilterNode:
		return []Node{v.left, v.right}
	case *AndNode:
		return []Node{v.left, v.right}
	case *OrNode:
		return []Node{v.left, v.right}
	case *ParensNode:
		return []Node{v.node}
	case *JoinNode:
		children := []Node{v.table}
		if v.on != nil {
			children = append(children, v.on)
		}
		return children
	case *OrderByItemNode:
		return []Node{v.expr}
	case *ColumnUpdateNode:
		return []Node{nodeOrNil(v.column), v.value}
	case *SelectQueryNode:
		return selectChildren(v)
	case *InsertQueryNode:
		children := []Node{nodeOrNil(v.into)}
		for _, col := range v.columns {
			children = append(children, nodeOrNil(col))
		}
		for _, row := range v.rows {
			children = append(children, row...)
		}
		return append(children, v.returning...)
	case *UpdateQueryNode:
		children := []Node{v.table}
		for _, u := range v.updates {
			children = append(children, nodeOrNil(u))
		}
		if v.where != nil {
			children = append(children, v.where)
		}
		return append(children, v.returning...)
	case *DeleteQueryNode:
		children := []Node{v.from}
		if v.where != nil {
			children = append(children, v.where)
		}
		return append(children, v.returning...)
	}
	return nil
}

func selectChildren(q *SelectQueryNode) []Node {
	var children []Node
	children = append(children, q.selections...)
	children = append(children, q.from...)
	for _, j := range q.joins {
		children = append(children, nodeOrNil(j))
	}
	if q.where != nil {
		children = append(children, q.where)
	}
	children = append(children, q.groupBy...)
	if q.having != nil {
		children = append(children, q.having)
	}
	for _, o := range q.orderBy {
		children = append(children, nodeOrNil(o))
	}
	if q.limit != nil {
		children = append(children, q.limit)
	}
	if q.offset != nil {
		children = append(children, q.offset)
	}
	return children
}

// nodeOrNil converts a typed nil pointer into an untyped nil Node.
func nodeOrNil[T Node](n T) Node {
	if isNil(n) {
		return nil
	}
	return n
}

// Walk visits n and its descendants depth-first in compile order. If fn
// returns false the children of that node are skipped. Nil children are not
// visited.
func Walk(n Node, fn func(Node) bool) {
	if isNil(n) {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Walk(child, fn)
	}
}

// Validate checks that a tree satisfies the structural invariants the
// factories enforce. Trees built only through factories always pass; a
// failure means zero-value nodes or typed nil pointers were spliced in.
//
// Validate is a pure function with no side effects.
func Validate(root Node) error {
	if isNil(root) {
		return NewMalformedTreeError("", "root node is nil")
	}
	return validate(root)
}

func validate(n Node) error {
	if err := validateShape(n); err != nil {
		return err
	}
	for _, child := range Children(n) {
		if isNil(child) {
			return NewMalformedTreeError(n.Kind(), "missing child node")
		}
		if err := validate(child); err != nil {
			return err
		}
	}
	return nil
}

// validateShape re-checks the per-kind rules that zero-value structs skip.
func validateShape(n Node) error {
	switch v := n.(type) {
	case *TableNode:
		if v.table == "" {
			return NewMalformedTreeError(KindTable, "table name is empty")
		}
	case *ColumnNode:
		if v.column == "" {
			return NewMalformedTreeError(KindColumn, "column name is empty")
		}
	case *AliasNode:
		if v.alias == "" {
			return NewMalformedTreeError(KindAlias, "alias is empty")
		}
	case *ValueListNode:
		if len(v.values) == 0 {
			return NewMalformedTreeError(KindValueList, "value list is empty")
		}
	case *FilterNode:
		if _, ok := operators[v.op]; !ok {
			return NewMalformedTreeError(KindFilter, "unknown operator %q", v.op)
		}
	case *JoinNode:
		if !v.joinType.Valid() {
			return NewMalformedTreeError(KindJoin, "unknown join type %q", v.joinType)
		}
		if !isNil(v.table) && !IsJoinTable(v.table) {
			return NewMalformedTreeError(KindJoin, "join table is %s", describe(v.table))
		}
		if v.on != nil && !IsJoinCondition(v.on) {
			return NewMalformedTreeError(KindJoin, "join condition is %s", describe(v.on))
		}
	case *RawNode:
		if len(v.segments) != len(v.parameters)+1 {
			return NewMalformedTreeError(KindRaw, "raw fragment has %d segment(s) for %d parameter(s)", len(v.segments), len(v.parameters))
		}
	case *InsertQueryNode:
		for i, row := range v.rows {
			if len(row) != len(v.columns) {
				return NewMalformedTreeError(KindInsertQuery, "row %d has %d value(s), want %d", i, len(row), len(v.columns))
			}
		}
	}
	return nil
}
