package node

// JoinType is the kind of a join. The set is closed.
type JoinType string

const (
	InnerJoin JoinType = "InnerJoin"
	LeftJoin  JoinType = "LeftJoin"
	RightJoin JoinType = "RightJoin"
	FullJoin  JoinType = "FullJoin"
)

// JoinTypes lists every valid join type.
var JoinTypes = []JoinType{InnerJoin, LeftJoin, RightJoin, FullJoin}

// Valid reports whether t is one of the four join types.
func (t JoinType) Valid() bool {
	switch t {
	case InnerJoin, LeftJoin, RightJoin, FullJoin:
		return true
	}
	return false
}

// JoinNode is one join clause: "<type> <table> [ON <condition>]".
//
// Invariants:
//   - Table is a *TableNode, or an *AliasNode wrapping a *TableNode.
//   - On, when set, is a filter, an AND/OR combinator or a parens wrapper.
//
// The factories below and AndWith / OrWith are the only ways to obtain or
// extend a JoinNode.
type JoinNode struct {
	joinType JoinType
	table    Node
	on       Node
}

func (*JoinNode) Kind() Kind { return KindJoin }
func (*JoinNode) operationNode() {}

// NewJoin creates an unconditioned join.
//
// Whether an unconditioned join is legal for a given join type is decided by
// the dialect at compile time, not here.
func NewJoin(joinType JoinType, table Node) (*JoinNode, error) {
	if err := checkJoin(joinType, table); err != nil {
		return nil, err
	}
	return &JoinNode{joinType: joinType, table: table}, nil
}

// NewJoinWithOn creates a join with an ON condition.
func NewJoinWithOn(joinType JoinType, table Node, on Node) (*JoinNode, error) {
	if err := checkJoin(joinType, table); err != nil {
		return nil, err
	}
	if !IsJoinCondition(on) {
		return nil, invalidJoin("invalid ON condition: %s", describe(on))
	}
	return &JoinNode{joinType: joinType, table: table, on: on}, nil
}

// AndWith returns a copy of j whose condition is p if j had none, and
// And(j.On(), p) otherwise.
func (j *JoinNode) AndWith(p Node) (*JoinNode, error) {
	if j == nil {
		return nil, invalidJoin("join is nil")
	}
	if !IsJoinCondition(p) {
		return nil, invalidJoin("invalid ON condition: %s", describe(p))
	}
	on, err := AndWith(j.on, p)
	if err != nil {
		return nil, err
	}
	return &JoinNode{joinType: j.joinType, table: j.table, on: on}, nil
}

// OrWith returns a copy of j whose condition is p if j had none, and
// Or(j.On(), p) otherwise.
func (j *JoinNode) OrWith(p Node) (*JoinNode, error) {
	if j == nil {
		return nil, invalidJoin("join is nil")
	}
	if !IsJoinCondition(p) {
		return nil, invalidJoin("invalid ON condition: %s", describe(p))
	}
	on, err := OrWith(j.on, p)
	if err != nil {
		return nil, err
	}
	return &JoinNode{joinType: j.joinType, table: j.table, on: on}, nil
}

// JoinType returns the join type.
func (j *JoinNode) JoinType() JoinType { return j.joinType }

// Table returns the joined table or aliased table.
func (j *JoinNode) Table() Node { return j.table }

// On returns the join condition, or nil for an unconditioned join.
func (j *JoinNode) On() Node { return j.on }

// IsJoinTable reports whether n may be the table of a join.
func IsJoinTable(n Node) bool {
	if kindIn(n, KindTable) {
		return true
	}
	if a, ok := n.(*AliasNode); ok && a != nil {
		return kindIn(a.node, KindTable)
	}
	return false
}

// IsJoinCondition reports whether n may be the ON condition of a join.
func IsJoinCondition(n Node) bool {
	return kindIn(n, KindFilter, KindAnd, KindOr, KindParens)
}

func checkJoin(joinType JoinType, table Node) error {
	if !joinType.Valid() {
		return invalidJoin("unknown join type %q", joinType)
	}
	if !IsJoinTable(table) {
		return invalidJoin("join table must be a table or aliased table, got %s", describe(table))
	}
	return nil
}
