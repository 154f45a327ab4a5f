package node

import (
	"strings"
)

// Operator is a comparison operator of a FilterNode.
type Operator string

const (
	OpEq       Operator = "="
	OpNotEq    Operator = "!="
	OpLtGt     Operator = "<>"
	OpLt       Operator = "<"
	OpLte      Operator = "<="
	OpGt       Operator = ">"
	OpGte      Operator = ">="
	OpIn       Operator = "in"
	OpNotIn    Operator = "not in"
	OpLike     Operator = "like"
	OpNotLike  Operator = "not like"
	OpILike    Operator = "ilike"
	OpNotILike Operator = "not ilike"
	OpIs       Operator = "is"
	OpIsNot    Operator = "is not"
)

var operators = map[Operator]struct{}{
	OpEq: {}, OpNotEq: {}, OpLtGt: {}, OpLt: {}, OpLte: {}, OpGt: {}, OpGte: {},
	OpIn: {}, OpNotIn: {}, OpLike: {}, OpNotLike: {}, OpILike: {}, OpNotILike: {},
	OpIs: {}, OpIsNot: {},
}

// ParseOperator normalizes s (case, surrounding and repeated whitespace) and
// checks it against the closed operator set.
func ParseOperator(s string) (Operator, error) {
	op := Operator(strings.ToLower(strings.Join(strings.Fields(s), " ")))
	if _, ok := operators[op]; !ok {
		return "", invalidNode(KindFilter, "unknown operator %q", s)
	}
	return op, nil
}

// IsList reports whether the operator takes a list or subquery operand.
func (o Operator) IsList() bool { return o == OpIn || o == OpNotIn }

// IsNullCheck reports whether the operator is IS or IS NOT.
func (o Operator) IsNullCheck() bool { return o == OpIs || o == OpIsNot }

// IsILike reports whether the operator is a case-insensitive LIKE.
func (o Operator) IsILike() bool { return o == OpILike || o == OpNotILike }

// FilterNode is a single comparison: "<left> <op> <right>".
type FilterNode struct {
	left  Node
	op    Operator
	right Node
}

func (*FilterNode) Kind() Kind { return KindFilter }
func (*FilterNode) operationNode() {}

// NewFilter creates a comparison.
//
// Operand rules:
//   - left is a column, value, raw fragment or subquery
//   - right is a value, column, raw fragment or subquery
//   - IN / NOT IN take a value list, subquery or raw fragment on the right
//   - a value list is only valid with IN / NOT IN
//   - IS / IS NOT take nil, a bool or a raw fragment on the right
func NewFilter(left Node, op Operator, right Node) (*FilterNode, error) {
	if _, ok := operators[op]; !ok {
		return nil, invalidNode(KindFilter, "unknown operator %q", op)
	}
	if !kindIn(left, KindColumn, KindValue, KindRaw, KindSelectQuery) {
		return nil, invalidNode(KindFilter, "invalid left operand: %s", describe(left))
	}
	if !kindIn(right, KindValue, KindValueList, KindColumn, KindRaw, KindSelectQuery) {
		return nil, invalidNode(KindFilter, "invalid right operand: %s", describe(right))
	}

	switch {
	case op.IsList():
		if !kindIn(right, KindValueList, KindSelectQuery, KindRaw) {
			return nil, invalidNode(KindFilter, "operator %q needs a value list or subquery, got %s", op, describe(right))
		}
	case right.Kind() == KindValueList:
		return nil, invalidNode(KindFilter, "value list is only valid with in / not in, got %q", op)
	case op.IsNullCheck():
		if v, ok := right.(*ValueNode); ok {
			switch v.Value().(type) {
			case nil, bool:
			default:
				return nil, invalidNode(KindFilter, "operator %q needs nil or a bool, got %T", op, v.Value())
			}
		} else if right.Kind() != KindRaw {
			return nil, invalidNode(KindFilter, "operator %q needs nil or a bool, got %s", op, describe(right))
		}
	}

	return &FilterNode{left: left, op: op, right: right}, nil
}

// Left returns the left operand.
func (f *FilterNode) Left() Node { return f.left }

// Op returns the operator.
func (f *FilterNode) Op() Operator { return f.op }

// Right returns the right operand.
func (f *FilterNode) Right() Node { return f.right }

// AndNode is "<left> AND <right>".
type AndNode struct {
	left  Node
	right Node
}

func (*AndNode) Kind() Kind { return KindAnd }
func (*AndNode) operationNode() {}

// NewAnd combines two conditions with AND.
func NewAnd(left, right Node) (*AndNode, error) {
	if err := checkOperands(KindAnd, left, right); err != nil {
		return nil, err
	}
	return &AndNode{left: left, right: right}, nil
}

// Left returns the left operand.
func (a *AndNode) Left() Node { return a.left }

// Right returns the right operand.
func (a *AndNode) Right() Node { return a.right }

// OrNode is "<left> OR <right>".
type OrNode struct {
	left  Node
	right Node
}

func (*OrNode) Kind() Kind { return KindOr }
func (*OrNode) operationNode() {}

// NewOr combines two conditions with OR.
func NewOr(left, right Node) (*OrNode, error) {
	if err := checkOperands(KindOr, left, right); err != nil {
		return nil, err
	}
	return &OrNode{left: left, right: right}, nil
}

// Left returns the left operand.
func (o *OrNode) Left() Node { return o.left }

// Right returns the right operand.
func (o *OrNode) Right() Node { return o.right }

// ParensNode always renders its child in parentheses.
type ParensNode struct {
	node Node
}

func (*ParensNode) Kind() Kind { return KindParens }
func (*ParensNode) operationNode() {}

// NewParens wraps a condition in parentheses.
func NewParens(n Node) (*ParensNode, error) {
	if !IsCondition(n) {
		return nil, invalidNode(KindParens, "cannot parenthesize %s", describe(n))
	}
	return &ParensNode{node: n}, nil
}

// Node returns the wrapped condition.
func (p *ParensNode) Node() Node { return p.node }

// IsCondition reports whether n can stand as a boolean condition: a filter,
// a combinator, a parens wrapper or a raw fragment.
func IsCondition(n Node) bool {
	return kindIn(n, KindFilter, KindAnd, KindOr, KindParens, KindRaw)
}

func checkOperands(kind Kind, left, right Node) error {
	if !IsCondition(left) {
		return invalidNode(kind, "invalid left operand: %s", describe(left))
	}
	if !IsCondition(right) {
		return invalidNode(kind, "invalid right operand: %s", describe(right))
	}
	return nil
}

// AndWith merges p into an accumulated condition with AND.
//
// If existing is nil the result is p itself. Otherwise the result is
// And(existing, p): existing is always the left operand and is never
// re-flattened, which fixes precedence at merge time.
func AndWith(existing, p Node) (Node, error) {
	if isNil(existing) {
		if !IsCondition(p) {
			return nil, invalidNode(KindAnd, "invalid condition: %s", describe(p))
		}
		return p, nil
	}
	and, err := NewAnd(existing, p)
	if err != nil {
		return nil, err
	}
	return and, nil
}

// OrWith is AndWith for OR.
func OrWith(existing, p Node) (Node, error) {
	if isNil(existing) {
		if !IsCondition(p) {
			return nil, invalidNode(KindOr, "invalid condition: %s", describe(p))
		}
		return p, nil
	}
	or, err := NewOr(existing, p)
	if err != nil {
		return nil, err
	}
	return or, nil
}
