package builder

import (
	"fmt"
	"reflect"

	"github.com/roach88/querykit/internal/node"
)

// leftOperand converts the left side of a comparison. Strings are column
// references; anything else follows the right-hand rules.
func leftOperand(v any) (node.Node, error) {
	if s, ok := v.(string); ok {
		return parseColumn(s)
	}
	return rightOperand(v)
}

// rightOperand converts the right side of a comparison:
//   - Reference: a column
//   - Expression (a subquery, raw fragment or node): its node
//   - a slice or array other than []byte: a value list
//   - anything else, including nil: a bound value
func rightOperand(v any) (node.Node, error) {
	switch x := v.(type) {
	case nil:
		return node.NewValue(nil), nil
	case Reference:
		return parseColumn(string(x))
	case node.Node:
		return x, nil
	case Expression:
		return x.Node()
	case []byte:
		return node.NewValue(x), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		values := make([]any, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}
		return node.NewValueList(values...)
	}
	return node.NewValue(v), nil
}

// newFilter builds "<lhs> <op> <rhs>".
func newFilter(lhs any, op string, rhs any) (*node.FilterNode, error) {
	operator, err := node.ParseOperator(op)
	if err != nil {
		return nil, err
	}
	left, err := leftOperand(lhs)
	if err != nil {
		return nil, err
	}
	right, err := rightOperand(rhs)
	if err != nil {
		return nil, err
	}
	return node.NewFilter(left, operator, right)
}

// newRefFilter builds a column-to-column comparison.
func newRefFilter(lhs, op, rhs string) (*node.FilterNode, error) {
	return newFilter(lhs, op, Reference(rhs))
}

// group runs fn on an empty ConditionBuilder and wraps the result in
// parentheses.
func group(fn func(ConditionBuilder) ConditionBuilder) (*node.ParensNode, error) {
	if fn == nil {
		return nil, fmt.Errorf("condition group callback is nil")
	}
	cb := fn(ConditionBuilder{})
	if cb.err != nil {
		return nil, cb.err
	}
	if cb.cond == nil {
		return nil, fmt.Errorf("condition group is empty")
	}
	return node.NewParens(cb.cond)
}

// ConditionBuilder accumulates a standalone condition, typically inside a
// WhereGroup or OnGroup callback.
//
//	WhereGroup(func(c builder.ConditionBuilder) builder.ConditionBuilder {
//		return c.Where("species", "=", "dog").OrWhere("species", "=", "cat")
//	})
type ConditionBuilder struct {
	cond node.Node
	err  error
}

// NewCondition starts an empty condition.
func NewCondition() ConditionBuilder {
	return ConditionBuilder{}
}

func (c ConditionBuilder) merge(method string, or bool, p node.Node, err error) ConditionBuilder {
	if c.err != nil {
		return c
	}
	if err != nil {
		return ConditionBuilder{err: wrap(method, err)}
	}
	merge := node.AndWith
	if or {
		merge = node.OrWith
	}
	cond, err := merge(c.cond, p)
	if err != nil {
		return ConditionBuilder{err: wrap(method, err)}
	}
	return ConditionBuilder{cond: cond}
}

// Where AND-merges "<lhs> <op> <rhs>".
func (c ConditionBuilder) Where(lhs any, op string, rhs any) ConditionBuilder {
	f, err := newFilter(lhs, op, rhs)
	return c.merge("Where", false, f, err)
}

// OrWhere OR-merges "<lhs> <op> <rhs>".
func (c ConditionBuilder) OrWhere(lhs any, op string, rhs any) ConditionBuilder {
	f, err := newFilter(lhs, op, rhs)
	return c.merge("OrWhere", true, f, err)
}

// WhereRef AND-merges a column-to-column comparison.
func (c ConditionBuilder) WhereRef(lhs, op, rhs string) ConditionBuilder {
	f, err := newRefFilter(lhs, op, rhs)
	return c.merge("WhereRef", false, f, err)
}

// OrWhereRef OR-merges a column-to-column comparison.
func (c ConditionBuilder) OrWhereRef(lhs, op, rhs string) ConditionBuilder {
	f, err := newRefFilter(lhs, op, rhs)
	return c.merge("OrWhereRef", true, f, err)
}

// WhereGroup AND-merges a parenthesized sub-condition.
func (c ConditionBuilder) WhereGroup(fn func(ConditionBuilder) ConditionBuilder) ConditionBuilder {
	p, err := group(fn)
	return c.merge("WhereGroup", false, p, err)
}

// OrWhereGroup OR-merges a parenthesized sub-condition.
func (c ConditionBuilder) OrWhereGroup(fn func(ConditionBuilder) ConditionBuilder) ConditionBuilder {
	p, err := group(fn)
	return c.merge("OrWhereGroup", true, p, err)
}

// WhereRaw AND-merges a raw SQL condition.
func (c ConditionBuilder) WhereRaw(sql string, params ...any) ConditionBuilder {
	r, err := node.NewRaw(sql, params...)
	return c.merge("WhereRaw", false, r, err)
}

// Err returns the first construction error.
func (c ConditionBuilder) Err() error { return c.err }

// Node implements Expression. An empty condition is an error.
func (c ConditionBuilder) Node() (node.Node, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.cond == nil {
		return nil, fmt.Errorf("condition is empty")
	}
	return c.cond, nil
}
