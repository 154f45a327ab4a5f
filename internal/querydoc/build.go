package querydoc

import (
	"fmt"
	"sort"

	"github.com/roach88/querykit/internal/builder"
	"github.com/roach88/querykit/internal/node"
)

var joinTypes = map[string]node.JoinType{
	"inner": node.InnerJoin,
	"left":  node.LeftJoin,
	"right": node.RightJoin,
	"full":  node.FullJoin,
}

// Build turns the document into a builder. Construction errors (an unknown
// operator, a malformed reference) are returned here rather than deferred.
func (d *Document) Build() (builder.Query, error) {
	var q builder.Query
	switch {
	case d.Select != nil:
		q = buildSelect(d.Select)
	case d.Insert != nil:
		q = buildInsert(d.Insert)
	case d.Update != nil:
		q = buildUpdate(d.Update)
	case d.Delete != nil:
		q = buildDelete(d.Delete)
	case d.Raw != nil:
		q = builder.Raw(d.Raw.SQL, d.Raw.Params...)
	default:
		return nil, fmt.Errorf("document has no statement")
	}

	if _, err := q.Node(); err != nil {
		return nil, fmt.Errorf("build %s: %w", d.Kind(), err)
	}
	return q, nil
}

func buildSelect(s *Select) builder.SelectQueryBuilder {
	from := make([]any, len(s.From))
	for i, f := range s.From {
		from[i] = f
	}
	b := builder.SelectFrom(from...)

	if s.Distinct {
		b = b.Distinct()
	}

	sel := make([]any, 0, len(s.Columns)+len(s.Expressions))
	for _, c := range s.Columns {
		sel = append(sel, c)
	}
	for _, e := range s.Expressions {
		raw := builder.Raw(e.SQL, e.Params...)
		if e.As != "" {
			sel = append(sel, raw.As(e.As))
		} else {
			sel = append(sel, raw)
		}
	}
	if len(sel) > 0 {
		b = b.Select(sel...)
	}

	for _, j := range s.Joins {
		conds := j.On
		var fn func(builder.JoinBuilder) builder.JoinBuilder
		if len(conds) > 0 {
			fn = func(jb builder.JoinBuilder) builder.JoinBuilder {
				return applyJoinConditions(jb, conds)
			}
		}
		b = b.Join(joinTypes[j.Type], j.Table, fn)
	}

	b = applyWhere(b, s.Where)

	if len(s.GroupBy) > 0 {
		b = b.GroupBy(s.GroupBy...)
	}
	for _, h := range s.Having {
		lhs, rhs := operands(h)
		if h.Or {
			b = b.OrHaving(lhs, h.Op, rhs)
		} else {
			b = b.Having(lhs, h.Op, rhs)
		}
	}
	for _, o := range s.OrderBy {
		b = b.OrderBy(o.Column, o.Direction)
	}
	if s.Limit != nil {
		b = b.Limit(*s.Limit)
	}
	if s.Offset != nil {
		b = b.Offset(*s.Offset)
	}
	return b
}

// operands returns the comparison operands of a column condition. A raw
// condition in a having list is a raw left operand.
func operands(c Condition) (lhs, rhs any) {
	lhs = c.Column
	if c.Raw != "" {
		lhs = builder.Raw(c.Raw, c.Params...)
	}

	switch {
	case len(c.Values) > 0:
		rhs = c.Values
	case c.Ref != "":
		rhs = builder.Ref(c.Ref)
	case c.Subquery != nil:
		rhs = buildSelect(c.Subquery)
	default:
		rhs = c.Value
	}
	return lhs, rhs
}

// conditionTarget is implemented by every builder with a WHERE-style
// condition slot.
type conditionTarget[B any] interface {
	Where(lhs any, op string, rhs any) B
	OrWhere(lhs any, op string, rhs any) B
	WhereGroup(fn func(builder.ConditionBuilder) builder.ConditionBuilder) B
	OrWhereGroup(fn func(builder.ConditionBuilder) builder.ConditionBuilder) B
	WhereRaw(sql string, params ...any) B
}

// applyWhere merges conds into b left to right.
func applyWhere[B conditionTarget[B]](b B, conds []Condition) B {
	for _, c := range conds {
		switch {
		case len(c.Group) > 0:
			if c.Or {
				b = b.OrWhereGroup(groupFunc(c.Group))
			} else {
				b = b.WhereGroup(groupFunc(c.Group))
			}
		case c.Raw != "":
			// OR-merging a raw condition goes through a single-entry group.
			if c.Or {
				b = b.OrWhereGroup(rawGroup(c))
			} else {
				b = b.WhereRaw(c.Raw, c.Params...)
			}
		default:
			lhs, rhs := operands(c)
			if c.Or {
				b = b.OrWhere(lhs, c.Op, rhs)
			} else {
				b = b.Where(lhs, c.Op, rhs)
			}
		}
	}
	return b
}

func applyJoinConditions(jb builder.JoinBuilder, conds []Condition) builder.JoinBuilder {
	for _, c := range conds {
		switch {
		case len(c.Group) > 0 || c.Raw != "":
			fn := groupFunc(c.Group)
			if c.Raw != "" {
				fn = rawGroup(c)
			}
			if c.Or {
				jb = jb.OrOnGroup(fn)
			} else {
				jb = jb.OnGroup(fn)
			}
		default:
			lhs, rhs := operands(c)
			if c.Or {
				jb = jb.OrOn(lhs, c.Op, rhs)
			} else {
				jb = jb.On(lhs, c.Op, rhs)
			}
		}
	}
	return jb
}

func groupFunc(conds []Condition) func(builder.ConditionBuilder) builder.ConditionBuilder {
	return func(cb builder.ConditionBuilder) builder.ConditionBuilder {
		return applyWhere(cb, conds)
	}
}

func rawGroup(c Condition) func(builder.ConditionBuilder) builder.ConditionBuilder {
	return func(cb builder.ConditionBuilder) builder.ConditionBuilder {
		return cb.WhereRaw(c.Raw, c.Params...)
	}
}

func buildInsert(in *Insert) builder.InsertQueryBuilder {
	b := builder.InsertInto(in.Into)
	if len(in.Columns) > 0 {
		b = b.Columns(in.Columns...)
	}
	for _, row := range in.Rows {
		b = b.Row(row...)
	}
	for _, values := range in.Values {
		b = b.Values(values)
	}
	if len(in.Returning) > 0 {
		b = b.Returning(in.Returning...)
	}
	return b
}

func buildUpdate(u *UpdateDoc) builder.UpdateQueryBuilder {
	b := builder.Update(u.Table)

	columns := make([]string, 0, len(u.Set))
	for col := range u.Set {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		b = b.Set(col, u.Set[col])
	}

	b = applyWhere(b, u.Where)
	if len(u.Returning) > 0 {
		b = b.Returning(u.Returning...)
	}
	return b
}

func buildDelete(d *Delete) builder.DeleteQueryBuilder {
	b := builder.DeleteFrom(d.From)
	b = applyWhere(b, d.Where)
	if len(d.Returning) > 0 {
		b = b.Returning(d.Returning...)
	}
	return b
}
