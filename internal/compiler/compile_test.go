package compiler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querykit/internal/dialect"
	"github.com/roach88/querykit/internal/node"
)

func table(t *testing.T, name string) *node.TableNode {
	t.Helper()
	tbl, err := node.NewTable(name)
	require.NoError(t, err)
	return tbl
}

func column(t *testing.T, name string) *node.ColumnNode {
	t.Helper()
	col, err := node.NewColumn(name)
	require.NoError(t, err)
	return col
}

func ref(t *testing.T, tbl, name string) *node.ColumnNode {
	t.Helper()
	col, err := node.NewReference(tbl, name)
	require.NoError(t, err)
	return col
}

func filter(t *testing.T, col string, op node.Operator, value any) *node.FilterNode {
	t.Helper()
	f, err := node.NewFilter(column(t, col), op, node.NewValue(value))
	require.NoError(t, err)
	return f
}

func selectFrom(t *testing.T, name string) *node.SelectQueryNode {
	t.Helper()
	q, err := node.NewSelectQuery(table(t, name))
	require.NoError(t, err)
	return q
}

func compile(t *testing.T, d dialect.Dialect, n node.Node) *CompiledQuery {
	t.Helper()
	out, err := New(d).Compile(n)
	require.NoError(t, err)
	return out
}

// Join scenarios: a bare join, an OR-merged condition, and an AND merged
// onto an existing OR.
func TestCompile_JoinScenarios(t *testing.T) {
	bare, err := node.NewJoin(node.InnerJoin, table(t, "person"))
	require.NoError(t, err)

	withOr, err := bare.AndWith(filter(t, "gender", node.OpEq, "male"))
	require.NoError(t, err)
	withOr, err = withOr.OrWith(filter(t, "id", node.OpEq, 1))
	require.NoError(t, err)

	withAnd, err := withOr.AndWith(filter(t, "active", node.OpEq, true))
	require.NoError(t, err)

	testCases := []struct {
		name       string
		join       *node.JoinNode
		wantSQL    string
		wantParams []any
	}{
		{
			name:       "unconditioned",
			join:       bare,
			wantSQL:    "INNER JOIN person",
			wantParams: []any{},
		},
		{
			name:       "or merge",
			join:       withOr,
			wantSQL:    "INNER JOIN person ON gender = ? OR id = ?",
			wantParams: []any{"male", 1},
		},
		{
			name:       "and over or",
			join:       withAnd,
			wantSQL:    "INNER JOIN person ON (gender = ? OR id = ?) AND active = ?",
			wantParams: []any{"male", 1, true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := compile(t, dialect.Generic, tc.join)
			assert.Equal(t, tc.wantSQL, out.SQL)
			assert.Equal(t, tc.wantParams, out.Parameters)
		})
	}

	// The merge sources are untouched.
	assert.Nil(t, bare.On())
	assert.Equal(t, "INNER JOIN person ON gender = ? OR id = ?", compile(t, dialect.Generic, withOr).SQL)
}

func TestCompile_JoinKeywords(t *testing.T) {
	on := filter(t, "person_id", node.OpEq, 1)
	want := map[node.JoinType]string{
		node.InnerJoin: "INNER JOIN pet ON person_id = ?",
		node.LeftJoin:  "LEFT JOIN pet ON person_id = ?",
		node.RightJoin: "RIGHT JOIN pet ON person_id = ?",
		node.FullJoin:  "FULL JOIN pet ON person_id = ?",
	}

	for _, jt := range node.JoinTypes {
		t.Run(string(jt), func(t *testing.T) {
			j, err := node.NewJoinWithOn(jt, table(t, "pet"), on)
			require.NoError(t, err)
			assert.Equal(t, want[jt], compile(t, dialect.Generic, j).SQL)
		})
	}
}

func TestCompile_ColumnToColumnJoin(t *testing.T) {
	on, err := node.NewFilter(ref(t, "pet", "owner_id"), node.OpEq, ref(t, "person", "id"))
	require.NoError(t, err)

	petAlias, err := node.NewAlias(table(t, "pet"), "p")
	require.NoError(t, err)

	j, err := node.NewJoinWithOn(node.LeftJoin, petAlias, on)
	require.NoError(t, err)

	out := compile(t, dialect.Postgres, j)
	assert.Equal(t, `LEFT JOIN "pet" AS "p" ON "pet"."owner_id" = "person"."id"`, out.SQL)
	assert.Empty(t, out.Parameters)
}

func TestCompile_CombinatorParenthesization(t *testing.T) {
	a := filter(t, "a", node.OpEq, 1)
	b := filter(t, "b", node.OpEq, 2)
	c := filter(t, "c", node.OpEq, 3)

	and, err := node.NewAnd(a, b)
	require.NoError(t, err)
	or, err := node.NewOr(a, b)
	require.NoError(t, err)

	orOfAnd, err := node.NewOr(and, c)
	require.NoError(t, err)
	andOfOr, err := node.NewAnd(c, or)
	require.NoError(t, err)
	andOfAnd, err := node.NewAnd(and, c)
	require.NoError(t, err)
	parens, err := node.NewParens(and)
	require.NoError(t, err)

	testCases := []struct {
		name string
		n    node.Node
		want string
	}{
		{name: "and inside or", n: orOfAnd, want: "(a = ? AND b = ?) OR c = ?"},
		{name: "or inside and", n: andOfOr, want: "c = ? AND (a = ? OR b = ?)"},
		{name: "same kind is flat", n: andOfAnd, want: "a = ? AND b = ? AND c = ?"},
		{name: "explicit parens", n: parens, want: "(a = ? AND b = ?)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, compile(t, dialect.Generic, tc.n).SQL)
		})
	}
}

func TestCompile_Operators(t *testing.T) {
	in, err := node.NewValueList(1, 2, 3)
	require.NoError(t, err)

	testCases := []struct {
		name       string
		op         node.Operator
		right      node.Node
		wantSQL    string
		wantParams []any
	}{
		{name: "in list", op: node.OpIn, right: in, wantSQL: "id IN (?, ?, ?)", wantParams: []any{1, 2, 3}},
		{name: "not in list", op: node.OpNotIn, right: in, wantSQL: "id NOT IN (?, ?, ?)", wantParams: []any{1, 2, 3}},
		{name: "is null", op: node.OpIs, right: node.NewValue(nil), wantSQL: "id IS NULL", wantParams: []any{}},
		{name: "is not null", op: node.OpIsNot, right: node.NewValue(nil), wantSQL: "id IS NOT NULL", wantParams: []any{}},
		{name: "is true", op: node.OpIs, right: node.NewValue(true), wantSQL: "id IS TRUE", wantParams: []any{}},
		{name: "like", op: node.OpLike, right: node.NewValue("b%"), wantSQL: "id LIKE ?", wantParams: []any{"b%"}},
		{name: "not equal", op: node.OpLtGt, right: node.NewValue(4), wantSQL: "id <> ?", wantParams: []any{4}},
		{name: "greater or equal", op: node.OpGte, right: node.NewValue(4), wantSQL: "id >= ?", wantParams: []any{4}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := node.NewFilter(column(t, "id"), tc.op, tc.right)
			require.NoError(t, err)

			out := compile(t, dialect.Generic, f)
			assert.Equal(t, tc.wantSQL, out.SQL)
			assert.Equal(t, tc.wantParams, out.Parameters)
		})
	}
}

func TestCompile_SubqueryOperand(t *testing.T) {
	sub, err := selectFrom(t, "pet").WithSelections(column(t, "owner_id"))
	require.NoError(t, err)
	sub, err = sub.WithWhere(filter(t, "species", node.OpEq, "cat"))
	require.NoError(t, err)

	f, err := node.NewFilter(column(t, "id"), node.OpIn, sub)
	require.NoError(t, err)

	q, err := selectFrom(t, "person").WithWhere(f)
	require.NoError(t, err)
	q, err = q.WithWhere(filter(t, "gender", node.OpEq, "female"))
	require.NoError(t, err)

	out := compile(t, dialect.Generic, q)
	assert.Equal(t,
		"SELECT * FROM person WHERE id IN (SELECT owner_id FROM pet WHERE species = ?) AND gender = ?",
		out.SQL)
	assert.Equal(t, []any{"cat", "female"}, out.Parameters)
}

func TestCompile_FullSelect(t *testing.T) {
	on, err := node.NewFilter(ref(t, "pet", "owner_id"), node.OpEq, ref(t, "person", "id"))
	require.NoError(t, err)
	j, err := node.NewJoinWithOn(node.InnerJoin, table(t, "pet"), on)
	require.NoError(t, err)

	count, err := node.NewRaw("count(*)")
	require.NoError(t, err)
	petCount, err := node.NewAlias(count, "pets")
	require.NoError(t, err)
	having, err := node.NewRaw("count(*) > ?", 1)
	require.NoError(t, err)
	order, err := node.NewOrderByItem(ref(t, "person", "first_name"), node.DirectionDesc)
	require.NoError(t, err)

	q := selectFrom(t, "person").WithDistinct()
	q, err = q.WithSelections(ref(t, "person", "first_name"), petCount)
	require.NoError(t, err)
	q, err = q.WithJoin(j)
	require.NoError(t, err)
	q, err = q.WithWhere(filter(t, "gender", node.OpEq, "female"))
	require.NoError(t, err)
	q, err = q.WithGroupBy(ref(t, "person", "first_name"))
	require.NoError(t, err)
	q, err = q.WithHaving(having)
	require.NoError(t, err)
	q, err = q.WithOrderBy(order)
	require.NoError(t, err)
	q = q.WithLimit(node.NewValue(10)).WithOffset(node.NewValue(20))

	out := compile(t, dialect.Postgres, q)
	assert.Equal(t,
		`SELECT DISTINCT "person"."first_name", count(*) AS "pets" FROM "person" `+
			`INNER JOIN "pet" ON "pet"."owner_id" = "person"."id" `+
			`WHERE "gender" = $1 GROUP BY "person"."first_name" HAVING count(*) > $2 `+
			`ORDER BY "person"."first_name" DESC LIMIT $3 OFFSET $4`,
		out.SQL)
	assert.Equal(t, []any{"female", 1, 10, 20}, out.Parameters)
}

func TestCompile_Raw(t *testing.T) {
	raw, err := node.NewRaw("lower(first_name) = ? AND note ?? 'x'", "bob")
	require.NoError(t, err)

	q, err := selectFrom(t, "person").WithWhere(raw)
	require.NoError(t, err)
	q, err = q.WithWhere(filter(t, "id", node.OpGt, 3))
	require.NoError(t, err)

	out := compile(t, dialect.Postgres, q)
	assert.Equal(t, `SELECT * FROM "person" WHERE (lower(first_name) = $1 AND note ? 'x') AND "id" > $2`, out.SQL)
	assert.Equal(t, []any{"bob", 3}, out.Parameters)
}

func TestCompile_RawOperandIsParenthesized(t *testing.T) {
	raw, err := node.NewRaw("a = ? OR b = ?", 1, 2)
	require.NoError(t, err)

	and, err := node.NewAnd(raw, filter(t, "c", node.OpEq, 3))
	require.NoError(t, err)
	out := compile(t, dialect.SQLite, and)
	assert.Equal(t, `(a = ? OR b = ?) AND "c" = ?`, out.SQL)
	assert.Equal(t, []any{1, 2, 3}, out.Parameters)

	or, err := node.NewOr(filter(t, "c", node.OpEq, 3), raw)
	require.NoError(t, err)
	out = compile(t, dialect.SQLite, or)
	assert.Equal(t, `"c" = ? OR (a = ? OR b = ?)`, out.SQL)

	// A raw node on its own is emitted as written
	out = compile(t, dialect.SQLite, raw)
	assert.Equal(t, "a = ? OR b = ?", out.SQL)
}

func TestCompile_RawLiteralQuestionMark(t *testing.T) {
	raw, err := node.NewRaw("select * from t where a = ? and b ?? 'k'", 1)
	require.NoError(t, err)

	out := compile(t, dialect.Postgres, raw)
	assert.Equal(t, "select * from t where a = $1 and b ? 'k'", out.SQL)

	for _, d := range []dialect.Dialect{dialect.Generic, dialect.MySQL, dialect.SQLite} {
		t.Run(d.Name(), func(t *testing.T) {
			out, err := New(d).Compile(raw)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, IsUnsupportedConstruct(err))
		})
	}
}

func TestCompile_Insert(t *testing.T) {
	q, err := node.NewInsertQuery(table(t, "person"))
	require.NoError(t, err)
	q, err = q.WithColumns(column(t, "first_name"), column(t, "gender"))
	require.NoError(t, err)
	q, err = q.WithRow(node.NewValue("Jennifer"), node.NewValue("female"))
	require.NoError(t, err)
	q, err = q.WithRow(node.NewValue("Arnold"), node.NewValue("male"))
	require.NoError(t, err)

	out := compile(t, dialect.MySQL, q)
	assert.Equal(t, "INSERT INTO `person` (`first_name`, `gender`) VALUES (?, ?), (?, ?)", out.SQL)
	assert.Equal(t, []any{"Jennifer", "female", "Arnold", "male"}, out.Parameters)

	returning, err := q.WithReturning(column(t, "id"))
	require.NoError(t, err)
	out = compile(t, dialect.SQLite, returning)
	assert.Equal(t, `INSERT INTO "person" ("first_name", "gender") VALUES (?, ?), (?, ?) RETURNING "id"`, out.SQL)
}

func TestCompile_UpdateAndDelete(t *testing.T) {
	set, err := node.NewColumnUpdate(column(t, "first_name"), node.NewValue("Jen"))
	require.NoError(t, err)

	upd, err := node.NewUpdateQuery(table(t, "person"))
	require.NoError(t, err)
	upd, err = upd.WithUpdates(set)
	require.NoError(t, err)
	upd, err = upd.WithWhere(filter(t, "id", node.OpEq, 1))
	require.NoError(t, err)

	out := compile(t, dialect.Postgres, upd)
	assert.Equal(t, `UPDATE "person" SET "first_name" = $1 WHERE "id" = $2`, out.SQL)
	assert.Equal(t, []any{"Jen", 1}, out.Parameters)

	del, err := node.NewDeleteQuery(table(t, "pet"))
	require.NoError(t, err)
	del, err = del.WithWhere(filter(t, "species", node.OpEq, "hamster"))
	require.NoError(t, err)
	del, err = del.WithReturning(column(t, "id"))
	require.NoError(t, err)

	out = compile(t, dialect.SQLite, del)
	assert.Equal(t, `DELETE FROM "pet" WHERE "species" = ? RETURNING "id"`, out.SQL)
	assert.Equal(t, []any{"hamster"}, out.Parameters)
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	payload := "x'; DROP TABLE person; --"

	q, err := selectFrom(t, "person").WithWhere(filter(t, "first_name", node.OpEq, payload))
	require.NoError(t, err)

	for _, d := range []dialect.Dialect{dialect.Generic, dialect.Postgres, dialect.MySQL, dialect.SQLite} {
		out := compile(t, d, q)
		assert.NotContains(t, out.SQL, "DROP", d.Name())
		assert.Equal(t, []any{payload}, out.Parameters, d.Name())
	}
}

func TestCompile_QuotedIdentifierInjection(t *testing.T) {
	tbl, err := node.NewTable(`person"; DROP TABLE pet; --`)
	require.NoError(t, err)

	out := compile(t, dialect.Postgres, tbl)
	assert.Equal(t, `"person""; DROP TABLE pet; --"`, out.SQL)
}

func TestCompile_PlaceholderCountMatchesParameters(t *testing.T) {
	in, err := node.NewValueList("a", "b")
	require.NoError(t, err)
	f, err := node.NewFilter(column(t, "x"), node.OpIn, in)
	require.NoError(t, err)

	q, err := selectFrom(t, "t").WithWhere(f)
	require.NoError(t, err)
	q, err = q.WithOrWhere(filter(t, "y", node.OpEq, nil))
	require.NoError(t, err)
	q = q.WithLimit(node.NewValue(5))

	out := compile(t, dialect.Postgres, q)
	assert.Equal(t, `SELECT * FROM "t" WHERE "x" IN ($1, $2) OR "y" = $3 LIMIT $4`, out.SQL)
	assert.Len(t, out.Parameters, 4)
	assert.Equal(t, []any{"a", "b", nil, 5}, out.Parameters)
}

func TestCompile_Idempotent(t *testing.T) {
	j, err := node.NewJoinWithOn(node.InnerJoin, table(t, "person"), filter(t, "gender", node.OpEq, "male"))
	require.NoError(t, err)
	j, err = j.OrWith(filter(t, "id", node.OpEq, 1))
	require.NoError(t, err)

	c := New(dialect.Postgres)
	first, err := c.Compile(j)
	require.NoError(t, err)
	second, err := c.Compile(j)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
}

func TestCompile_Concurrent(t *testing.T) {
	j, err := node.NewJoinWithOn(node.InnerJoin, table(t, "person"), filter(t, "gender", node.OpEq, "male"))
	require.NoError(t, err)

	c := New(dialect.Postgres)
	want, err := c.Compile(j)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*CompiledQuery, 16)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Compile(j)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}

func TestCompile_UnsupportedConstructs(t *testing.T) {
	bareInner, err := node.NewJoin(node.InnerJoin, table(t, "person"))
	require.NoError(t, err)
	bareLeft, err := node.NewJoin(node.LeftJoin, table(t, "person"))
	require.NoError(t, err)
	full, err := node.NewJoinWithOn(node.FullJoin, table(t, "pet"), filter(t, "id", node.OpEq, 1))
	require.NoError(t, err)
	ilike, err := node.NewFilter(column(t, "first_name"), node.OpILike, node.NewValue("j%"))
	require.NoError(t, err)
	del, err := node.NewDeleteQuery(table(t, "pet"))
	require.NoError(t, err)
	del, err = del.WithReturning(column(t, "id"))
	require.NoError(t, err)

	testCases := []struct {
		name    string
		dialect dialect.Dialect
		n       node.Node
	}{
		{name: "postgres bare inner join", dialect: dialect.Postgres, n: bareInner},
		{name: "mysql bare left join", dialect: dialect.MySQL, n: bareLeft},
		{name: "mysql full join", dialect: dialect.MySQL, n: full},
		{name: "sqlite ilike", dialect: dialect.SQLite, n: ilike},
		{name: "mysql returning", dialect: dialect.MySQL, n: del},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := New(tc.dialect).Compile(tc.n)
			require.Error(t, err)
			assert.Nil(t, out, "no partial output on failure")
			assert.True(t, IsUnsupportedConstruct(err), "want UNSUPPORTED_CONSTRUCT, got %v", err)
			assert.Contains(t, err.Error(), tc.dialect.Name())
		})
	}

	// The same bare inner join is fine where the dialect allows it.
	out := compile(t, dialect.MySQL, bareInner)
	assert.Equal(t, "INNER JOIN `person`", out.SQL)
}

func TestCompile_MalformedTree(t *testing.T) {
	testCases := []struct {
		name string
		n    node.Node
	}{
		{name: "nil", n: nil},
		{name: "zero join", n: &node.JoinNode{}},
		{name: "zero filter", n: &node.FilterNode{}},
		{name: "typed nil select", n: (*node.SelectQueryNode)(nil)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := New(nil).Compile(tc.n)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, IsMalformedTree(err), "want MALFORMED_TREE, got %v", err)
		})
	}
}

func TestNew_DefaultsToGeneric(t *testing.T) {
	assert.Same(t, dialect.Generic, New(nil).Dialect())
}

func TestFingerprint(t *testing.T) {
	a := &CompiledQuery{SQL: "SELECT ?", Parameters: []any{1}}
	b := &CompiledQuery{SQL: "SELECT ?", Parameters: []any{"1"}}
	c := &CompiledQuery{SQL: "SELECT ?", Parameters: []any{1}}

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, a.Fingerprint(), c.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
}

func TestFingerprint_TimeIsHashedAsInstant(t *testing.T) {
	now := time.Now()
	fp := func(v any) string {
		return (&CompiledQuery{SQL: "SELECT ?", Parameters: []any{v}}).Fingerprint()
	}

	assert.Equal(t, fp(now), fp(now.Round(0)), "monotonic reading")
	assert.Equal(t, fp(now), fp(now.In(time.FixedZone("UTC+3", 3*60*60))), "location")
	assert.NotEqual(t, fp(now), fp(now.Add(time.Nanosecond)))
}

func TestFingerprint_PointersAreHashedByValue(t *testing.T) {
	x, y, z := 5, 5, 6
	fp := func(v any) string {
		return (&CompiledQuery{SQL: "SELECT ?", Parameters: []any{v}}).Fingerprint()
	}

	assert.Equal(t, fp(&x), fp(&y))
	assert.Equal(t, fp(x), fp(&x))
	assert.NotEqual(t, fp(&x), fp(&z))
	assert.Equal(t, fp(nil), fp((*int)(nil)))

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, fp(at), fp(&at))
}
