package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *Scenario {
	t.Helper()
	scenario, err := ParseScenario([]byte(src), "")
	require.NoError(t, err)
	return scenario
}

func TestRun_Passes(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "join_merging.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Cases, 5*4)
	assert.Empty(t, result.Executions)
}

func TestRun_ReportsMismatches(t *testing.T) {
	scenario := parse(t, `
name: mismatches
description: every kind of failed expectation
dialects: [generic, mysql]
cases:
  - name: wrong sql
    query: {select: {from: [pet], where: [{column: id, op: "=", value: 1}]}}
    expect:
      generic: {sql: "SELECT * FROM pets WHERE id = ?", params: [1]}
  - name: wrong params
    query: {select: {from: [pet], where: [{column: id, op: "=", value: 1}]}}
    expect:
      generic: {sql: "SELECT * FROM pet WHERE id = ?", params: [2]}
  - name: missing error
    query: {select: {from: [pet]}}
    expect:
      generic: {error: UNSUPPORTED_CONSTRUCT}
  - name: unexpected error
    query: {delete: {from: pet, returning: [id]}}
    expect:
      mysql: {sql: "DELETE FROM pet RETURNING id"}
`)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "wrong sql [generic]: SQL mismatch")
	assert.Contains(t, result.Errors[1], "wrong params [generic]: params mismatch")
	assert.Contains(t, result.Errors[2], "missing error [generic]: expected error UNSUPPORTED_CONSTRUCT")
	assert.Contains(t, result.Errors[3], "unexpected error [mysql]: unexpected error")
}

func TestRun_ConstructionErrorsApplyToEveryDialect(t *testing.T) {
	scenario := parse(t, `
name: bad operator
description: builder errors are reported per dialect
dialects: [generic, postgres]
cases:
  - name: triple equals
    query: {select: {from: [pet], where: [{column: id, op: "===", value: 1}]}}
    expect:
      generic: {error: INVALID_NODE}
      postgres: {error: INVALID_NODE}
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	for _, c := range result.Cases {
		assert.Equal(t, "INVALID_NODE", c.Error)
		assert.Empty(t, c.SQL)
	}
}

func TestRun_ExecutesInOrder(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "petstore.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Executions, 5)
	assert.Equal(t, ExecutionResult{Case: "adopt", Rows: 1, Affected: 1}, result.Executions[2])
}

func TestRun_BadSchema(t *testing.T) {
	scenario := parse(t, `
name: x
description: y
dialects: [generic]
cases: [{name: c, query: {raw: {sql: "SELECT 1"}}}]
`)
	scenario.Schema = filepath.Join(t.TempDir(), "empty")

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load schema")
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeGeneric, errorCode(assert.AnError))
}

func TestEncodeParams(t *testing.T) {
	assert.Equal(t, "[]", encodeParams(nil))
	assert.Equal(t, `["a",1,true,null]`, encodeParams([]any{"a", int64(1), true, nil}))
	assert.Equal(t, encodeParams([]any{1}), encodeParams([]any{int64(1)}))
}
