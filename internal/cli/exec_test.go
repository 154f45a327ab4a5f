package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querykit/internal/config"
	"github.com/roach88/querykit/internal/executor"
)

func TestExecCommandSelect(t *testing.T) {
	dsn := petstoreFile(t)

	cmd := NewExecCommand(&RootOptions{Format: "text", Dialect: "sqlite"})
	out, _, err := execute(cmd, "--dsn", dsn, queryFile("dog_owners"))
	require.NoError(t, err)

	assert.Equal(t, "first_name\nArnold\n(1 rows)\n", out)
}

func TestExecCommandInsertReturningInTransaction(t *testing.T) {
	dsn := petstoreFile(t)

	cmd := NewExecCommand(&RootOptions{Format: "json", Dialect: "sqlite"})
	out, _, err := execute(cmd, "--dsn", dsn, "--tx", "--schema", schemaDir, queryFile("adopt"))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   executor.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data.ExecutionID)
	require.Len(t, resp.Data.Rows, 1)
	assert.Equal(t, float64(4), resp.Data.Rows[0]["id"])
	assert.Equal(t, int64(1), resp.Data.NumAffectedRows)
}

func TestExecCommandDSNFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Dialect = "sqlite"
	cfg.DSN = petstoreFile(t)

	cmd := NewExecCommand(&RootOptions{Format: "text", settings: cfg})
	out, _, err := execute(cmd, queryFile("dog_owners"))
	require.NoError(t, err)
	assert.Contains(t, out, "Arnold")
}

func TestExecCommandLogsToStderr(t *testing.T) {
	dsn := petstoreFile(t)

	cmd := NewExecCommand(&RootOptions{Format: "text", Dialect: "sqlite", Verbose: true})
	out, errOut, err := execute(cmd, "--dsn", dsn, queryFile("dog_owners"))
	require.NoError(t, err)

	assert.NotContains(t, out, "query executed")
	assert.Contains(t, errOut, "executing query")
	assert.Contains(t, errOut, "query executed")
	assert.Contains(t, errOut, "execution_id=")
}

func TestExecCommandSchemaProblems(t *testing.T) {
	dsn := petstoreFile(t)

	cmd := NewExecCommand(&RootOptions{Format: "text", Dialect: "sqlite"})
	out, _, err := execute(cmd, "--dsn", dsn, "--schema", schemaDir, queryFile("bad_column"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]")
}

func TestExecCommandDatabaseError(t *testing.T) {
	dsn := petstoreFile(t)

	// Without --schema the unknown columns reach the database.
	cmd := NewExecCommand(&RootOptions{Format: "text", Dialect: "sqlite"})
	out, _, err := execute(cmd, "--dsn", dsn, queryFile("bad_column"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]")
}

func TestExecCommandCommandErrors(t *testing.T) {
	testCases := []struct {
		name    string
		dialect string
		args    []string
		code    string
	}{
		{name: "no dsn", dialect: "sqlite", args: []string{queryFile("dog_owners")}, code: "E007"},
		{name: "generic has no driver", dialect: "generic", args: []string{"--dsn", "x.db", queryFile("dog_owners")}, code: "E007"},
		{name: "unknown dialect", dialect: "oracle", args: []string{"--dsn", "x.db", queryFile("dog_owners")}, code: "E009"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := NewExecCommand(&RootOptions{Format: "text", Dialect: tc.dialect})
			out, _, err := execute(cmd, tc.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tc.code+"]")
		})
	}
}

func TestWriteResult(t *testing.T) {
	id := int64(9)
	testCases := []struct {
		name string
		res  *executor.Result
		want string
	}{
		{
			name: "affected",
			res:  &executor.Result{NumAffectedRows: 2},
			want: "2 row(s) affected\n",
		},
		{
			name: "insert id",
			res:  &executor.Result{NumAffectedRows: 1, InsertID: &id},
			want: "1 row(s) affected, last insert id 9\n",
		},
		{
			name: "no rows",
			res:  &executor.Result{Rows: []map[string]any{}},
			want: "(0 rows)\n",
		},
		{
			name: "null cells and sorted columns",
			res: &executor.Result{Rows: []map[string]any{
				{"name": "Jennifer", "middle_name": nil},
				{"name": "Sylvester", "middle_name": "Gardenzio"},
			}},
			want: "middle_name  name\nNULL         Jennifer\nGardenzio    Sylvester\n(2 rows)\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			writeResult(buf, tc.res)
			assert.Equal(t, tc.want, buf.String())
		})
	}
}
