package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "petstore.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "petstore", scenario.Name)
	assert.Equal(t, []string{"sqlite", "postgres"}, scenario.Dialects)
	assert.Equal(t, filepath.Join("testdata", "schema"), scenario.Schema)
	assert.Equal(t, filepath.Join("testdata", "petstore.sql"), scenario.Seed)
	require.Len(t, scenario.Cases, 6)
	assert.Equal(t, "select", scenario.Cases[0].Query.Kind())
	require.NotNil(t, scenario.Cases[0].Execute)
	assert.Equal(t, 1, *scenario.Cases[0].Execute.Rows)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		message string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: y\ndialects: [generic]\ncase: []\n",
			message: "field case not found",
		},
		{
			name:    "missing description",
			content: "name: x\ndialects: [generic]\ncases: [{name: c, query: {raw: {sql: x}}}]\n",
			message: "Description",
		},
		{
			name:    "no cases",
			content: "name: x\ndescription: y\ndialects: [generic]\ncases: []\n",
			message: "Cases",
		},
		{
			name:    "unknown dialect",
			content: "name: x\ndescription: y\ndialects: [oracle]\ncases: [{name: c, query: {raw: {sql: x}}}]\n",
			message: "unknown dialect",
		},
		{
			name:    "query without statement",
			content: "name: x\ndescription: y\ndialects: [generic]\ncases: [{name: c, query: {name: q}}]\n",
			message: "exactly one",
		},
		{
			name: "expectation for unlisted dialect",
			content: "name: x\ndescription: y\ndialects: [generic]\n" +
				"cases: [{name: c, query: {raw: {sql: x}}, expect: {mysql: {sql: x}}}]\n",
			message: "unlisted dialect",
		},
		{
			name: "sql and error",
			content: "name: x\ndescription: y\ndialects: [generic]\n" +
				"cases: [{name: c, query: {raw: {sql: x}}, expect: {generic: {sql: x, error: E}}}]\n",
			message: "SQL",
		},
		{
			name:    "execute without seed",
			content: "name: x\ndescription: y\ndialects: [generic]\ncases: [{name: c, query: {raw: {sql: x}}, execute: {rows: 1}}]\n",
			message: "seed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tc.content), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestParseScenario_ResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "schema"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed.sql"), []byte("SELECT 1;"), 0o644))

	scenario, err := ParseScenario([]byte(`
name: x
description: y
dialects: [sqlite]
schema: schema
seed: seed.sql
cases: [{name: c, query: {raw: {sql: "SELECT 1"}}}]
`), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "schema"), scenario.Schema)
	assert.Equal(t, filepath.Join(dir, "seed.sql"), scenario.Seed)
}

func TestParseScenario_MissingSeed(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: x
description: y
dialects: [sqlite]
seed: nope.sql
cases: [{name: c, query: {raw: {sql: "SELECT 1"}}}]
`), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed script not found")
}
