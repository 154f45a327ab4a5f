package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectsCommandText(t *testing.T) {
	cmd := NewDialectsCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "generic"))
	assert.Contains(t, lines[1], " - ")
	assert.True(t, strings.HasPrefix(lines[2], "mysql"))
	assert.Contains(t, lines[2], "`name`")
	assert.Contains(t, lines[2], "right_join, unconditioned_inner_join")
	assert.True(t, strings.HasPrefix(lines[3], "postgres"))
	assert.Contains(t, lines[3], "$1")
	assert.True(t, strings.HasPrefix(lines[4], "sqlite"))
	assert.NotContains(t, lines[4], "ilike")
}

func TestDialectsCommandJSON(t *testing.T) {
	cmd := NewDialectsCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd)
	require.NoError(t, err)

	var resp struct {
		Data []DialectInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 4)

	byName := map[string]DialectInfo{}
	for _, info := range resp.Data {
		byName[info.Name] = info
	}

	assert.Equal(t, DialectInfo{
		Name:         "postgres",
		Placeholder:  "$1",
		Quoted:       `"name"`,
		Driver:       "postgres",
		Capabilities: []string{"returning", "right_join", "full_join", "ilike"},
	}, byName["postgres"])
	assert.Equal(t, "name", byName["generic"].Quoted)
	assert.Empty(t, byName["generic"].Driver)
	assert.Equal(t, "sqlite3", byName["sqlite"].Driver)
	assert.Len(t, byName["generic"].Capabilities, 6)
}

func TestDialectsCommandRejectsArgs(t *testing.T) {
	cmd := NewDialectsCommand(&RootOptions{Format: "text"})
	_, _, err := execute(cmd, "postgres")
	require.Error(t, err)
}
