package cli

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querykit/internal/testutil"
)

func queryFile(name string) string {
	return filepath.Join("testdata", "queries", name+".yaml")
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// petstoreFile creates a seeded SQLite database file and returns its path.
func petstoreFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "petstore.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(testutil.PetstoreSQL())
	require.NoError(t, err)
	return path
}
