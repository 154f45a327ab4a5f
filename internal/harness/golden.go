package harness

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as stable text for golden comparison. Errors are
// rendered by code only, so message wording can change without churning
// golden files.
func Snapshot(r *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", r.Scenario)

	for _, c := range r.Cases {
		fmt.Fprintf(&buf, "\n--- %s [%s]\n", c.Case, c.Dialect)
		if c.Error != "" {
			fmt.Fprintf(&buf, "error: %s\n", c.Error)
			continue
		}
		fmt.Fprintf(&buf, "sql: %s\n", c.SQL)
		fmt.Fprintf(&buf, "params: %s\n", encodeParams(c.Params))
	}

	for _, e := range r.Executions {
		fmt.Fprintf(&buf, "\n--- %s [execute]\n", e.Case)
		if e.Error != "" {
			fmt.Fprintf(&buf, "error: %s\n", e.Error)
			continue
		}
		fmt.Fprintf(&buf, "rows: %d\n", e.Rows)
		fmt.Fprintf(&buf, "affected: %d\n", e.Affected)
	}

	return buf.Bytes()
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot run or any expectation failed.
// A snapshot mismatch fails t via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	AssertGolden(t, scenario.Name, result)

	if !result.Pass {
		return fmt.Errorf("scenario %s failed:\n%s", scenario.Name, strings.Join(result.Errors, "\n"))
	}
	return nil
}

// AssertGolden compares an existing result against the golden file for name.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
