package harness

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/querykit/internal/builder"
	"github.com/roach88/querykit/internal/compiler"
	"github.com/roach88/querykit/internal/dialect"
	"github.com/roach88/querykit/internal/executor"
	"github.com/roach88/querykit/internal/node"
	"github.com/roach88/querykit/internal/schema"
	"github.com/roach88/querykit/internal/testutil"
)

// Harness holds the per-run collaborators of a scenario.
type Harness struct {
	schema *schema.Schema
	exec   *executor.Executor
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the CUE schema, if any
//  2. Open a fresh in-memory SQLite database and run the seed script, if any
//  3. Build, validate and compile every case for every dialect
//  4. Execute cases with an execute block, in order
//  5. Return result with pass/fail, compiled output and errors
//
// An error is returned only when the scenario cannot be set up. Failed
// expectations are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	if scenario.Schema != "" {
		sch, err := schema.Load(scenario.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to load schema: %w", err)
		}
		h.schema = sch
	}

	if scenario.Seed != "" {
		db, err := openSeeded(ctx, scenario.Seed)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		h.exec = executor.New(db, dialect.SQLite,
			executor.WithLogger(h.logger),
			executor.WithIDGenerator(testutil.NewSequentialIDGenerator(scenario.Name)),
		)
	}

	result := NewResult(scenario.Name)
	for _, c := range scenario.Cases {
		h.runCase(ctx, scenario, c, result)
	}
	return result, nil
}

func openSeeded(ctx context.Context, seedPath string) (*sql.DB, error) {
	script, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed script: %w", err)
	}

	db, _, err := executor.Open(ctx, "sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(script)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run seed script: %w", err)
	}
	return db, nil
}

func (h *Harness) runCase(ctx context.Context, s *Scenario, c Case, result *Result) {
	q, root, err := h.prepare(c)

	for _, name := range s.Dialects {
		cr := CaseResult{Case: c.Name, Dialect: name}
		if err != nil {
			cr.Error, cr.Message = errorCode(err), err.Error()
		} else if d, lookupErr := dialect.Lookup(name); lookupErr != nil {
			cr.Error, cr.Message = errorCode(lookupErr), lookupErr.Error()
		} else if out, compileErr := compiler.New(d).Compile(root); compileErr != nil {
			cr.Error, cr.Message = errorCode(compileErr), compileErr.Error()
		} else {
			cr.SQL, cr.Params = out.SQL, out.Parameters
		}
		result.Cases = append(result.Cases, cr)

		if exp, ok := c.Expect[name]; ok {
			for _, msg := range checkExpectation(cr, exp) {
				result.AddError(msg)
			}
		}
	}

	if c.Execute == nil {
		return
	}

	er := ExecutionResult{Case: c.Name}
	if err != nil {
		er.Error, er.Message = errorCode(err), err.Error()
	} else if res, execErr := h.exec.Execute(ctx, q); execErr != nil {
		er.Error, er.Message = errorCode(execErr), execErr.Error()
	} else {
		er.Rows, er.Affected = len(res.Rows), res.NumAffectedRows
	}
	result.Executions = append(result.Executions, er)

	for _, msg := range checkExecution(er, *c.Execute) {
		result.AddError(msg)
	}
}

// prepare builds the case query and validates it against the schema.
func (h *Harness) prepare(c Case) (builder.Query, node.Node, error) {
	q, err := c.Query.Build()
	if err != nil {
		return nil, nil, err
	}
	root, err := q.Node()
	if err != nil {
		return nil, nil, err
	}
	if h.schema != nil {
		if err := h.schema.Validate(root); err != nil {
			return nil, nil, err
		}
	}
	return q, root, nil
}
