package harness

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/querykit/internal/compiler"
	"github.com/roach88/querykit/internal/node"
	"github.com/roach88/querykit/internal/schema"
)

// ErrCodeGeneric is reported for errors without a code of their own, such as
// database failures.
const ErrCodeGeneric = "ERROR"

// errorCode extracts the code of a typed querykit error.
func errorCode(err error) string {
	var ne *node.Error
	if errors.As(err, &ne) {
		return string(ne.Code)
	}
	var ce *compiler.Error
	if errors.As(err, &ce) {
		return string(ce.Code)
	}
	var se *schema.Error
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return ErrCodeGeneric
}

// checkExpectation compares one compiled case against its expectation and
// returns a message per mismatch.
func checkExpectation(cr CaseResult, exp Expectation) []string {
	prefix := fmt.Sprintf("%s [%s]", cr.Case, cr.Dialect)

	if exp.Error != "" {
		if cr.Error == "" {
			return []string{fmt.Sprintf("%s: expected error %s, compiled to %s", prefix, exp.Error, cr.SQL)}
		}
		if cr.Error != exp.Error {
			return []string{fmt.Sprintf("%s: expected error %s, got %s", prefix, exp.Error, cr.Message)}
		}
		return nil
	}

	if cr.Error != "" {
		return []string{fmt.Sprintf("%s: unexpected error: %s", prefix, cr.Message)}
	}

	var msgs []string
	if cr.SQL != exp.SQL {
		msgs = append(msgs, fmt.Sprintf("%s: SQL mismatch\n  expected: %s\n  actual:   %s", prefix, exp.SQL, cr.SQL))
	}
	if want, got := encodeParams(exp.Params), encodeParams(cr.Params); want != got {
		msgs = append(msgs, fmt.Sprintf("%s: params mismatch\n  expected: %s\n  actual:   %s", prefix, want, got))
	}
	return msgs
}

// checkExecution compares an execution outcome against its expectation.
func checkExecution(er ExecutionResult, exp Execution) []string {
	prefix := fmt.Sprintf("%s [execute]", er.Case)

	if exp.Error != "" {
		if er.Error != exp.Error {
			return []string{fmt.Sprintf("%s: expected error %s, got %q", prefix, exp.Error, er.Error)}
		}
		return nil
	}
	if er.Error != "" {
		return []string{fmt.Sprintf("%s: unexpected error: %s", prefix, er.Message)}
	}

	var msgs []string
	if exp.Rows != nil && *exp.Rows != er.Rows {
		msgs = append(msgs, fmt.Sprintf("%s: expected %d rows, got %d", prefix, *exp.Rows, er.Rows))
	}
	if exp.Affected != nil && *exp.Affected != er.Affected {
		msgs = append(msgs, fmt.Sprintf("%s: expected %d affected rows, got %d", prefix, *exp.Affected, er.Affected))
	}
	return msgs
}

// encodeParams renders parameters as JSON so that YAML-decoded expectations
// (int, float64) compare equal to compiled values (int64, ...).
func encodeParams(params []any) string {
	if len(params) == 0 {
		return "[]"
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%v", params)
	}
	return string(data)
}
