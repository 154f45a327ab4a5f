package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/roach88/querykit/internal/builder"
	"github.com/roach88/querykit/internal/querydoc"
)

// loadQuery reads a query document and builds it. A missing or unparseable
// file is a command error; a document that cannot be built is a failure.
func loadQuery(f *OutputFormatter, path string) (*querydoc.Document, builder.Query, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, f.fail(ExitCommandError, ErrCodeNotFound, "query file not found: "+path, nil)
	}

	doc, err := querydoc.Load(path)
	if err != nil {
		return nil, nil, f.fail(ExitCommandError, ErrCodeParseFailed, err.Error(), nil)
	}

	q, err := doc.Build()
	if err != nil {
		return nil, nil, f.fail(ExitFailure, ErrCodeBuildFailed, err.Error(), nil)
	}
	return doc, q, nil
}

// queryName returns the document name, falling back to the file path.
func queryName(doc *querydoc.Document, path string) string {
	if doc.Name != "" {
		return doc.Name
	}
	return path
}

// formatParams renders a parameter list as a single JSON line.
func formatParams(params []any) string {
	if len(params) == 0 {
		return "[]"
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%v", params)
	}
	return string(data)
}
