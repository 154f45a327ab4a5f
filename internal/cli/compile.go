package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/querykit/internal/dialect"
	"github.com/roach88/querykit/internal/node"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	All bool
}

// CompileResult is the compiled output of one query for one dialect.
type CompileResult struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Dialect     string `json:"dialect"`
	SQL         string `json:"sql,omitempty"`
	Parameters  []any  `json:"parameters,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query.yaml>",
		Short: "Compile a query document to parameterized SQL",
		Long: `Compile a YAML query document to SQL and an ordered parameter list
for the target dialect.

With --all the query is compiled for every registered dialect. Dialects
that cannot render the query are reported without failing the command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "compile for every dialect")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *CompileOptions, path string) error {
	formatter := opts.formatter(cmd)

	doc, q, err := loadQuery(formatter, path)
	if err != nil {
		return err
	}
	n, _ := q.Node()

	var dialects []dialect.Dialect
	if opts.All {
		for _, name := range dialect.Names() {
			d, _ := dialect.Lookup(name)
			dialects = append(dialects, d)
		}
	} else {
		d, err := opts.dialect()
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeDialect, err.Error(), nil)
		}
		dialects = []dialect.Dialect{d}
	}

	results := make([]CompileResult, 0, len(dialects))
	for _, d := range dialects {
		res := CompileResult{Name: queryName(doc, path), Kind: doc.Kind(), Dialect: d.Name()}
		compiled, err := q.Compile(d)
		if err != nil {
			if !opts.All {
				code := ErrCodeCompileFailed
				if node.IsMalformedTree(err) {
					code = ErrCodeBuildFailed
				}
				return formatter.fail(ExitFailure, code, err.Error(), res)
			}
			res.Error = err.Error()
		} else {
			res.SQL = compiled.SQL
			res.Parameters = compiled.Parameters
			res.Fingerprint = compiled.Fingerprint()
		}
		formatter.VerboseLog("compiled %s node for %s", n.Kind(), d.Name())
		results = append(results, res)
	}

	if formatter.Format == "json" {
		if opts.All {
			return formatter.Success(results)
		}
		return formatter.Success(results[0])
	}

	w := cmd.OutOrStdout()
	for i, res := range results {
		if opts.All {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "-- %s\n", res.Dialect)
		}
		if res.Error != "" {
			fmt.Fprintf(w, "✗ %s\n", res.Error)
			continue
		}
		fmt.Fprintln(w, res.SQL)
		fmt.Fprintf(w, "params: %s\n", formatParams(res.Parameters))
		if opts.Verbose {
			fmt.Fprintf(w, "fingerprint: %s\n", res.Fingerprint)
		}
	}
	return nil
}
