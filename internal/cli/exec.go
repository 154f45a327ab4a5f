package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/querykit/internal/compiler"
	"github.com/roach88/querykit/internal/executor"
	"github.com/roach88/querykit/internal/schema"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	DSN    string
	Schema string
	Tx     bool
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <query.yaml>",
		Short: "Compile a query document and run it against a database",
		Long: `Compile a YAML query document for the target dialect and run it
against the database named by --dsn (or the dsn key of the config file).

Drivers: sqlite (mattn/go-sqlite3), postgres (lib/pq), mysql
(go-sql-driver/mysql). The generic dialect cannot be executed.

With --schema the query is validated before it is sent. With --tx it runs
inside a transaction that is rolled back on failure.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "data source name")
	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "validate against this CUE schema directory first")
	cmd.Flags().BoolVar(&opts.Tx, "tx", false, "run inside a transaction")

	return cmd
}

func runExec(cmd *cobra.Command, opts *ExecOptions, path string) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	d, err := opts.dialect()
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDialect, err.Error(), nil)
	}

	dsn := opts.DSN
	if dsn == "" {
		dsn = opts.config().DSN
	}
	if dsn == "" {
		return formatter.fail(ExitCommandError, ErrCodeExecFailed,
			"no data source: use --dsn or set dsn in the config file", nil)
	}

	_, q, err := loadQuery(formatter, path)
	if err != nil {
		return err
	}

	if opts.Schema != "" {
		sch, err := schema.Load(opts.Schema)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeSchema, err.Error(), nil)
		}
		n, _ := q.Node()
		if err := sch.Validate(n); err != nil {
			return formatter.fail(ExitFailure, ErrCodeSchema, err.Error(), problems(err))
		}
	}

	db, d, err := executor.Open(ctx, d.Name(), dsn)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeExecFailed, err.Error(), nil)
	}
	defer db.Close()

	exec := executor.New(db, d, executor.WithLogger(opts.logger(formatter.GetErrWriter())))

	var res *executor.Result
	if opts.Tx {
		err = exec.Transaction(ctx, func(tx *executor.Executor) error {
			var txErr error
			res, txErr = tx.Execute(ctx, q)
			return txErr
		})
	} else {
		res, err = exec.Execute(ctx, q)
	}
	if err != nil {
		code := ErrCodeExecFailed
		if compiler.IsUnsupportedConstruct(err) {
			code = ErrCodeCompileFailed
		}
		return formatter.fail(ExitFailure, code, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(res)
	}
	writeResult(cmd.OutOrStdout(), res)
	return nil
}

// writeResult prints rows as an aligned table with sorted column headers,
// followed by a summary line.
func writeResult(w io.Writer, res *executor.Result) {
	if res.Rows == nil {
		fmt.Fprintf(w, "%d row(s) affected", res.NumAffectedRows)
		if res.InsertID != nil {
			fmt.Fprintf(w, ", last insert id %d", *res.InsertID)
		}
		fmt.Fprintln(w)
		return
	}

	columns := map[string]struct{}{}
	for _, row := range res.Rows {
		for col := range row {
			columns[col] = struct{}{}
		}
	}
	names := make([]string, 0, len(columns))
	for col := range columns {
		names = append(names, col)
	}
	sort.Strings(names)

	if len(names) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for i, col := range names {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, col)
		}
		fmt.Fprintln(tw)
		for _, row := range res.Rows {
			for i, col := range names {
				if i > 0 {
					fmt.Fprint(tw, "\t")
				}
				fmt.Fprint(tw, formatCell(row[col]))
			}
			fmt.Fprintln(tw)
		}
		tw.Flush()
	}
	fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}
