package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/querykit/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Schema string
}

// ValidationResult reports the schema problems of one query document.
type ValidationResult struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <query.yaml>...",
		Short: "Check query documents against a CUE schema",
		Long: `Check that every table and column referenced by the query documents
exists in the CUE schema.

The schema directory comes from --schema or the schema key of the config
file. Every problem is reported, not just the first.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "CUE schema directory")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions, paths []string) error {
	formatter := opts.formatter(cmd)

	dir := opts.Schema
	if dir == "" {
		dir = opts.config().Schema
	}
	if dir == "" {
		return formatter.fail(ExitCommandError, ErrCodeSchema,
			"no schema directory: use --schema or set schema in the config file", nil)
	}

	sch, err := schema.Load(dir)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeSchema, err.Error(), nil)
	}
	formatter.VerboseLog("loaded schema %s (%d tables)", dir, len(sch.Tables))

	results := make([]ValidationResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		_, q, err := loadQuery(formatter, path)
		if err != nil {
			return err
		}
		n, _ := q.Node()

		res := ValidationResult{File: path, Valid: true}
		if err := sch.Validate(n); err != nil {
			res.Valid = false
			res.Problems = problems(err)
			failed++
		}
		results = append(results, res)
	}

	if formatter.Format == "json" {
		if failed > 0 {
			return formatter.fail(ExitFailure, ErrCodeSchema,
				fmt.Sprintf("%d of %d queries failed validation", failed, len(paths)), results)
		}
		return formatter.Success(results)
	}

	w := cmd.OutOrStdout()
	for _, res := range results {
		if res.Valid {
			fmt.Fprintf(w, "✓ %s\n", res.File)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", res.File)
		for _, p := range res.Problems {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d queries failed validation", failed, len(paths)))
	}
	return nil
}

// problems flattens a joined validation error into one message per problem.
func problems(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
