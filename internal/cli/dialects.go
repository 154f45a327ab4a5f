package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/querykit/internal/dialect"
	"github.com/roach88/querykit/internal/executor"
)

// DialectInfo describes one registered dialect.
type DialectInfo struct {
	Name         string   `json:"name"`
	Placeholder  string   `json:"placeholder"`
	Quoted       string   `json:"quoted"`
	Driver       string   `json:"driver,omitempty"`
	Capabilities []string `json:"capabilities"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "dialects",
		Short:         "List the supported SQL dialects and their capabilities",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialects(cmd, rootOpts)
		},
	}
}

func describeDialect(d dialect.Dialect) DialectInfo {
	info := DialectInfo{
		Name:         d.Name(),
		Placeholder:  d.Placeholder(1),
		Quoted:       d.QuoteIdentifier("name"),
		Capabilities: []string{},
	}
	if driver, err := executor.DriverName(d); err == nil {
		info.Driver = driver
	}
	for _, c := range dialect.SupportedCapabilities(d) {
		info.Capabilities = append(info.Capabilities, string(c))
	}
	return info
}

func runDialects(cmd *cobra.Command, opts *RootOptions) error {
	formatter := opts.formatter(cmd)

	infos := make([]DialectInfo, 0, len(dialect.Names()))
	for _, name := range dialect.Names() {
		d, err := dialect.Lookup(name)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeDialect, err.Error(), nil)
		}
		infos = append(infos, describeDialect(d))
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPLACEHOLDER\tQUOTED\tDRIVER\tCAPABILITIES")
	for _, info := range infos {
		driver := info.Driver
		if driver == "" {
			driver = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			info.Name, info.Placeholder, info.Quoted, driver, strings.Join(info.Capabilities, ", "))
	}
	return tw.Flush()
}
