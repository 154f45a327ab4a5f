package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/querykit/internal/config"
	"github.com/roach88/querykit/internal/dialect"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Dialect string // overrides the config file; "" means config, then generic
	Config  string // config file path; "" means ./querykit.yaml if present

	settings *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the querykit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "querykit",
		Short: "querykit - SQL query builder and compiler",
		Long: `Build SQL queries from declarative YAML documents, compile them to
parameterized SQL for a target dialect, validate them against a CUE schema
and run them against a database.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(opts.Config)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			opts.settings = cfg

			// Flags win over the config file
			if !cmd.Flags().Changed("format") {
				opts.Format = cfg.Format
			}
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Dialect, "dialect", "d", "", "target dialect (default from config, else generic)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ./"+config.DefaultFile+" if present)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewDialectsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// config returns the loaded configuration, or the defaults when a command
// runs without the root command.
func (o *RootOptions) config() *config.Config {
	if o.settings == nil {
		return config.Default()
	}
	return o.settings
}

// dialect resolves the target dialect from the flag, then the config file.
func (o *RootOptions) dialect() (dialect.Dialect, error) {
	name := o.Dialect
	if name == "" {
		name = o.config().Dialect
	}
	return dialect.Lookup(name)
}

// logger returns a logger writing to w. --verbose lowers the level to debug.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	cfg := *o.config()
	cfg.Format = o.Format
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg.Logger(w)
}

// formatter creates the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
