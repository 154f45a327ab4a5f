// Command querykit compiles, validates and runs declarative SQL query
// documents.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/querykit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
