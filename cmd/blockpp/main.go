// Command blockpp is the CLI front end for the preprocessor (§10.3): a
// single "expand" subcommand that wires a File Registry and Directive
// Registry from flags (and an optional YAML manifest), then streams the
// Expander's output to stdout one line at a time.
//
// Grounded on raymyers/ralph-cc's cmd/ralph-cc/main.go: a cobra root
// command built by newRootCmd(out, errOut io.Writer), preprocessor flags
// (-D, -I) bound with StringArrayVarP, SilenceUsage/SilenceErrors set so
// the command's own RunE error handling controls output, and main() reduced
// to os.Exit(run()).
package main

import (
	"os"

	"github.com/blockpp/blockpp/cmd/blockpp/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
