// Package cli builds and runs the blockpp cobra command tree, following
// raymyers/ralph-cc's cmd/ralph-cc/main.go shape: newRootCmd(out, errOut)
// returns a *cobra.Command with SilenceUsage/SilenceErrors set, package
// vars hold the flag destinations, and Run wraps Execute with the process
// exit-code translation ralph-cc's own run() performs.
package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// Run parses args against the blockpp root command and returns the process
// exit code: 0 on success, 1 on any error (the triggering pperrors.Kind, if
// any, has already been written to errOut by runExpand).
func Run(args []string, out, errOut io.Writer) int {
	root := newRootCmd(out, errOut)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "blockpp",
		Short:         "blockpp expands block-oriented preprocessor directives in text files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.AddCommand(newExpandCmd(out, errOut))
	return root
}
