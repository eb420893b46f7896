package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blockpp/blockpp/evalctx"
	"github.com/blockpp/blockpp/expand"
	"github.com/blockpp/blockpp/logsink"
	"github.com/blockpp/blockpp/pperrors"
	"github.com/blockpp/blockpp/registry"
)

// Flag destinations for the expand subcommand, following ralph-cc's
// package-level var convention for cobra flag binding.
var (
	prefixFlag   string
	defineFlags  []string
	includeDirs  []string
	manifestPath string
)

func newExpandCmd(out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "expand <root-file>",
		Short:         "expand a root file and its includes/imports to stdout",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(out, errOut, args[0])
		},
	}
	cmd.Flags().StringVar(&prefixFlag, "prefix", "#", "directive prefix character")
	cmd.Flags().StringArrayVarP(&defineFlags, "define", "D", nil, "predefine NAME or NAME=EXPR")
	cmd.Flags().StringArrayVarP(&includeDirs, "include", "I", nil, "add a search root for include/import")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "optional YAML manifest of files/search roots/defines")
	return cmd
}

func runExpand(out, errOut io.Writer, rootFile string) error {
	prefix, err := directivePrefix(prefixFlag)
	if err != nil {
		return reportAndReturn(errOut, err)
	}

	files := registry.NewFiles()
	dirs := registry.NewDirectives()
	if err := registry.RegisterBuiltins(dirs); err != nil {
		return reportAndReturn(errOut, err)
	}

	var m *manifest
	if manifestPath != "" {
		m, err = loadManifest(manifestPath)
		if err != nil {
			return reportAndReturn(errOut, err)
		}
		for name, path := range m.Files {
			if err := registerManifestFile(files, name, path); err != nil {
				return reportAndReturn(errOut, err)
			}
		}
	}

	// Flag-supplied search roots are searched before manifest ones, and the
	// root file's own directory is always a fallback, so a bare filename
	// root argument resolves without needing -I at all.
	for _, dir := range includeDirs {
		files.AddSearchRoot(dir)
	}
	if m != nil {
		for _, root := range m.SearchRoots {
			files.AddSearchRoot(root)
		}
	}
	files.AddSearchRoot(filepath.Dir(rootFile))
	files.Lock()
	dirs.Lock()

	sink := logsink.NewStandard(log.New(errOut, "", 0))
	ctx := evalctx.NewRoot(files, sink)

	if m != nil {
		for name, value := range m.Defines {
			ctx.Define(name, value)
		}
	}
	for _, d := range defineFlags {
		name, value := splitDefineFlag(d)
		ctx.Define(name, value)
	}

	expander := expand.New(dirs, files, prefix)
	rootName := filepath.ToSlash(filepath.Base(rootFile))
	for line, err := range expander.Expand(ctx, rootName) {
		if err != nil {
			return reportAndReturn(errOut, err)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func directivePrefix(flag string) (byte, error) {
	if len(flag) != 1 {
		return 0, pperrors.Newf(pperrors.UserError, "--prefix must be exactly one character, got %q", flag)
	}
	return flag[0], nil
}

// splitDefineFlag parses a -D NAME or -D NAME=EXPR argument. A bare NAME
// defines the empty-but-defined marker, matching `#define NAME` with no
// argument (§4.6).
func splitDefineFlag(d string) (name, value string) {
	if idx := strings.Index(d, "="); idx >= 0 {
		return d[:idx], d[idx+1:]
	}
	return d, ""
}

func registerManifestFile(files *registry.Files, name, path string) error {
	return files.Register(name, func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, pperrors.Wrap(pperrors.IOFailure, err, "opening "+path)
		}
		return f, nil
	})
}

// reportAndReturn writes the pperrors.Kind of err (when it carries one) to
// errOut before returning it, so cobra's SilenceErrors doesn't swallow the
// diagnostic the CLI contract in §10.3 promises.
func reportAndReturn(errOut io.Writer, err error) error {
	if pe, ok := err.(*pperrors.Error); ok {
		fmt.Fprintf(errOut, "blockpp: %s: %v\n", pe.Kind, pe)
	} else {
		fmt.Fprintf(errOut, "blockpp: %v\n", err)
	}
	return err
}
