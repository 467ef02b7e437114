// Package cli implements the cv-builder command-line tools.
//
// Two binaries are built from it: the sample harness (cmd/samples), which
// writes the fixture CV through every layout as HTML or PDF, and the PDF
// utilities (cmd/pdftools).
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context, see pkg/logging.
package cli

import (
	"context"
	"fmt"
	"os"

	"cv-builder/internal/cvtemplate"
	"cv-builder/internal/model"
	"cv-builder/pkg/logging"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// newRoot builds a root command carrying the --verbose flag and the logger.
func newRoot(use, short string) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          use,
		Short:        short,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), logging.New(cmd.ErrOrStderr(), level)))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	return root
}

// renderFlags are shared by commands that render CVs.
type renderFlags struct {
	dataPath  string
	direction string
	lang      string
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dataPath, "data", "", "CV JSON file (default: built-in sample)")
	cmd.Flags().StringVar(&f.direction, "dir", "ltr", "text direction: ltr or rtl")
	cmd.Flags().StringVar(&f.lang, "lang", "", "document language (default en, or ar for rtl)")
}

func (f *renderFlags) options() cvtemplate.Options {
	return cvtemplate.Options{Direction: cvtemplate.Direction(f.direction), Lang: f.lang, LocalImages: true}
}

// load reads --data, or returns fallback when it is not set.
func (f *renderFlags) load(fallback model.CVData) (model.CVData, error) {
	if f.dataPath == "" {
		return fallback, nil
	}
	raw, err := os.ReadFile(f.dataPath)
	if err != nil {
		return model.CVData{}, fmt.Errorf("read %s: %w", f.dataPath, err)
	}
	d, err := model.DecodeCV(raw)
	if err != nil {
		return model.CVData{}, fmt.Errorf("%s: %w", f.dataPath, err)
	}
	return d, nil
}

// Run executes root with ctx and returns the command error.
func Run(ctx context.Context, root *cobra.Command) error {
	return root.ExecuteContext(ctx)
}
