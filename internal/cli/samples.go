package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cv-builder/internal/cvtemplate"
	"cv-builder/internal/domain"
	"cv-builder/internal/samples"
	"cv-builder/internal/usecase"
	"cv-builder/pkg/logging"
	infra "cv-builder/pkg/infrastructure"

	"github.com/spf13/cobra"
)

// NewSamplesCommand builds the sample harness: html, pdf and verify.
func NewSamplesCommand() *cobra.Command {
	root := newRoot("samples", "Render the sample CV through every template")
	root.AddCommand(newSamplesHTMLCmd())
	root.AddCommand(newSamplesPDFCmd())
	root.AddCommand(newVerifyCmd())
	return root
}

func newSamplesHTMLCmd() *cobra.Command {
	var (
		rf  renderFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "html",
		Short: "Write one HTML file per template",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := logging.FromContext(ctx)
			d, err := rf.load(samples.SampleCV())
			if err != nil {
				return err
			}
			prog := logging.NewProgress(logger)
			paths, err := samples.GenerateHTML(ctx, d, out, rf.options())
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			prog.Done(fmt.Sprintf("Generated %d templates in %s", len(paths), out))
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", samples.DefaultOutDir, "output directory")
	return cmd
}

type samplesPDFOpts struct {
	rf        renderFlags
	out       string
	templates []int
	chrome    string
	timeout   time.Duration
	delay     time.Duration
	verify    bool
	copyTo    string
}

func newSamplesPDFCmd() *cobra.Command {
	opts := samplesPDFOpts{timeout: 60 * time.Second, delay: samples.BatchDelay}
	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Convert the sample CV to PDF with headless Chrome",
		Long: `Convert the sample CV to PDF with headless Chrome, one file per template.

Conversions run one after another with --delay between them. A failed
template is reported and skipped; the command fails if any did.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSamplesPDF(cmd, opts)
		},
	}
	opts.rf.register(cmd)
	cmd.Flags().StringVarP(&opts.out, "out", "o", samples.DefaultOutDir, "output directory")
	cmd.Flags().IntSliceVarP(&opts.templates, "template", "t", nil, "template ids (default: all)")
	cmd.Flags().StringVar(&opts.chrome, "chrome", "", "path to the Chrome binary")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "per-conversion timeout")
	cmd.Flags().DurationVar(&opts.delay, "delay", opts.delay, "pause between conversions")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "re-read each PDF and check it contains the CV name")
	cmd.Flags().StringVar(&opts.copyTo, "copy-to", "", "also save every exported PDF into this directory")
	return cmd
}

func runSamplesPDF(cmd *cobra.Command, opts samplesPDFOpts) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)
	d, err := opts.rf.load(samples.SampleCV())
	if err != nil {
		return err
	}
	ids := opts.templates
	if len(ids) == 0 {
		for _, l := range cvtemplate.Templates() {
			ids = append(ids, l.ID)
		}
	}

	samples.BatchDelay = opts.delay
	r := infra.NewChromedpRenderer(infra.ChromedpOptions{ExecPath: opts.chrome, Timeout: opts.timeout, AllowFileAccess: true})
	prog := logging.NewProgress(logger)
	paths, exportErr := samples.ExportPDFs(ctx, r, d, ids, opts.out, opts.rf.options())
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	prog.Done(fmt.Sprintf("Exported %d of %d templates", len(paths), len(ids)))

	if opts.verify {
		tools := usecase.NewPDFTools(logger)
		for _, p := range paths {
			if err := verifyPDF(cmd, tools, p, d.FullName); err != nil {
				return err
			}
		}
	}
	if opts.copyTo != "" {
		sharer := infra.NewDirectorySharer(opts.copyTo)
		for _, p := range paths {
			ref := domain.FileRef{URI: "file://" + p, Path: p, Name: filepath.Base(p)}
			if _, err := sharer.Share(ctx, ref, "application/pdf", "Save your CV"); err != nil {
				return err
			}
			logger.Debug("copied", "file", ref.Name, "dir", opts.copyTo)
		}
	}
	return exportErr
}

func newVerifyCmd() *cobra.Command {
	var expect string
	cmd := &cobra.Command{
		Use:   "verify <pdf>...",
		Short: "Check that PDFs open and contain the expected text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tools := usecase.NewPDFTools(logging.FromContext(cmd.Context()))
			for _, p := range args {
				if err := verifyPDF(cmd, tools, p, expect); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&expect, "expect", "", "text every PDF must contain")
	return cmd
}

func verifyPDF(cmd *cobra.Command, tools *usecase.PDFTools, path, expect string) error {
	info, err := tools.Inspect(cmd.Context(), path)
	if err != nil {
		return err
	}
	if info.PageCount == 0 {
		return fmt.Errorf("%s: no pages", path)
	}
	// extracted text may split words across runs, so compare without spaces
	if expect != "" && !strings.Contains(squash(info.Text), squash(expect)) {
		return fmt.Errorf("%s: %q not found", path, expect)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d page(s) ok\n", path, info.PageCount)
	return nil
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}
