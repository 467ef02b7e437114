package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"cv-builder/internal/model"
	"cv-builder/internal/usecase"
	"cv-builder/pkg/logging"

	"github.com/spf13/cobra"
)

// argsPicker hands command-line paths to the PDF tools as picked documents.
type argsPicker struct {
	paths []string
}

func (p argsPicker) PickDocuments(_ context.Context, multiple bool, mimeTypes []string) ([]model.DocumentRef, error) {
	paths := p.paths
	if !multiple && len(paths) > 1 {
		paths = paths[:1]
	}
	out := make([]model.DocumentRef, 0, len(paths))
	for _, path := range paths {
		st, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
		if !allowed(mt, mimeTypes) {
			return nil, fmt.Errorf("%w: %s is not one of %s", usecase.ErrInvalidInput, path, strings.Join(mimeTypes, ", "))
		}
		ref, err := model.NewDocumentRefFromMap(map[string]interface{}{
			"uri":  path,
			"type": mt,
			"size": st.Size(),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, *ref)
	}
	return out, nil
}

func allowed(mt string, types []string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == mt {
			return true
		}
	}
	return false
}

// NewPDFToolsCommand builds the PDF utilities: merge, split, images, rotate,
// compress and info.
func NewPDFToolsCommand() *cobra.Command {
	root := newRoot("pdftools", "Merge, split, rotate and convert PDF files")
	root.AddCommand(
		newMergeCmd(),
		newSplitCmd(),
		newImagesCmd(),
		newRotateCmd(),
		newCompressCmd(),
		newInfoCmd(),
	)
	return root
}

func tools(cmd *cobra.Command) *usecase.PDFTools {
	return usecase.NewPDFTools(logging.FromContext(cmd.Context()))
}

func done(cmd *cobra.Command, out string) {
	fmt.Fprintln(cmd.OutOrStdout(), out)
}

func newMergeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "merge <pdf> <pdf>...",
		Short: "Concatenate PDFs in argument order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tools(cmd).MergePicked(cmd.Context(), argsPicker{paths: args}, out); err != nil {
				return err
			}
			done(cmd, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "merged.pdf", "output file")
	return cmd
}

func newSplitCmd() *cobra.Command {
	var (
		out      string
		from, to int
	)
	cmd := &cobra.Command{
		Use:   "split <pdf>",
		Short: "Extract a page range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == 0 {
				to = from
			}
			if out == "" {
				out = fmt.Sprintf("%s_pages_%d-%d.pdf", strings.TrimSuffix(args[0], filepath.Ext(args[0])), from, to)
			}
			if err := tools(cmd).Split(cmd.Context(), args[0], from, to, out); err != nil {
				return err
			}
			done(cmd, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().IntVar(&from, "from", 1, "first page (1-based)")
	cmd.Flags().IntVar(&to, "to", 0, "last page (default: --from)")
	return cmd
}

func newImagesCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "images <image>...",
		Short: "Convert JPEG, PNG or TIFF images to a PDF, one page each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tools(cmd).ImagesPicked(cmd.Context(), argsPicker{paths: args}, out); err != nil {
				return err
			}
			done(cmd, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "images.pdf", "output file")
	return cmd
}

func newRotateCmd() *cobra.Command {
	var (
		out     string
		degrees int
	)
	cmd := &cobra.Command{
		Use:   "rotate <pdf>",
		Short: "Rotate every page clockwise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = args[0]
			}
			if err := tools(cmd).Rotate(cmd.Context(), args[0], degrees, out); err != nil {
				return err
			}
			done(cmd, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: in place)")
	cmd.Flags().IntVarP(&degrees, "degrees", "d", 90, "rotation, a multiple of 90")
	return cmd
}

func newCompressCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "compress <pdf>",
		Short: "Optimize a PDF by removing redundant objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "_compressed.pdf"
			}
			if err := tools(cmd).Compress(cmd.Context(), args[0], out); err != nil {
				return err
			}
			done(cmd, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}

func newInfoCmd() *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "info <pdf>...",
		Short: "Print page counts, and optionally the extracted text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := tools(cmd)
			for _, p := range args {
				n, err := t.PageCount(cmd.Context(), p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", p, n)
				if text {
					info, err := t.Inspect(cmd.Context(), p)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), info.Text)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "also print extracted text")
	return cmd
}
