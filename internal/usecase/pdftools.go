package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cv-builder/internal/model"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var ErrInvalidInput = errors.New("invalid input")

var imageMimeTypes = []string{"image/jpeg", "image/png", "image/tiff"}

// PDFInfo is what Inspect reads back from a PDF.
type PDFInfo struct {
	Path      string `json:"path"`
	PageCount int    `json:"pageCount"`
	Text      string `json:"text"`
}

// PDFTools implements the merge, split, image import, rotate and compress
// utilities on local files.
type PDFTools struct {
	conf   *pdfmodel.Configuration
	logger *log.Logger
}

func NewPDFTools(logger *log.Logger) *PDFTools {
	if logger == nil {
		logger = log.Default()
	}
	pdfapi.DisableConfigDir()
	return &PDFTools{conf: pdfmodel.NewDefaultConfiguration(), logger: logger}
}

// Merge concatenates inputs in order into out.
func (t *PDFTools) Merge(ctx context.Context, inputs []string, out string) error {
	if len(inputs) < 2 {
		return fmt.Errorf("%w: merge needs at least two files", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pdfapi.MergeCreateFile(inputs, out, false, t.conf); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	t.logger.Debug("merged", "inputs", len(inputs), "out", out)
	return nil
}

// Split writes pages from..to (1-based, inclusive) of in to out.
func (t *PDFTools) Split(ctx context.Context, in string, from, to int, out string) error {
	if from < 1 || to < from {
		return fmt.Errorf("%w: page range %d-%d", ErrInvalidInput, from, to)
	}
	n, err := t.PageCount(ctx, in)
	if err != nil {
		return err
	}
	if to > n {
		return fmt.Errorf("%w: page range %d-%d exceeds %d pages", ErrInvalidInput, from, to, n)
	}
	if err := pdfapi.TrimFile(in, out, []string{fmt.Sprintf("%d-%d", from, to)}, t.conf); err != nil {
		return fmt.Errorf("split: %w", err)
	}
	return nil
}

// ImagesToPDF places each image on its own page.
func (t *PDFTools) ImagesToPDF(ctx context.Context, images []string, out string) error {
	if len(images) == 0 {
		return fmt.Errorf("%w: no images", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pdfapi.ImportImagesFile(images, out, pdfcpu.DefaultImportConfig(), t.conf); err != nil {
		return fmt.Errorf("import images: %w", err)
	}
	return nil
}

// Rotate turns every page clockwise by degrees, a multiple of 90.
func (t *PDFTools) Rotate(ctx context.Context, in string, degrees int, out string) error {
	if degrees%90 != 0 {
		return fmt.Errorf("%w: rotation %d is not a multiple of 90", ErrInvalidInput, degrees)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pdfapi.RotateFile(in, out, degrees, nil, t.conf); err != nil {
		return fmt.Errorf("rotate: %w", err)
	}
	return nil
}

// Compress rewrites in with duplicate resources removed.
func (t *PDFTools) Compress(ctx context.Context, in, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pdfapi.OptimizeFile(in, out, t.conf); err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	return nil
}

func (t *PDFTools) PageCount(ctx context.Context, in string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := pdfapi.PageCountFile(in)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}

// Inspect reads the page count and plain text of a PDF. Pages whose text
// cannot be extracted are skipped.
func (t *PDFTools) Inspect(ctx context.Context, path string) (*PDFInfo, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("inspect: %w", err)
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			t.logger.Debug("skip page text", "page", i, "err", err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return &PDFInfo{Path: path, PageCount: total, Text: sb.String()}, nil
}

// MergePicked asks p for PDF documents and merges them into out.
func (t *PDFTools) MergePicked(ctx context.Context, p DocumentPicker, out string) error {
	docs, err := t.pick(ctx, p, true, []string{"application/pdf"})
	if err != nil {
		return err
	}
	return t.Merge(ctx, docPaths(docs), out)
}

// ImagesPicked asks p for images and converts them into one PDF.
func (t *PDFTools) ImagesPicked(ctx context.Context, p DocumentPicker, out string) error {
	docs, err := t.pick(ctx, p, true, imageMimeTypes)
	if err != nil {
		return err
	}
	return t.ImagesToPDF(ctx, docPaths(docs), out)
}

func (t *PDFTools) pick(ctx context.Context, p DocumentPicker, multiple bool, types []string) ([]model.DocumentRef, error) {
	docs, err := p.PickDocuments(ctx, multiple, types)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrCancelled
	}
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return docs, nil
}

func docPaths(docs []model.DocumentRef) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, strings.TrimPrefix(d.URI, "file://"))
	}
	return out
}
