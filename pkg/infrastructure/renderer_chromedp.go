package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 in inches (210mm x 297mm).
const (
	a4WidthIn  = 8.27
	a4HeightIn = 11.69
)

type ChromedpOptions struct {
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string
	Timeout  time.Duration
	// TempDir is where the HTML is staged before navigation.
	TempDir string
	// AllowFileAccess lets the staged page load other file:// resources.
	// Leave it off when the HTML carries untrusted input.
	AllowFileAccess bool
}

// ChromedpRenderer prints HTML documents to PDF with headless Chrome.
// Each call starts its own browser.
type ChromedpRenderer struct {
	opts ChromedpOptions
}

func NewChromedpRenderer(opts ChromedpOptions) *ChromedpRenderer {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &ChromedpRenderer{opts: opts}
}

func (r *ChromedpRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.opts.AllowFileAccess {
		// profile images are often file:// URIs next to the staged page
		opts = append(opts, chromedp.Flag("allow-file-access-from-files", true))
	}
	if r.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.opts.ExecPath))
	}
	return opts
}

func (r *ChromedpRenderer) RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	runCtx, cancelRun := context.WithTimeout(cctx, r.opts.Timeout)
	defer cancelRun()

	tmpDir, err := os.MkdirTemp(r.opts.TempDir, "cv-")
	if err != nil {
		return nil, fmt.Errorf("stage html: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return nil, fmt.Errorf("stage html: %w", err)
	}

	var pdfBuf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().WithPrintBackground(true).
				WithPaperWidth(a4WidthIn).
				WithPaperHeight(a4HeightIn).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return pdfBuf, nil
}
