package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"cv-builder/internal/cvtemplate"
	"cv-builder/internal/domain"
	"cv-builder/internal/model"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	PDFMimeType      = "application/pdf"
	ShareDialogTitle = "Save your CV"
)

// ExportRequest is one export attempt. Data is read once, at render time.
type ExportRequest struct {
	SessionID  uuid.UUID
	Data       model.CVData
	TemplateID int
	Options    cvtemplate.Options
}

// Artifact is a written PDF waiting to be shared.
type Artifact struct {
	TemplateID int                  `json:"templateId"`
	File       domain.FileRef       `json:"file"`
	HTMLFile   *domain.FileRef      `json:"htmlFile,omitempty"`
	Record     *domain.ExportRecord `json:"record"`
}

type ExportResult struct {
	Artifact
	Share domain.ShareOutcome `json:"share"`
}

type ExporterOptions struct {
	// SaveHTML writes the rendered document next to the PDF.
	SaveHTML bool
	Now      func() time.Time
}

// Exporter runs the conversion pipeline: render, inline local images,
// convert, write, share. Stages run strictly one after another.
type Exporter struct {
	renderer Renderer
	files    FileStore
	sharer   Sharer
	repo     ExportsRepo
	logger   *log.Logger
	opts     ExporterOptions
}

func NewExporter(r Renderer, files FileStore, sharer Sharer, repo ExportsRepo, logger *log.Logger, opts ExporterOptions) *Exporter {
	if logger == nil {
		logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Exporter{renderer: r, files: files, sharer: sharer, repo: repo, logger: logger, opts: opts}
}

// FileName builds "CV_<Full_Name>_<unix-ms>.pdf". Whitespace runs become
// one underscore; path separators are replaced so the name stays flat.
func FileName(fullName string, at time.Time) string {
	name := strings.Join(strings.Fields(fullName), "_")
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	return fmt.Sprintf("CV_%s_%d.pdf", name, at.UnixMilli())
}

// Produce renders and converts the CV and writes the PDF. It does not share.
func (e *Exporter) Produce(ctx context.Context, req ExportRequest) (*Artifact, error) {
	now := e.opts.Now()
	layout, ok := cvtemplate.Lookup(req.TemplateID)
	if !ok {
		e.logger.Warn("unknown template, using default", "requested", req.TemplateID, "template", layout.ID)
	}
	rec := &domain.ExportRecord{
		ID:         uuid.New(),
		SessionID:  req.SessionID,
		TemplateID: layout.ID,
		Metadata: map[string]interface{}{
			"template_name": layout.Name,
			"direction":     string(req.Options.Direction),
		},
		CreatedAt: now,
	}

	art, err := e.produce(ctx, req.Data, layout, req.Options, rec, now)
	if err != nil {
		rec.Status = domain.ExportFailed
		rec.Error = err.Error()
		e.record(ctx, rec)
		return nil, err
	}
	return art, nil
}

func (e *Exporter) produce(ctx context.Context, d model.CVData, layout cvtemplate.Layout, opts cvtemplate.Options, rec *domain.ExportRecord, now time.Time) (*Artifact, error) {
	d, err := e.inlineProfileImage(ctx, d)
	if err != nil {
		return nil, err
	}

	html, err := cvtemplate.Render(d, layout.ID, opts)
	if err != nil {
		return nil, err
	}

	pdfName := FileName(d.FullName, now)
	art := &Artifact{TemplateID: layout.ID, Record: rec}

	// keep the HTML even when conversion fails
	if e.opts.SaveHTML {
		htmlName := strings.TrimSuffix(pdfName, ".pdf") + ".html"
		ref, err := e.files.WriteFile(ctx, htmlName, []byte(html))
		if err != nil {
			return nil, fmt.Errorf("save html: %w", err)
		}
		art.HTMLFile = &ref
		rec.Metadata["generated_html"] = ref.Path
	}

	pdf, err := e.renderer.RenderHTMLToPDF(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("convert to pdf: %w", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return nil, fmt.Errorf("convert to pdf: invalid PDF output (len=%d)", len(pdf))
	}

	ref, err := e.files.WriteFile(ctx, pdfName, pdf)
	if err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	art.File = ref
	rec.FileName = ref.Name
	rec.FilePath = ref.Path
	rec.FileSize = ref.Size
	e.logger.Debug("pdf written", "file", ref.Name, "bytes", ref.Size, "template", layout.Name)
	return art, nil
}

// Share hands a produced artifact to the share sink. A dismissed share
// dialog is a success with Shared=false.
func (e *Exporter) Share(ctx context.Context, art *Artifact) (*ExportResult, error) {
	res := &ExportResult{Artifact: *art}
	out, err := e.sharer.Share(ctx, art.File, PDFMimeType, ShareDialogTitle)
	if err != nil && !errors.Is(err, ErrCancelled) {
		art.Record.Status = domain.ExportFailed
		art.Record.Error = err.Error()
		e.record(ctx, art.Record)
		return nil, fmt.Errorf("share: %w", err)
	}
	res.Share = out
	art.Record.Status = domain.ExportSucceeded
	art.Record.Shared = out.Shared
	if out.Location != "" {
		art.Record.Metadata["location"] = out.Location
	}
	e.record(ctx, art.Record)
	return res, nil
}

// Export runs Produce then Share.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	art, err := e.Produce(ctx, req)
	if err != nil {
		return nil, err
	}
	return e.Share(ctx, art)
}

// record persists the export log entry. Failures are logged only.
func (e *Exporter) record(ctx context.Context, rec *domain.ExportRecord) {
	if e.repo == nil {
		return
	}
	rec.UpdatedAt = e.opts.Now()
	if err := e.repo.Save(ctx, rec); err != nil {
		e.logger.Warn("unable to save export record", "id", rec.ID, "err", err)
	}
}

// inlineProfileImage replaces a local profile image with a data URI so the
// PDF engine does not need access to the picker's file.
func (e *Exporter) inlineProfileImage(ctx context.Context, d model.CVData) (model.CVData, error) {
	if d.ProfileImage == nil {
		return d, nil
	}
	src := strings.TrimSpace(*d.ProfileImage)
	if !strings.HasPrefix(src, "file://") && !filepath.IsAbs(src) {
		return d, nil
	}
	b64, err := e.files.ReadFileAsBase64(ctx, src)
	if err != nil {
		return d, fmt.Errorf("read profile image: %w", err)
	}
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(src)))
	if !strings.HasPrefix(mt, "image/") {
		mt = "image/jpeg"
	}
	uri := "data:" + mt + ";base64," + b64
	return d.SetProfileImage(&uri), nil
}
