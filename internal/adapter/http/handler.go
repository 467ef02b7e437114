package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cv-builder/internal/cvtemplate"
	"cv-builder/internal/domain"
	"cv-builder/internal/model"
	"cv-builder/internal/samples"
	"cv-builder/internal/usecase"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ExportLister reads the export log of a session.
type ExportLister interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.ExportRecord, error)
}

type Options struct {
	// FileDir holds exported PDFs served under /files.
	FileDir string
	// UploadDir is scratch space for PDF tool uploads. Empty means os.TempDir.
	UploadDir string
	// Exports backs GET /sessions/:id/exports. Nil disables the route.
	Exports ExportLister
	Logger  *log.Logger
}

type Handler struct {
	sessions *usecase.SessionManager
	tools    *usecase.PDFTools
	opts     Options
	logger   *log.Logger
}

func NewHandler(sessions *usecase.SessionManager, tools *usecase.PDFTools, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{sessions: sessions, tools: tools, opts: opts, logger: logger}
}

// Register mounts every route on r.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/health", h.Health)
	r.Get("/catalog", h.Catalog)
	r.Get("/templates", h.ListTemplates)
	r.Get("/templates/:id/sample", h.TemplateSample)
	r.Get("/files/:name", h.DownloadFile)

	s := r.Group("/sessions")
	s.Post("/", h.CreateSession)
	s.Get("/:id", h.GetSession)
	s.Delete("/:id", h.DeleteSession)
	s.Put("/:id/cv", h.ReplaceCV)
	s.Patch("/:id/cv", h.PatchCV)
	s.Post("/:id/steps/next", h.NextStep)
	s.Post("/:id/steps/prev", h.PrevStep)
	s.Put("/:id/steps", h.SetStep)
	s.Get("/:id/validation", h.ValidateStep)
	s.Put("/:id/template", h.SelectTemplate)
	s.Post("/:id/profile-image", h.UploadProfileImage)
	s.Delete("/:id/profile-image", h.RemoveProfileImage)
	s.Post("/:id/export", h.Export)
	s.Post("/:id/dismiss", h.Dismiss)
	s.Get("/:id/preview", h.Preview)
	s.Get("/:id/events", h.Events)
	if h.opts.Exports != nil {
		s.Get("/:id/exports", h.ListExports)
	}

	t := r.Group("/tools")
	t.Post("/merge", h.MergePDFs)
	t.Post("/split", h.SplitPDF)
	t.Post("/images", h.ImagesToPDF)
	t.Post("/rotate", h.RotatePDF)
	t.Post("/compress", h.CompressPDF)
	t.Post("/inspect", h.InspectPDF)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "sessions": h.sessions.Len()})
}

func (h *Handler) Catalog(c *fiber.Ctx) error {
	return c.JSON(usecase.GetCatalog())
}

func (h *Handler) ListTemplates(c *fiber.Ctx) error {
	return c.JSON(cvtemplate.Templates())
}

// TemplateSample renders the sample CV with one layout.
func (h *Handler) TemplateSample(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return &ErrValidation{Field: "id", Message: "must be an integer"}
	}
	if _, ok := cvtemplate.Lookup(id); !ok {
		return fiber.NewError(fiber.StatusNotFound, "template not found")
	}
	html, err := cvtemplate.Render(samples.SampleCV(), id, renderOptions(c, cvtemplate.Options{}))
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(html)
}

func (h *Handler) DownloadFile(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return &ErrValidation{Field: "name", Message: "invalid file name"}
	}
	path := filepath.Join(h.opts.FileDir, name)
	if _, err := os.Stat(path); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "file not found")
	}
	return c.Download(path, name)
}

func (h *Handler) session(c *fiber.Ctx) (*usecase.Session, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, &ErrValidation{Field: "id", Message: "invalid session id"}
	}
	return h.sessions.Get(id)
}

func (h *Handler) CreateSession(c *fiber.Ctx) error {
	s := h.sessions.Create()
	if len(c.Body()) > 0 {
		d, err := decodeClientCV(c.Body())
		if err != nil {
			_ = h.sessions.Delete(s.ID())
			return err
		}
		s.Replace(d)
	}
	return c.Status(fiber.StatusCreated).JSON(s.Snapshot())
}

// decodeClientCV decodes a CV sent by a client. Its profile image may not
// point at the server's disk.
func decodeClientCV(raw []byte) (model.CVData, error) {
	d, err := model.DecodeCV(raw)
	if err != nil {
		return d, err
	}
	if d.ProfileImage != nil {
		if err := model.CheckRemoteImage(*d.ProfileImage); err != nil {
			return d, &ErrValidation{Field: "profileImage", Message: err.Error()}
		}
	}
	return d, nil
}

func (h *Handler) GetSession(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(s.Snapshot())
}

func (h *Handler) DeleteSession(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Delete(s.ID()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReplaceCV swaps the whole CV for the request body.
func (h *Handler) ReplaceCV(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	d, err := decodeClientCV(c.Body())
	if err != nil {
		return err
	}
	s.Replace(d)
	return c.JSON(s.Snapshot())
}

type patchCVReq struct {
	Fields         map[string]string `json:"fields"`
	IncludeHobbies *bool             `json:"includeHobbies"`
}

// PatchCV sets scalar fields; all of them apply or none do.
func (h *Handler) PatchCV(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req patchCVReq
	if err := c.BodyParser(&req); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid payload"}
	}
	err = s.Update(func(d model.CVData) (model.CVData, error) {
		for field, value := range req.Fields {
			next, err := d.WithField(field, value)
			if err != nil {
				return d, err
			}
			d = next
		}
		if req.IncludeHobbies != nil {
			d = d.SetIncludeHobbies(*req.IncludeHobbies)
		}
		return d, nil
	})
	if err != nil {
		return err
	}
	return c.JSON(s.Snapshot())
}

func (h *Handler) NextStep(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	s.NextStep()
	return c.JSON(s.Snapshot())
}

func (h *Handler) PrevStep(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	s.PrevStep()
	return c.JSON(s.Snapshot())
}

func (h *Handler) SetStep(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req struct {
		Step int `json:"step"`
	}
	if err := c.BodyParser(&req); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid payload"}
	}
	if err := s.SetStep(req.Step); err != nil {
		return err
	}
	return c.JSON(s.Snapshot())
}

// ValidateStep reports missing fields for ?step=N, or the current step.
func (h *Handler) ValidateStep(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	step := s.Snapshot().Step
	if v := c.Query("step"); v != "" {
		if step, err = strconv.Atoi(v); err != nil {
			return &ErrValidation{Field: "step", Message: "must be an integer"}
		}
	}
	return c.JSON(model.ValidateStep(step, s.Data()))
}

func (h *Handler) SelectTemplate(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req struct {
		TemplateID int `json:"templateId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid payload"}
	}
	s.SelectTemplate(req.TemplateID)
	return c.JSON(s.Snapshot())
}

// UploadProfileImage accepts either a multipart "image" file or a JSON
// picker result.
func (h *Handler) UploadProfileImage(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var ref *model.ImageRef
	if c.Is("json") {
		var m map[string]interface{}
		if err := json.Unmarshal(c.Body(), &m); err != nil {
			return &ErrValidation{Field: "body", Message: "invalid payload"}
		}
		if ref, err = model.NewImageRefFromMap(m); err != nil {
			return &ErrValidation{Field: "image", Message: err.Error()}
		}
	} else {
		fh, err := c.FormFile("image")
		if err != nil {
			return &ErrValidation{Field: "image", Message: "file is required"}
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		raw, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		ref = &model.ImageRef{
			URI:      fh.Filename,
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
			Base64:   base64.StdEncoding.EncodeToString(raw),
		}
		if err := ref.Validate(); err != nil {
			return &ErrValidation{Field: "image", Message: err.Error()}
		}
	}
	if err := model.CheckRemoteImage(ref.Source()); err != nil {
		return &ErrValidation{Field: "image", Message: err.Error()}
	}
	s.SetProfileImage(ref)
	return c.JSON(s.Snapshot())
}

func (h *Handler) RemoveProfileImage(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	_ = s.Update(func(d model.CVData) (model.CVData, error) {
		return d.SetProfileImage(nil), nil
	})
	return c.JSON(s.Snapshot())
}

// Export starts an export. With ?wait=true the response carries the result;
// otherwise it returns 202 and progress is followed via /events.
func (h *Handler) Export(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	done, err := s.StartExport(c.UserContext())
	if err != nil {
		return err
	}
	if wait, _ := strconv.ParseBool(c.Query("wait")); !wait {
		return c.Status(fiber.StatusAccepted).JSON(s.Snapshot())
	}
	out := <-done
	if out.Err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":    usecase.MsgExportFailed,
			"snapshot": s.Snapshot(),
		})
	}
	return c.JSON(fiber.Map{"result": out.Result, "snapshot": s.Snapshot()})
}

// ListExports returns the most recent export records of a session.
func (h *Handler) ListExports(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		return &ErrValidation{Field: "limit", Message: "must be between 1 and 100"}
	}
	records, err := h.opts.Exports.ListBySession(c.UserContext(), s.ID(), limit)
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (h *Handler) Dismiss(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	s.Dismiss()
	return c.JSON(s.Snapshot())
}

// Preview renders the session's CV with the selected layout, or ?template=N.
func (h *Handler) Preview(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	id := s.Snapshot().SelectedTemplate
	if v := c.Query("template"); v != "" {
		if id, err = strconv.Atoi(v); err != nil {
			return &ErrValidation{Field: "template", Message: "must be an integer"}
		}
	}
	html, err := cvtemplate.Render(s.Data(), id, renderOptions(c, s.Options()))
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(html)
}

// renderOptions applies ?dir= and ?lang= over def.
func renderOptions(c *fiber.Ctx, def cvtemplate.Options) cvtemplate.Options {
	if v := c.Query("dir"); v != "" {
		def.Direction = cvtemplate.Direction(strings.ToLower(v))
	}
	if v := c.Query("lang"); v != "" {
		def.Lang = v
	}
	return def
}
