package http

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cv-builder/internal/model"
	"cv-builder/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

// uploadPicker serves multipart uploads to the PDF tools as if they had
// come from a document picker. Files are saved under dir.
type uploadPicker struct {
	c     *fiber.Ctx
	field string
	dir   string
}

func (p uploadPicker) PickDocuments(_ context.Context, multiple bool, mimeTypes []string) ([]model.DocumentRef, error) {
	form, err := p.c.MultipartForm()
	if err != nil {
		return nil, &ErrValidation{Field: p.field, Message: "multipart form required"}
	}
	files := form.File[p.field]
	if !multiple && len(files) > 1 {
		files = files[:1]
	}
	out := make([]model.DocumentRef, 0, len(files))
	for i, fh := range files {
		name := filepath.Base(fh.Filename)
		mt := detectMime(fh.Header.Get("Content-Type"), name)
		if !acceptMime(mt, mimeTypes) {
			return nil, &ErrValidation{Field: p.field, Message: fmt.Sprintf("%s: unsupported type %q", name, mt)}
		}
		path := filepath.Join(p.dir, fmt.Sprintf("%02d_%s", i, name))
		if err := p.c.SaveFile(fh, path); err != nil {
			return nil, fmt.Errorf("save upload: %w", err)
		}
		out = append(out, model.DocumentRef{URI: "file://" + path, Name: name, MimeType: mt, Size: fh.Size})
	}
	return out, nil
}

func detectMime(header, name string) string {
	mt, _, _ := mime.ParseMediaType(header)
	if mt == "" || mt == "application/octet-stream" {
		mt, _, _ = mime.ParseMediaType(mime.TypeByExtension(strings.ToLower(filepath.Ext(name))))
	}
	return mt
}

func acceptMime(mt string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(mt, a) {
			return true
		}
	}
	return false
}

// withWorkDir runs fn in a scratch directory removed afterwards.
func (h *Handler) withWorkDir(fn func(dir string) error) error {
	dir, err := os.MkdirTemp(h.opts.UploadDir, "pdftool-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)
	return fn(dir)
}

func sendPDF(c *fiber.Ctx, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, usecase.PDFMimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(data)
}

// singlePDF saves the "file" upload and returns its path.
func singlePDF(ctx context.Context, c *fiber.Ctx, dir string) (string, error) {
	docs, err := uploadPicker{c: c, field: "file", dir: dir}.PickDocuments(ctx, false, []string{usecase.PDFMimeType})
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", &ErrValidation{Field: "file", Message: "file is required"}
	}
	return strings.TrimPrefix(docs[0].URI, "file://"), nil
}

func formInt(c *fiber.Ctx, key string, def int) (int, error) {
	v := c.FormValue(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ErrValidation{Field: key, Message: "must be an integer"}
	}
	return n, nil
}

func (h *Handler) MergePDFs(c *fiber.Ctx) error {
	ctx := c.UserContext()
	return h.withWorkDir(func(dir string) error {
		out := filepath.Join(dir, "merged.pdf")
		if err := h.tools.MergePicked(ctx, uploadPicker{c: c, field: "files", dir: dir}, out); err != nil {
			return err
		}
		return sendPDF(c, out, "merged.pdf")
	})
}

func (h *Handler) ImagesToPDF(c *fiber.Ctx) error {
	ctx := c.UserContext()
	return h.withWorkDir(func(dir string) error {
		out := filepath.Join(dir, "images.pdf")
		if err := h.tools.ImagesPicked(ctx, uploadPicker{c: c, field: "files", dir: dir}, out); err != nil {
			return err
		}
		return sendPDF(c, out, "images.pdf")
	})
}

func (h *Handler) SplitPDF(c *fiber.Ctx) error {
	ctx := c.UserContext()
	from, err := formInt(c, "from", 1)
	if err != nil {
		return err
	}
	to, err := formInt(c, "to", from)
	if err != nil {
		return err
	}
	return h.withWorkDir(func(dir string) error {
		in, err := singlePDF(ctx, c, dir)
		if err != nil {
			return err
		}
		out := filepath.Join(dir, "split.pdf")
		if err := h.tools.Split(ctx, in, from, to, out); err != nil {
			return err
		}
		return sendPDF(c, out, fmt.Sprintf("pages_%d-%d.pdf", from, to))
	})
}

func (h *Handler) RotatePDF(c *fiber.Ctx) error {
	ctx := c.UserContext()
	degrees, err := formInt(c, "degrees", 90)
	if err != nil {
		return err
	}
	return h.withWorkDir(func(dir string) error {
		in, err := singlePDF(ctx, c, dir)
		if err != nil {
			return err
		}
		out := filepath.Join(dir, "rotated.pdf")
		if err := h.tools.Rotate(ctx, in, degrees, out); err != nil {
			return err
		}
		return sendPDF(c, out, "rotated.pdf")
	})
}

func (h *Handler) CompressPDF(c *fiber.Ctx) error {
	ctx := c.UserContext()
	return h.withWorkDir(func(dir string) error {
		in, err := singlePDF(ctx, c, dir)
		if err != nil {
			return err
		}
		out := filepath.Join(dir, "compressed.pdf")
		if err := h.tools.Compress(ctx, in, out); err != nil {
			return err
		}
		return sendPDF(c, out, "compressed.pdf")
	})
}

func (h *Handler) InspectPDF(c *fiber.Ctx) error {
	ctx := c.UserContext()
	return h.withWorkDir(func(dir string) error {
		in, err := singlePDF(ctx, c, dir)
		if err != nil {
			return err
		}
		info, err := h.tools.Inspect(ctx, in)
		if err != nil {
			return err
		}
		info.Path = filepath.Base(in)
		return c.JSON(info)
	})
}
