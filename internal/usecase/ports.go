package usecase

import (
	"context"
	"errors"

	"cv-builder/internal/domain"
	"cv-builder/internal/model"
)

// ErrCancelled is returned by pickers when the user dismissed them.
// It is a normal outcome, never reported as a failure.
var ErrCancelled = errors.New("cancelled")

type Renderer interface {
	RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

type FileStore interface {
	WriteFile(ctx context.Context, name string, data []byte) (domain.FileRef, error)
	ReadFileAsBase64(ctx context.Context, uri string) (string, error)
}

type Sharer interface {
	Share(ctx context.Context, f domain.FileRef, mimeType, title string) (domain.ShareOutcome, error)
}

type ImagePicker interface {
	PickImage(ctx context.Context) (*model.ImageRef, error)
}

type DocumentPicker interface {
	PickDocuments(ctx context.Context, multiple bool, mimeTypes []string) ([]model.DocumentRef, error)
}

type ExportsRepo interface {
	Save(ctx context.Context, e *domain.ExportRecord) error
}
