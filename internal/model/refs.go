package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ImageRef is what an image picker hands back. Base64 is set when the
// picker already read the bytes.
type ImageRef struct {
	URI      string `json:"uri" validate:"required"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty" validate:"omitempty,startswith=image/"`
	Size     int64  `json:"size,omitempty" validate:"gte=0"`
	Width    int    `json:"width,omitempty" validate:"gte=0"`
	Height   int    `json:"height,omitempty" validate:"gte=0"`
	Base64   string `json:"base64,omitempty" validate:"omitempty,base64"`
}

// DocumentRef is one file returned by a document picker.
type DocumentRef struct {
	URI      string `json:"uri" validate:"required"`
	Name     string `json:"name" validate:"required"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size,omitempty" validate:"gte=0"`
}

func (r *ImageRef) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("image ref: %w", err)
	}
	return nil
}

func (r *DocumentRef) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("document ref: %w", err)
	}
	return nil
}

// CheckRemoteImage accepts an empty source or one that can be loaded
// without touching the local disk: http, https or a data:image URI.
func CheckRemoteImage(src string) error {
	v := strings.TrimSpace(src)
	if v == "" {
		return nil
	}
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "data:image/") ||
		strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidCV, ErrLocalImage)
}

// Source returns the value to place in an <img src>: a data URI when the
// bytes are known, the URI otherwise.
func (r *ImageRef) Source() string {
	if r == nil {
		return ""
	}
	if r.Base64 != "" {
		mime := r.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		return "data:" + mime + ";base64," + r.Base64
	}
	return r.URI
}

// NewImageRefFromMap converts a loosely shaped picker result. Numbers may
// arrive as float64, int or string; "type" is accepted for "mimeType" and
// "fileName"/"fileSize" for "name"/"size".
func NewImageRefFromMap(m map[string]interface{}) (*ImageRef, error) {
	if m == nil {
		return nil, fmt.Errorf("image ref: empty")
	}
	out := &ImageRef{
		URI:      stringField(m, "uri"),
		Name:     stringField(m, "name", "fileName"),
		MimeType: stringField(m, "mimeType", "type"),
		Size:     int64Field(m, "size", "fileSize"),
		Width:    int(int64Field(m, "width")),
		Height:   int(int64Field(m, "height")),
		Base64:   stringField(m, "base64"),
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func NewDocumentRefFromMap(m map[string]interface{}) (*DocumentRef, error) {
	if m == nil {
		return nil, fmt.Errorf("document ref: empty")
	}
	out := &DocumentRef{
		URI:      stringField(m, "uri"),
		Name:     stringField(m, "name", "fileName"),
		MimeType: stringField(m, "mimeType", "type"),
		Size:     int64Field(m, "size", "fileSize"),
	}
	if out.Name == "" && out.URI != "" {
		out.Name = out.URI[strings.LastIndex(out.URI, "/")+1:]
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func stringField(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case nil:
		default:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

func int64Field(m map[string]interface{}, keys ...string) int64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return int64(v)
		case float32:
			return int64(v)
		case int:
			return int64(v)
		case int64:
			return v
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}
