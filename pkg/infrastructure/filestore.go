package infrastructure

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"cv-builder/internal/domain"
)

var ErrOutsideStore = errors.New("path is outside the file store")

// LocalFileStore keeps generated files in one directory. Reads are limited
// to that directory plus any added with AllowRead.
type LocalFileStore struct {
	dir   string
	roots []string
}

func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create file store %s: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &LocalFileStore{dir: abs, roots: []string{abs}}, nil
}

// AllowRead adds directories ReadFileAsBase64 may read from.
func (s *LocalFileStore) AllowRead(dirs ...string) error {
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return err
		}
		s.roots = append(s.roots, abs)
	}
	return nil
}

// readable resolves p and reports whether it sits under one of the roots.
func (s *LocalFileStore) readable(p string) (string, bool) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	for _, root := range s.roots {
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			root = resolved
		}
		rel, err := filepath.Rel(root, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return abs, true
		}
	}
	return "", false
}

func (s *LocalFileStore) Dir() string { return s.dir }

// Path resolves a bare file name inside the store. Names containing path
// separators or dot segments are rejected.
func (s *LocalFileStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *LocalFileStore) WriteFile(ctx context.Context, name string, data []byte) (domain.FileRef, error) {
	if err := ctx.Err(); err != nil {
		return domain.FileRef{}, err
	}
	p, err := s.Path(name)
	if err != nil {
		return domain.FileRef{}, err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return domain.FileRef{}, fmt.Errorf("write %s: %w", name, err)
	}
	return domain.FileRef{URI: "file://" + filepath.ToSlash(p), Path: p, Name: name, Size: len(data)}, nil
}

// ReadFileAsBase64 reads a file:// URI or a plain path inside the readable
// roots.
func (s *LocalFileStore) ReadFileAsBase64(ctx context.Context, uri string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := uri
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", uri, err)
		}
		p = filepath.FromSlash(u.Path)
	}
	p, ok := s.readable(p)
	if !ok {
		return "", fmt.Errorf("read %s: %w", uri, ErrOutsideStore)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", uri, err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DirectorySharer "shares" by copying the file into a target directory,
// which is what the CLI harness uses as its save location.
type DirectorySharer struct {
	dir string
}

func NewDirectorySharer(dir string) *DirectorySharer {
	return &DirectorySharer{dir: dir}
}

func (s *DirectorySharer) Share(ctx context.Context, f domain.FileRef, mimeType, title string) (domain.ShareOutcome, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return domain.ShareOutcome{}, fmt.Errorf("create %s: %w", s.dir, err)
	}
	dst := filepath.Join(s.dir, f.Name)
	if filepath.Clean(dst) == filepath.Clean(f.Path) {
		return domain.ShareOutcome{Shared: true, Location: dst}, nil
	}
	if err := copyFile(f.Path, dst); err != nil {
		return domain.ShareOutcome{}, err
	}
	return domain.ShareOutcome{Shared: true, Location: dst}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return out.Close()
}

// DownloadSharer publishes a file as a download link under baseURL.
type DownloadSharer struct {
	baseURL string
}

func NewDownloadSharer(baseURL string) *DownloadSharer {
	return &DownloadSharer{baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DownloadSharer) Share(ctx context.Context, f domain.FileRef, mimeType, title string) (domain.ShareOutcome, error) {
	return domain.ShareOutcome{Shared: true, Location: s.baseURL + "/" + url.PathEscape(f.Name)}, nil
}
