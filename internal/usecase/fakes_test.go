package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"cv-builder/internal/domain"
	"cv-builder/internal/model"
)

var minimalPDF = []byte("%PDF-1.4\n%fake\n")

type fakeRenderer struct {
	mu    sync.Mutex
	html  []string
	out   []byte
	err   error
	delay time.Duration
	gate  chan struct{}
}

func (r *fakeRenderer) RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error) {
	if r.gate != nil {
		<-r.gate
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	r.html = append(r.html, html)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if r.out != nil {
		return r.out, nil
	}
	return minimalPDF, nil
}

func (r *fakeRenderer) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.html...)
}

type memFileStore struct {
	mu       sync.Mutex
	files    map[string][]byte
	local    map[string][]byte
	writeErr error
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: map[string][]byte{}, local: map[string][]byte{}}
}

func (s *memFileStore) WriteFile(_ context.Context, name string, data []byte) (domain.FileRef, error) {
	if s.writeErr != nil {
		return domain.FileRef{}, s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
	return domain.FileRef{URI: "file:///out/" + name, Path: "/out/" + name, Name: name, Size: len(data)}, nil
}

func (s *memFileStore) ReadFileAsBase64(_ context.Context, uri string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.local[uri]
	if !ok {
		return "", errors.New("no such file")
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (s *memFileStore) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for n := range s.files {
		out = append(out, n)
	}
	return out
}

type fakeSharer struct {
	mu     sync.Mutex
	shared []domain.FileRef
	out    domain.ShareOutcome
	err    error
}

func (s *fakeSharer) Share(_ context.Context, f domain.FileRef, mimeType, title string) (domain.ShareOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shared = append(s.shared, f)
	if s.err != nil {
		return domain.ShareOutcome{}, s.err
	}
	return s.out, nil
}

type fakeRepo struct {
	mu      sync.Mutex
	records []domain.ExportRecord
	err     error
}

func (r *fakeRepo) Save(_ context.Context, e *domain.ExportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *e)
	return r.err
}

func (r *fakeRepo) last() domain.ExportRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[len(r.records)-1]
}

type fakePicker struct {
	ref *model.ImageRef
	err error
}

func (p fakePicker) PickImage(context.Context) (*model.ImageRef, error) {
	return p.ref, p.err
}

// recorder collects every snapshot a session emits.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) listen(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}
