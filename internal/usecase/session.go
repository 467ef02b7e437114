package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cv-builder/internal/cvtemplate"
	"cv-builder/internal/model"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var (
	ErrExportInProgress = errors.New("export already in progress")
	ErrNotFinalStep     = errors.New("export is only available on the final step")
	ErrInvalidStep      = errors.New("invalid step")
)

const (
	MsgExportSucceeded = "CV exported successfully!"
	MsgExportFailed    = "Failed to export CV. Please try again."
	MsgPickFailed      = "Failed to load the selected image. Please try again."
)

type ExportState string

const (
	StateIdle      ExportState = "idle"
	StateExporting ExportState = "exporting"
	StateSucceeded ExportState = "succeeded"
	StateFailed    ExportState = "failed"
)

type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

type Banner struct {
	Kind    BannerKind `json:"kind"`
	Message string     `json:"message"`
}

// SessionConfig holds the timings of the export flow. The progress ticker
// is cosmetic: it never reflects how far the conversion actually got.
type SessionConfig struct {
	ProgressInterval time.Duration
	ProgressStep     int
	ProgressCeiling  int
	// StartDelay is the pause between opening the modal and starting work.
	StartDelay time.Duration
	// ModalCloseDelay is applied after reaching 100% and again after sharing.
	ModalCloseDelay time.Duration
	BannerTTL       time.Duration
	Options         cvtemplate.Options
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ProgressInterval: 3 * time.Second,
		ProgressStep:     10,
		ProgressCeiling:  90,
		StartDelay:       time.Second,
		ModalCloseDelay:  500 * time.Millisecond,
		BannerTTL:        5 * time.Second,
	}
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	ID               uuid.UUID     `json:"id"`
	Data             model.CVData  `json:"data"`
	Step             int           `json:"step"`
	StepTitle        string        `json:"stepTitle"`
	SelectedTemplate int           `json:"selectedTemplate"`
	State            ExportState   `json:"state"`
	Progress         int           `json:"progress"`
	ModalOpen        bool          `json:"modalOpen"`
	Banner           *Banner       `json:"banner,omitempty"`
	LastExport       *ExportResult `json:"lastExport,omitempty"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Listener receives every state change in order. It must not call
// mutating Session methods.
type Listener func(Snapshot)

// Session owns the CV data and UI state of one builder session.
type Session struct {
	id       uuid.UUID
	cfg      SessionConfig
	exporter *Exporter
	picker   ImagePicker
	logger   *log.Logger

	mu        sync.Mutex
	data      model.CVData
	step      int
	template  int
	state     ExportState
	progress  int
	modalOpen bool
	banner    *Banner
	last      *ExportResult
	updatedAt time.Time

	// exportGen invalidates ticks of finished exports; bannerGen does the
	// same for banner expiry timers.
	exportGen   uint64
	bannerGen   uint64
	bannerTimer *time.Timer

	emitMu    sync.Mutex
	listeners map[int]Listener
	nextLn    int
}

func NewSession(id uuid.UUID, cfg SessionConfig, exporter *Exporter, picker ImagePicker, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		id:        id,
		cfg:       cfg,
		exporter:  exporter,
		picker:    picker,
		logger:    logger.With("session", id.String()[:8]),
		data:      model.NewCVData(),
		step:      model.StepPersonal,
		template:  cvtemplate.DefaultTemplateID,
		state:     StateIdle,
		updatedAt: time.Now(),
		listeners: map[int]Listener{},
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// Subscribe registers l and returns a function removing it.
func (s *Session) Subscribe(l Listener) func() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	id := s.nextLn
	s.nextLn++
	s.listeners[id] = l
	return func() {
		s.emitMu.Lock()
		defer s.emitMu.Unlock()
		delete(s.listeners, id)
	}
}

// commit releases mu after a mutation and delivers the new snapshot.
// emitMu is taken before mu is released so listeners see changes in order.
func (s *Session) commit() {
	s.updatedAt = time.Now()
	snap := s.snapshotLocked()
	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()
	for _, l := range s.listeners {
		l(snap)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:               s.id,
		Data:             s.data.Clone(),
		Step:             s.step,
		StepTitle:        model.StepTitle(s.step),
		SelectedTemplate: s.template,
		State:            s.state,
		Progress:         s.progress,
		ModalOpen:        s.modalOpen,
		LastExport:       s.last,
		UpdatedAt:        s.updatedAt,
	}
	if s.banner != nil {
		b := *s.banner
		snap.Banner = &b
	}
	return snap
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Options are the render settings exports of this session use.
func (s *Session) Options() cvtemplate.Options { return s.cfg.Options }

func (s *Session) Data() model.CVData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) State() ExportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Replace swaps the whole CV value.
func (s *Session) Replace(d model.CVData) {
	s.mu.Lock()
	s.data = d.Normalize()
	s.commit()
}

// Update applies fn to the current value. If fn fails nothing changes.
func (s *Session) Update(fn func(model.CVData) (model.CVData, error)) error {
	s.mu.Lock()
	next, err := fn(s.data.Clone())
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.data = next.Normalize()
	s.commit()
	return nil
}

func (s *Session) NextStep() int {
	s.mu.Lock()
	if s.step < model.FinalStep {
		s.step++
	}
	step := s.step
	s.commit()
	return step
}

func (s *Session) PrevStep() int {
	s.mu.Lock()
	if s.step > model.StepPersonal {
		s.step--
	}
	step := s.step
	s.commit()
	return step
}

func (s *Session) SetStep(step int) error {
	if !model.ValidStep(step) {
		return fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	s.mu.Lock()
	s.step = step
	s.commit()
	return nil
}

// SelectTemplate stores id as given. Unknown ids render with the default
// layout at export time.
func (s *Session) SelectTemplate(id int) {
	if _, ok := cvtemplate.Lookup(id); !ok {
		s.logger.Warn("unknown template selected", "template", id)
	}
	s.mu.Lock()
	s.template = id
	s.commit()
}

// PickProfileImage asks the picker for an image. It reports whether the
// profile image changed; a cancelled picker changes nothing.
func (s *Session) PickProfileImage(ctx context.Context) (bool, error) {
	if s.picker == nil {
		return false, errors.New("no image picker configured")
	}
	ref, err := s.picker.PickImage(ctx)
	if errors.Is(err, ErrCancelled) || (err == nil && ref == nil) {
		return false, nil
	}
	if err == nil {
		err = ref.Validate()
	}
	if err != nil {
		s.logger.Error("image pick failed", "err", err)
		s.mu.Lock()
		s.showBannerLocked(BannerError, MsgPickFailed)
		s.commit()
		return false, err
	}
	s.SetProfileImage(ref)
	return true, nil
}

// SetProfileImage stores a picked image.
func (s *Session) SetProfileImage(ref *model.ImageRef) {
	src := ref.Source()
	s.mu.Lock()
	s.data = s.data.SetProfileImage(&src)
	s.commit()
}

// Dismiss clears the banner and, after a finished export, returns to idle.
func (s *Session) Dismiss() {
	s.mu.Lock()
	s.clearBannerLocked()
	s.commit()
}

// Export runs an export and blocks until it has finished.
func (s *Session) Export(ctx context.Context) (*ExportResult, error) {
	done, err := s.StartExport(ctx)
	if err != nil {
		return nil, err
	}
	out := <-done
	return out.Result, out.Err
}

type ExportOutcome struct {
	Result *ExportResult
	Err    error
}

// StartExport moves Idle to Exporting and runs the pipeline in the
// background. The returned channel yields exactly one outcome. The pipeline
// is not cancelled when ctx is.
func (s *Session) StartExport(ctx context.Context) (<-chan ExportOutcome, error) {
	s.mu.Lock()
	if s.step != model.FinalStep {
		s.mu.Unlock()
		return nil, ErrNotFinalStep
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, ErrExportInProgress
	}
	s.exportGen++
	gen := s.exportGen
	s.clearBannerLocked()
	s.state = StateExporting
	s.progress = 0
	s.modalOpen = true
	req := ExportRequest{
		SessionID:  s.id,
		Data:       s.data.Clone(),
		TemplateID: s.template,
		Options:    s.cfg.Options,
	}
	s.commit()

	done := make(chan ExportOutcome, 1)
	go func() {
		res, err := s.runExport(context.WithoutCancel(ctx), gen, req)
		done <- ExportOutcome{Result: res, Err: err}
		close(done)
	}()
	return done, nil
}

func (s *Session) runExport(ctx context.Context, gen uint64, req ExportRequest) (*ExportResult, error) {
	stop := s.startProgress(gen)
	stopped := false
	stopProgress := func() {
		if !stopped {
			close(stop)
			stopped = true
		}
	}
	defer stopProgress()

	sleep(s.cfg.StartDelay)

	art, err := s.exporter.Produce(ctx, req)
	stopProgress()
	if err != nil {
		s.fail(gen, err)
		return nil, err
	}

	s.mu.Lock()
	s.progress = 100
	s.commit()
	sleep(s.cfg.ModalCloseDelay)

	res, err := s.exporter.Share(ctx, art)
	if err != nil {
		s.fail(gen, err)
		return nil, err
	}

	sleep(s.cfg.ModalCloseDelay)
	s.mu.Lock()
	s.state = StateSucceeded
	s.modalOpen = false
	s.progress = 0
	s.last = res
	s.showBannerLocked(BannerSuccess, MsgExportSucceeded)
	s.commit()
	s.logger.Info("export succeeded", "file", res.File.Name, "shared", res.Share.Shared)
	return res, nil
}

func (s *Session) fail(gen uint64, err error) {
	s.logger.Error("export failed", "err", err)
	s.mu.Lock()
	if s.exportGen == gen {
		s.state = StateFailed
		s.modalOpen = false
		s.progress = 0
		s.showBannerLocked(BannerError, MsgExportFailed)
	}
	s.commit()
}

// startProgress advances the cosmetic progress bar until stop is closed.
func (s *Session) startProgress(gen uint64) chan struct{} {
	stop := make(chan struct{})
	if s.cfg.ProgressInterval <= 0 {
		return stop
	}
	go func() {
		t := time.NewTicker(s.cfg.ProgressInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				select {
				case <-stop:
					return
				default:
				}
				if !s.tick(gen) {
					return
				}
			}
		}
	}()
	return stop
}

// tick reports whether the ticker should keep running.
func (s *Session) tick(gen uint64) bool {
	s.mu.Lock()
	if s.exportGen != gen || s.state != StateExporting || s.progress >= 100 {
		s.mu.Unlock()
		return false
	}
	if s.progress >= s.cfg.ProgressCeiling {
		s.mu.Unlock()
		return false
	}
	s.progress += s.cfg.ProgressStep
	if s.progress > s.cfg.ProgressCeiling {
		s.progress = s.cfg.ProgressCeiling
	}
	s.commit()
	return true
}

func (s *Session) showBannerLocked(kind BannerKind, msg string) {
	s.banner = &Banner{Kind: kind, Message: msg}
	s.bannerGen++
	gen := s.bannerGen
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
		s.bannerTimer = nil
	}
	if s.cfg.BannerTTL > 0 {
		s.bannerTimer = time.AfterFunc(s.cfg.BannerTTL, func() {
			s.mu.Lock()
			if s.bannerGen != gen {
				s.mu.Unlock()
				return
			}
			s.clearBannerLocked()
			s.commit()
		})
	}
}

func (s *Session) clearBannerLocked() {
	s.banner = nil
	s.bannerGen++
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
		s.bannerTimer = nil
	}
	if s.state == StateSucceeded || s.state == StateFailed {
		s.state = StateIdle
	}
}

// Close stops pending timers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bannerGen++
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
		s.bannerTimer = nil
	}
}

func sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
