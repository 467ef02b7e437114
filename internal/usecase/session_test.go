package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"cv-builder/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() SessionConfig {
	return SessionConfig{
		ProgressInterval: 2 * time.Millisecond,
		ProgressStep:     10,
		ProgressCeiling:  90,
	}
}

func newTestSession(t *testing.T, cfg SessionConfig, r *fakeRenderer, sh *fakeSharer, p ImagePicker) *Session {
	t.Helper()
	e := newTestExporter(r, newMemFileStore(), sh, nil, false)
	s := NewSession(uuid.New(), cfg, e, p, nil)
	t.Cleanup(s.Close)
	return s
}

func toFinalStep(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.SetStep(model.FinalStep))
}

func TestSession_Defaults(t *testing.T) {
	s := newTestSession(t, fastConfig(), &fakeRenderer{}, &fakeSharer{}, nil)
	snap := s.Snapshot()
	assert.Equal(t, model.StepPersonal, snap.Step)
	assert.Equal(t, "Personal Information", snap.StepTitle)
	assert.Equal(t, 1, snap.SelectedTemplate)
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.Progress)
	assert.False(t, snap.ModalOpen)
	assert.Nil(t, snap.Banner)
	assert.Len(t, snap.Data.Experiences, 1)
}

func TestSession_StepNavigation(t *testing.T) {
	s := newTestSession(t, fastConfig(), &fakeRenderer{}, &fakeSharer{}, nil)
	assert.Equal(t, 1, s.PrevStep())
	for i := 2; i <= 6; i++ {
		assert.Equal(t, i, s.NextStep())
	}
	assert.Equal(t, 6, s.NextStep())
	assert.Equal(t, 5, s.PrevStep())

	assert.ErrorIs(t, s.SetStep(0), ErrInvalidStep)
	assert.ErrorIs(t, s.SetStep(7), ErrInvalidStep)
	require.NoError(t, s.SetStep(3))
	assert.Equal(t, "Education", s.Snapshot().StepTitle)
}

func TestSession_UpdateAndReplace(t *testing.T) {
	s := newTestSession(t, fastConfig(), &fakeRenderer{}, &fakeSharer{}, nil)

	require.NoError(t, s.Update(func(d model.CVData) (model.CVData, error) {
		return d.WithField("fullName", "Jane Doe")
	}))
	assert.Equal(t, "Jane Doe", s.Data().FullName)

	err := s.Update(func(d model.CVData) (model.CVData, error) {
		return d.RemoveExperience(5)
	})
	assert.ErrorIs(t, err, model.ErrInvalidIndex)
	assert.Len(t, s.Data().Experiences, 1)

	s.Replace(model.CVData{FullName: "Other"})
	d := s.Data()
	assert.Equal(t, "Other", d.FullName)
	assert.NotNil(t, d.Expertise)
}

func TestSession_SelectTemplateKeepsUnknownID(t *testing.T) {
	s := newTestSession(t, fastConfig(), &fakeRenderer{}, &fakeSharer{}, nil)
	s.SelectTemplate(3)
	assert.Equal(t, 3, s.Snapshot().SelectedTemplate)
	s.SelectTemplate(99)
	assert.Equal(t, 99, s.Snapshot().SelectedTemplate)
}

func TestSession_ExportRequiresFinalStep(t *testing.T) {
	r := &fakeRenderer{}
	s := newTestSession(t, fastConfig(), r, &fakeSharer{}, nil)

	_, err := s.Export(context.Background())
	assert.ErrorIs(t, err, ErrNotFinalStep)
	assert.Empty(t, r.calls())
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_ExportSuccess(t *testing.T) {
	r := &fakeRenderer{delay: 20 * time.Millisecond}
	s := newTestSession(t, fastConfig(), r, &fakeSharer{}, nil)
	toFinalStep(t, s)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	res, err := s.Export(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)

	snap := s.Snapshot()
	assert.Equal(t, StateSucceeded, snap.State)
	assert.False(t, snap.ModalOpen)
	assert.Zero(t, snap.Progress)
	require.NotNil(t, snap.Banner)
	assert.Equal(t, BannerSuccess, snap.Banner.Kind)
	assert.Equal(t, MsgExportSucceeded, snap.Banner.Message)
	assert.Equal(t, res, snap.LastExport)

	snaps := rec.all()
	require.NotEmpty(t, snaps)
	assert.Equal(t, StateExporting, snaps[0].State)
	assert.True(t, snaps[0].ModalOpen)

	var sawFull bool
	prev := 0
	for _, sn := range snaps {
		if sn.State != StateExporting {
			continue
		}
		assert.GreaterOrEqual(t, sn.Progress, prev)
		prev = sn.Progress
		if sn.Progress == 100 {
			sawFull = true
		} else {
			assert.LessOrEqual(t, sn.Progress, 90)
		}
	}
	assert.True(t, sawFull)
}

func TestSession_ExportFailureStopsProgress(t *testing.T) {
	r := &fakeRenderer{delay: 20 * time.Millisecond, err: errors.New("engine unavailable")}
	s := newTestSession(t, fastConfig(), r, &fakeSharer{}, nil)
	toFinalStep(t, s)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	_, err := s.Export(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.False(t, snap.ModalOpen)
	assert.Zero(t, snap.Progress)
	require.NotNil(t, snap.Banner)
	assert.Equal(t, BannerError, snap.Banner.Kind)
	assert.Equal(t, MsgExportFailed, snap.Banner.Message)

	n := rec.len()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, rec.len(), "no progress events after failure")
	for _, sn := range rec.all() {
		assert.NotEqual(t, 100, sn.Progress)
	}
}

func TestSession_ExportNotReentrant(t *testing.T) {
	gate := make(chan struct{})
	r := &fakeRenderer{gate: gate}
	s := newTestSession(t, fastConfig(), r, &fakeSharer{}, nil)
	toFinalStep(t, s)

	done, err := s.StartExport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateExporting, s.State())

	_, err = s.StartExport(context.Background())
	assert.ErrorIs(t, err, ErrExportInProgress)

	close(gate)
	out := <-done
	require.NoError(t, out.Err)
	assert.Len(t, r.calls(), 1)

	_, err = s.Export(context.Background())
	assert.ErrorIs(t, err, ErrExportInProgress, "a finished export must be dismissed first")
	s.Dismiss()
	_, err = s.Export(context.Background())
	assert.NoError(t, err)
}

func TestSession_ExportSurvivesCallerCancel(t *testing.T) {
	gate := make(chan struct{})
	s := newTestSession(t, fastConfig(), &fakeRenderer{gate: gate}, &fakeSharer{}, nil)
	toFinalStep(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	done, err := s.StartExport(ctx)
	require.NoError(t, err)
	cancel()
	close(gate)
	out := <-done
	assert.NoError(t, out.Err)
	assert.Equal(t, StateSucceeded, s.State())
}

func TestSession_ExportUsesDataAtStart(t *testing.T) {
	gate := make(chan struct{})
	r := &fakeRenderer{gate: gate}
	s := newTestSession(t, fastConfig(), r, &fakeSharer{}, nil)
	require.NoError(t, s.Update(func(d model.CVData) (model.CVData, error) {
		return d.WithField("fullName", "Before Edit")
	}))
	toFinalStep(t, s)

	done, err := s.StartExport(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Update(func(d model.CVData) (model.CVData, error) {
		return d.WithField("fullName", "After Edit")
	}))
	close(gate)
	out := <-done
	require.NoError(t, out.Err)
	assert.Contains(t, r.calls()[0], "Before Edit")
	assert.Equal(t, "CV_Before_Edit_1700000000123.pdf", out.Result.File.Name)
}

func TestSession_BannerExpires(t *testing.T) {
	cfg := fastConfig()
	cfg.BannerTTL = 15 * time.Millisecond
	s := newTestSession(t, cfg, &fakeRenderer{}, &fakeSharer{}, nil)
	toFinalStep(t, s)

	_, err := s.Export(context.Background())
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.Banner == nil && snap.State == StateIdle
	}, time.Second, 5*time.Millisecond)
}

func TestSession_Dismiss(t *testing.T) {
	s := newTestSession(t, fastConfig(), &fakeRenderer{err: errors.New("x")}, &fakeSharer{}, nil)
	toFinalStep(t, s)

	_, err := s.Export(context.Background())
	require.Error(t, err)
	require.NotNil(t, s.Snapshot().Banner)

	s.Dismiss()
	snap := s.Snapshot()
	assert.Nil(t, snap.Banner)
	assert.Equal(t, StateIdle, snap.State)
}

func TestSession_PickProfileImage(t *testing.T) {
	ref := &model.ImageRef{URI: "file:///tmp/me.jpg", MimeType: "image/jpeg", Base64: "aGVsbG8="}
	s := newTestSession(t, fastConfig(), &fakeRenderer{}, &fakeSharer{}, fakePicker{ref: ref})

	changed, err := s.PickProfileImage(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, s.Data().ProfileImage)
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", *s.Data().ProfileImage)
}

func TestSession_PickProfileImageCancelled(t *testing.T) {
	s := newTestSession(t, fastConfig(), &fakeRenderer{}, &fakeSharer{}, fakePicker{err: ErrCancelled})

	changed, err := s.PickProfileImage(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, s.Data().ProfileImage)
	assert.Nil(t, s.Snapshot().Banner)

	s = newTestSession(t, fastConfig(), &fakeRenderer{}, &fakeSharer{}, fakePicker{})
	changed, err = s.PickProfileImage(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSession_PickProfileImageError(t *testing.T) {
	s := newTestSession(t, fastConfig(), &fakeRenderer{}, &fakeSharer{}, fakePicker{err: errors.New("permission denied")})

	changed, err := s.PickProfileImage(context.Background())
	require.Error(t, err)
	assert.False(t, changed)
	require.NotNil(t, s.Snapshot().Banner)
	assert.Equal(t, MsgPickFailed, s.Snapshot().Banner.Message)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_Unsubscribe(t *testing.T) {
	s := newTestSession(t, fastConfig(), &fakeRenderer{}, &fakeSharer{}, nil)
	rec := &recorder{}
	stop := s.Subscribe(rec.listen)
	s.NextStep()
	stop()
	s.NextStep()
	assert.Equal(t, 1, rec.len())
}
