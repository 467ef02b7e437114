package repository

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"cv-builder/internal/domain"
	"cv-builder/internal/infrastructure/migration"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to CV_BUILDER_TEST_DATABASE_URL and migrates it, or
// skips the test when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("CV_BUILDER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CV_BUILDER_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, migration.RunMigrations(ctx, pool, log.New(io.Discard)))
	return pool
}

func TestExportsRepo_NilPoolIsNoop(t *testing.T) {
	r := NewExportsRepo(nil)
	assert.False(t, r.Enabled())

	e := &domain.ExportRecord{Status: domain.ExportSucceeded}
	require.NoError(t, r.Save(context.Background(), e))
	assert.Equal(t, uuid.Nil, e.ID, "no id is assigned when nothing is stored")

	list, err := r.ListBySession(context.Background(), uuid.New(), 5)
	require.NoError(t, err)
	assert.Empty(t, list)

	var nilRepo *ExportsRepo
	assert.False(t, nilRepo.Enabled())
}

func TestExportsRepo_SaveAndList(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	r := NewExportsRepo(pool)
	require.True(t, r.Enabled())

	session := uuid.New()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM cv_exports WHERE session_id = $1`, session)
	})

	base := time.Now().UTC().Truncate(time.Millisecond)
	first := &domain.ExportRecord{
		SessionID:  session,
		TemplateID: 2,
		Status:     domain.ExportSucceeded,
		FileName:   "CV_Ada_1.pdf",
		FilePath:   "/exports/CV_Ada_1.pdf",
		FileSize:   1024,
		Shared:     true,
		Metadata:   map[string]interface{}{"template_name": "Modern"},
		CreatedAt:  base,
		UpdatedAt:  base,
	}
	require.NoError(t, r.Save(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID)

	second := &domain.ExportRecord{
		SessionID:  session,
		TemplateID: 4,
		Status:     domain.ExportSucceeded,
		Metadata:   map[string]interface{}{},
		CreatedAt:  base.Add(time.Second),
		UpdatedAt:  base.Add(time.Second),
	}
	require.NoError(t, r.Save(ctx, second))

	// same id updates in place
	first.Status = domain.ExportFailed
	first.Error = "convert to pdf: boom"
	first.Shared = false
	first.UpdatedAt = base.Add(2 * time.Second)
	require.NoError(t, r.Save(ctx, first))

	list, err := r.ListBySession(ctx, session, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, 4, list[0].TemplateID)

	got := list[1]
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, domain.ExportFailed, got.Status)
	assert.Equal(t, "convert to pdf: boom", got.Error)
	assert.False(t, got.Shared)
	assert.Equal(t, "CV_Ada_1.pdf", got.FileName)
	assert.Equal(t, 1024, got.FileSize)
	assert.Equal(t, "Modern", got.Metadata["template_name"])
	assert.WithinDuration(t, base, got.CreatedAt, time.Millisecond)
	assert.WithinDuration(t, base.Add(2*time.Second), got.UpdatedAt, time.Millisecond)

	list, err = r.ListBySession(ctx, session, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = r.ListBySession(ctx, uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
