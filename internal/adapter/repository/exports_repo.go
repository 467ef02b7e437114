package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"cv-builder/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

type ExportsRepo struct {
	pool *pgxpool.Pool
}

// NewExportsRepo returns a repo backed by pool. A nil pool turns every
// call into a no-op so the service runs without a database.
func NewExportsRepo(pool *pgxpool.Pool) *ExportsRepo {
	return &ExportsRepo{pool: pool}
}

func (r *ExportsRepo) Enabled() bool {
	return r != nil && r.pool != nil
}

func (r *ExportsRepo) Save(ctx context.Context, e *domain.ExportRecord) error {
	if !r.Enabled() {
		return nil
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	metaB, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal export metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx, `INSERT INTO cv_exports (id, session_id, template_id, status, file_name, file_path, file_size, shared, error, metadata, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, file_name = EXCLUDED.file_name, file_path = EXCLUDED.file_path, file_size = EXCLUDED.file_size, shared = EXCLUDED.shared, error = EXCLUDED.error, metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at`,
		e.ID, e.SessionID, e.TemplateID, e.Status, e.FileName, e.FilePath, e.FileSize, e.Shared, e.Error, metaB, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert cv_exports: %w", err)
	}
	return nil
}

// ListBySession returns the most recent exports of a session, newest first.
func (r *ExportsRepo) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.ExportRecord, error) {
	if !r.Enabled() {
		return []domain.ExportRecord{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `SELECT id, session_id, template_id, status, file_name, file_path, file_size, shared, error, metadata, created_at, updated_at
		FROM cv_exports WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query cv_exports: %w", err)
	}
	defer rows.Close()

	out := []domain.ExportRecord{}
	for rows.Next() {
		var (
			e     domain.ExportRecord
			metaB []byte
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.TemplateID, &e.Status, &e.FileName, &e.FilePath, &e.FileSize, &e.Shared, &e.Error, &metaB, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cv_exports: %w", err)
		}
		if len(metaB) > 0 {
			if err := json.Unmarshal(metaB, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode export metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
