package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsintel/backend/internal/models"
)

const (
	KindAnalysis  = "analysis"
	KindSynthesis = "synthesis"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_archive (
	id          UUID PRIMARY KEY,
	dataset_id  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	result      JSONB NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS analysis_archive_dataset_idx ON analysis_archive (dataset_id, archived_at DESC);
`

// Store is an append-only archive of completed results. Session state never
// reads from it.
type Store struct {
	Pool *pgxpool.Pool
	now  func() time.Time
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool, now: time.Now}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ArchiveAnalysis(ctx context.Context, datasetID string, res models.AnalysisResult) error {
	return s.insert(ctx, datasetID, KindAnalysis, res)
}

func (s *Store) ArchiveSynthesis(ctx context.Context, res models.GlobalSynthesisResult) error {
	return s.insert(ctx, models.GlobalID, KindSynthesis, res)
}

func (s *Store) insert(ctx context.Context, datasetID, kind string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	rec := models.ArchivedAnalysis{
		ID:         uuid.NewString(),
		DatasetID:  datasetID,
		Kind:       kind,
		Result:     payload,
		ArchivedAt: s.now().UTC(),
	}
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO analysis_archive (id, dataset_id, kind, result, archived_at)
			VALUES ($1, $2, $3, $4, $5)
		`, rec.ID, rec.DatasetID, rec.Kind, rec.Result, rec.ArchivedAt)
		return err
	})
}

// ListArchived returns the newest records first. An empty datasetID lists
// every dataset.
func (s *Store) ListArchived(ctx context.Context, datasetID string, limit int) ([]models.ArchivedAnalysis, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT id::text, dataset_id, kind, result, archived_at FROM analysis_archive`
	args := []any{}
	if datasetID != "" {
		args = append(args, datasetID)
		query += ` WHERE dataset_id = $1`
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY archived_at DESC LIMIT $%d", len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ArchivedAnalysis
	for rows.Next() {
		var rec models.ArchivedAnalysis
		if err := rows.Scan(&rec.ID, &rec.DatasetID, &rec.Kind, &rec.Result, &rec.ArchivedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
