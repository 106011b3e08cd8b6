package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filedrop/internal/client/models"
	"github.com/dmitrijs2005/filedrop/internal/dbx"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

const upsertQuery = `INSERT INTO files (file_id, file_name, created_at, status, cached_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(file_id) DO UPDATE SET
		file_name = excluded.file_name,
		created_at = excluded.created_at,
		status = excluded.status,
		cached_at = excluded.cached_at`

const markSyncedQuery = `INSERT INTO sync_state (id, synced_at) VALUES (1, ?)
	ON CONFLICT(id) DO UPDATE SET synced_at = excluded.synced_at`

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, recs []models.FileRecord) error {
	cachedAt := toNanos(r.now())

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM files`); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		for _, rec := range recs {
			if err := upsert(ctx, tx, rec, cachedAt); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, markSyncedQuery, cachedAt); err != nil {
			return fmt.Errorf("failed to record sync time: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) Upsert(ctx context.Context, rec models.FileRecord) error {
	return upsert(ctx, r.db, rec, toNanos(r.now()))
}

func upsert(ctx context.Context, db dbx.DBTX, rec models.FileRecord, cachedAt int64) error {
	_, err := db.ExecContext(ctx, upsertQuery,
		rec.FileID, rec.FileName, toNanos(rec.CreatedAt), string(rec.Status), cachedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert file %s: %w", rec.FileID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.FileRecord, error) {
	query := `SELECT file_id, file_name, created_at, status FROM files ORDER BY created_at DESC, file_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error selecting files: %w", err)
	}
	defer rows.Close()

	result := []models.FileRecord{}
	for rows.Next() {
		var (
			rec     models.FileRecord
			created int64
			status  string
		)
		if err := rows.Scan(&rec.FileID, &rec.FileName, &created, &status); err != nil {
			return nil, fmt.Errorf("error scanning file: %w", err)
		}
		rec.CreatedAt = fromNanos(created)
		rec.Status = models.FileStatus(status)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE file_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", id, err)
	}
	if err := dbx.ExpectAffected(res, 1); err != nil {
		return fmt.Errorf("delete file %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) LastSync(ctx context.Context) (time.Time, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT synced_at FROM sync_state WHERE id = 1`).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("error reading last sync: %w", err)
	}
	return fromNanos(n), nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
