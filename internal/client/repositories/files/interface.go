package files

import (
	"context"
	"time"

	"github.com/dmitrijs2005/filedrop/internal/client/models"
)

// Repository stores the cached copy of the API's file list.
type Repository interface {
	// ReplaceAll discards the cache, stores recs and records the sync time in
	// one transaction.
	ReplaceAll(ctx context.Context, recs []models.FileRecord) error

	// Upsert inserts or refreshes a single record.
	Upsert(ctx context.Context, rec models.FileRecord) error

	// GetAll returns the cached records, newest first.
	GetAll(ctx context.Context) ([]models.FileRecord, error)

	// DeleteByID drops the record with the given id. A missing id wraps
	// dbx.ErrNoRows.
	DeleteByID(ctx context.Context, id string) error

	// LastSync reports when ReplaceAll last completed, or the zero time if
	// the list was never synced. Single-record writes and deletes leave it
	// unchanged, so an empty cache can still carry a sync time.
	LastSync(ctx context.Context) (time.Time, error)
}
