package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/filedrop/internal/client/api"
	"github.com/dmitrijs2005/filedrop/internal/client/models"
	"github.com/dmitrijs2005/filedrop/internal/client/repositories/files"
	"github.com/dmitrijs2005/filedrop/internal/dbx"
	"github.com/dmitrijs2005/filedrop/internal/filex"
	"github.com/dmitrijs2005/filedrop/internal/identity"
	"github.com/dmitrijs2005/filedrop/internal/logging"
	"github.com/sethvargo/go-retry"
)

// Listing is the result of a list call. Stale is set when the API could not
// be reached and Files come from the local cache as of SyncedAt.
type Listing struct {
	Files    []models.FileRecord
	Stale    bool
	SyncedAt time.Time
}

type FileService interface {
	// List fetches the API's file list and refreshes the cache with it.
	List(ctx context.Context) (Listing, error)
	// Cached returns the cache without contacting the API.
	Cached(ctx context.Context) (Listing, error)
	// Upload stores u and returns the id the API assigned to it.
	Upload(ctx context.Context, u models.Upload) (string, error)
	// Download waits until fileID is ready and returns its one-time URL.
	Download(ctx context.Context, fileID string) (models.DownloadTicket, error)
	// Save writes the object behind t to dir/name and returns the path.
	Save(ctx context.Context, t models.DownloadTicket, dir, name string) (string, int64, error)
	// Delete removes fileID from the API and then from the cache.
	Delete(ctx context.Context, fileID string) error
	// Status reports the action in flight.
	Status() Status
}

// Config tunes the timing of the workflows.
type Config struct {
	// SettleDelay is waited after an upload before the list is refreshed.
	SettleDelay time.Duration
	// PollInterval separates readiness checks during Download.
	PollInterval time.Duration
	// PollAttempts bounds the number of readiness checks, first one included.
	PollAttempts int
}

type fileService struct {
	client  api.Client
	repo    files.Repository
	ident   identity.Provider
	log     logging.Logger
	cfg     Config
	tracker Tracker
	now     func() time.Time
}

func NewFileService(client api.Client, repo files.Repository, ident identity.Provider, log logging.Logger, cfg Config) FileService {
	if cfg.PollAttempts < 1 {
		cfg.PollAttempts = 1
	}
	// go-retry rejects a non-positive constant backoff.
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Nanosecond
	}
	if log == nil {
		log = logging.Discard()
	}
	return &fileService{
		client: client,
		repo:   repo,
		ident:  ident,
		log:    log,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *fileService) Status() Status {
	return s.tracker.Current()
}

func (s *fileService) List(ctx context.Context) (Listing, error) {
	done, err := s.tracker.Begin(StatusListing)
	if err != nil {
		return Listing{}, err
	}
	defer done()

	return s.refresh(ctx)
}

// refresh replaces the cache with the API's list, falling back to the cache
// when the API is unreachable and something was cached before.
func (s *fileService) refresh(ctx context.Context) (Listing, error) {
	recs, err := s.client.ListFiles(ctx)
	if err != nil {
		if !errors.Is(err, api.ErrUnavailable) {
			s.log.Warn(ctx, "list failed", "error", err)
			return Listing{}, err
		}

		cached, cerr := s.Cached(ctx)
		if cerr != nil || cached.SyncedAt.IsZero() {
			s.log.Warn(ctx, "list failed and nothing cached", "error", err)
			return Listing{}, err
		}
		s.log.Warn(ctx, "API unreachable, serving cached list", "error", err, "synced_at", cached.SyncedAt)
		cached.Stale = true
		return cached, nil
	}

	if err := s.repo.ReplaceAll(ctx, recs); err != nil {
		s.log.Warn(ctx, "cache refresh failed", "error", err)
	}
	s.log.Debug(ctx, "listed files", "count", len(recs))

	return Listing{Files: recs, SyncedAt: s.now()}, nil
}

func (s *fileService) Cached(ctx context.Context) (Listing, error) {
	recs, err := s.repo.GetAll(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("read cache: %w", err)
	}
	at, err := s.repo.LastSync(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("read cache: %w", err)
	}
	return Listing{Files: recs, SyncedAt: at}, nil
}

func (s *fileService) Upload(ctx context.Context, u models.Upload) (string, error) {
	done, err := s.tracker.Begin(StatusUploading)
	if err != nil {
		return "", err
	}
	defer done()

	userID, err := s.ident.UserID(ctx)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	name := filex.SanitizeName(u.Name)
	if name == "" {
		return "", errors.New("upload: empty file name")
	}
	if u.Body == nil {
		return "", errors.New("upload: no file selected")
	}
	if u.ContentType == "" {
		u.ContentType = filex.DefaultContentType
	}

	log := s.log.With("file_name", name)

	ticket, err := s.client.RequestUpload(ctx, name, userID)
	if err != nil {
		log.Warn(ctx, "upload URL request failed", "error", err)
		return "", fmt.Errorf("upload: %w", err)
	}
	log = log.With("file_id", ticket.FileID)
	log.Debug(ctx, "got upload URL")

	if err := s.client.PutObject(ctx, ticket.UploadURL, u); err != nil {
		log.Warn(ctx, "put failed", "error", err)
		return "", fmt.Errorf("upload: %w", err)
	}
	log.Info(ctx, "uploaded", "bytes", u.Size)

	rec := models.FileRecord{
		FileID:    ticket.FileID,
		FileName:  name,
		CreatedAt: s.now().UTC(),
		Status:    models.StatusPending,
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		log.Warn(ctx, "cache insert failed", "error", err)
	}

	if err := sleepCtx(ctx, s.cfg.SettleDelay); err != nil {
		return ticket.FileID, fmt.Errorf("upload: %w", err)
	}

	if _, err := s.refresh(ctx); err != nil {
		return ticket.FileID, fmt.Errorf("upload: refresh: %w", err)
	}
	return ticket.FileID, nil
}

func (s *fileService) Download(ctx context.Context, fileID string) (models.DownloadTicket, error) {
	done, err := s.tracker.Begin(StatusDownloading)
	if err != nil {
		return models.DownloadTicket{}, err
	}
	defer done()

	log := s.log.With("file_id", fileID)

	b := retry.WithMaxRetries(uint64(s.cfg.PollAttempts-1), retry.NewConstant(s.cfg.PollInterval))

	attempt := 0
	ticket, err := retry.DoValue(ctx, b, func(ctx context.Context) (models.DownloadTicket, error) {
		attempt++
		t, err := s.client.GetDownloadURL(ctx, fileID)
		if errors.Is(err, api.ErrNotReady) {
			log.Debug(ctx, "not ready yet", "attempt", attempt)
			return t, retry.RetryableError(err)
		}
		return t, err
	})
	if err != nil {
		if errors.Is(err, api.ErrNotReady) {
			log.Warn(ctx, "gave up waiting", "attempts", attempt)
			return models.DownloadTicket{}, fmt.Errorf("download %s: %w", fileID, ErrTakingTooLong)
		}
		log.Warn(ctx, "download URL request failed", "attempt", attempt, "error", err)
		return models.DownloadTicket{}, fmt.Errorf("download %s: %w", fileID, err)
	}

	log.Debug(ctx, "download URL ready", "attempts", attempt)
	return ticket, nil
}

func (s *fileService) Save(ctx context.Context, t models.DownloadTicket, dir, name string) (string, int64, error) {
	done, err := s.tracker.Begin(StatusDownloading)
	if err != nil {
		return "", 0, err
	}
	defer done()

	base := filex.SafeBase(name)
	if base == "" {
		base = filex.SafeBase(t.FileID)
	}
	if base == "" {
		return "", 0, errors.New("save: no usable file name")
	}

	absDir, err := filex.EnsureDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("save: %w", err)
	}
	path := filepath.Join(absDir, base)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("save: %w", err)
	}

	n, err := s.client.FetchObject(ctx, t.DownloadURL, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		s.log.Warn(ctx, "save failed", "file_id", t.FileID, "error", err)
		return "", 0, fmt.Errorf("save: %w", err)
	}

	s.log.Info(ctx, "saved", "file_id", t.FileID, "path", path, "bytes", n)
	return path, n, nil
}

func (s *fileService) Delete(ctx context.Context, fileID string) error {
	done, err := s.tracker.Begin(StatusDeleting)
	if err != nil {
		return err
	}
	defer done()

	if err := s.client.DeleteFile(ctx, fileID); err != nil {
		s.log.Warn(ctx, "delete failed", "file_id", fileID, "error", err)
		return fmt.Errorf("delete %s: %w", fileID, err)
	}

	if err := s.repo.DeleteByID(ctx, fileID); err != nil && !errors.Is(err, dbx.ErrNoRows) {
		s.log.Warn(ctx, "cache delete failed", "file_id", fileID, "error", err)
	}
	s.log.Info(ctx, "deleted", "file_id", fileID)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
