package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/filedrop/internal/client/api"
	"github.com/dmitrijs2005/filedrop/internal/client/config"
	"github.com/dmitrijs2005/filedrop/internal/client/models"
	"github.com/dmitrijs2005/filedrop/internal/client/services"
	"github.com/dmitrijs2005/filedrop/internal/identity"
	"github.com/dmitrijs2005/filedrop/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFS struct {
	listOut services.Listing
	listErr error

	cachedOut services.Listing
	cachedErr error

	upload    models.Upload
	uploadRaw string
	uploadID  string
	uploadErr error

	dlID     string
	dlTicket models.DownloadTicket
	dlErr    error

	saveDir  string
	saveName string
	savePath string
	saveN    int64
	saveErr  error

	deleted []string
	delErr  error
}

func (f *fakeFS) List(ctx context.Context) (services.Listing, error) { return f.listOut, f.listErr }
func (f *fakeFS) Cached(ctx context.Context) (services.Listing, error) {
	return f.cachedOut, f.cachedErr
}
func (f *fakeFS) Upload(ctx context.Context, u models.Upload) (string, error) {
	f.upload = u
	b, _ := io.ReadAll(u.Body)
	f.uploadRaw = string(b)
	return f.uploadID, f.uploadErr
}
func (f *fakeFS) Download(ctx context.Context, id string) (models.DownloadTicket, error) {
	f.dlID = id
	return f.dlTicket, f.dlErr
}
func (f *fakeFS) Save(ctx context.Context, t models.DownloadTicket, dir, name string) (string, int64, error) {
	f.saveDir, f.saveName = dir, name
	return f.savePath, f.saveN, f.saveErr
}
func (f *fakeFS) Delete(ctx context.Context, id string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeFS) Status() services.Status { return services.StatusIdle }

func newTestApp(fs services.FileService, input string) *App {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return &App{
		config: cfg,
		files:  fs,
		log:    logging.Discard(),
		in:     bufio.NewScanner(strings.NewReader(input)),
		out:    io.Discard,
	}
}

func withTerminal(t *testing.T, v bool) {
	t.Helper()
	orig := isTerminal
	isTerminal = func() bool { return v }
	t.Cleanup(func() { isTerminal = orig })
}

func joined(out *[]string) string { return strings.Join(*out, "\n") }

func TestList_RendersTable(t *testing.T) {
	out := capturePrint(t)
	fs := &fakeFS{listOut: services.Listing{Files: []models.FileRecord{
		{FileID: "abc123", FileName: "report.pdf", CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), Status: models.StatusPending},
		{FileID: "def456", FileName: "b.txt", Status: models.StatusUploaded},
	}}}

	require.NoError(t, newTestApp(fs, "").List(context.Background()))

	text := joined(out)
	assert.Contains(t, text, "ID")
	assert.Contains(t, text, "STATUS")
	assert.Regexp(t, `abc123\s+report\.pdf\s+\S+ \S+\s+processing`, text)
	assert.Regexp(t, `def456\s+b\.txt\s+-\s+ready`, text)
	assert.NotContains(t, text, "API unreachable")
}

func TestList_EmptyAndStale(t *testing.T) {
	out := capturePrint(t)
	fs := &fakeFS{listOut: services.Listing{Stale: true, SyncedAt: time.Now()}}

	require.NoError(t, newTestApp(fs, "").List(context.Background()))

	text := joined(out)
	assert.Contains(t, text, "API unreachable, showing cached list from")
	assert.Contains(t, text, "No files uploaded yet.")
}

func TestList_ErrorIsOneLine(t *testing.T) {
	out := capturePrint(t)
	fs := &fakeFS{listErr: fmt.Errorf("list files: %w", api.ErrUnavailable)}

	err := newTestApp(fs, "").List(context.Background())
	require.ErrorIs(t, err, api.ErrUnavailable)
	assert.Equal(t, []string{"Error: cannot reach the files API"}, *out)
}

func TestCached(t *testing.T) {
	out := capturePrint(t)
	fs := &fakeFS{}
	require.NoError(t, newTestApp(fs, "").Cached(context.Background()))
	assert.Equal(t, []string{"Nothing cached yet; run 'list' while online."}, *out)

	*out = nil
	fs.cachedOut = services.Listing{SyncedAt: time.Now(), Files: []models.FileRecord{{FileID: "x", FileName: "x.bin"}}}
	require.NoError(t, newTestApp(fs, "").Cached(context.Background()))
	assert.Contains(t, joined(out), "x.bin")
}

func TestUpload_ReadsFileAndReportsID(t *testing.T) {
	out := capturePrint(t)
	path := filepath.Join(t.TempDir(), "my report.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	fs := &fakeFS{uploadID: "abc123"}
	require.NoError(t, newTestApp(fs, "").Upload(context.Background(), path, ""))

	assert.Equal(t, "my report.txt", fs.upload.Name)
	assert.EqualValues(t, 5, fs.upload.Size)
	assert.Contains(t, fs.upload.ContentType, "text/plain")
	assert.Equal(t, "hello", fs.uploadRaw)

	text := joined(out)
	assert.Contains(t, text, "Selected: my report.txt (5 B")
	assert.Contains(t, text, "Uploaded my_report.txt as abc123")
}

func TestUpload_CustomNameAndErrors(t *testing.T) {
	out := capturePrint(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	fs := &fakeFS{uploadID: "id1"}
	app := newTestApp(fs, "")
	require.NoError(t, app.Upload(context.Background(), path, "renamed.bin"))
	assert.Equal(t, "renamed.bin", fs.upload.Name)
	assert.Contains(t, joined(out), "(0 B,")

	require.Error(t, app.Upload(context.Background(), filepath.Join(dir, "missing"), ""))
	require.Error(t, app.Upload(context.Background(), dir, ""))

	*out = nil
	fs.uploadErr = fmt.Errorf("upload: %w", services.ErrBusy)
	fs.uploadID = ""
	require.ErrorIs(t, app.Upload(context.Background(), path, ""), services.ErrBusy)
	assert.Contains(t, joined(out), "Error: please wait, another action is still running")
}

func TestUpload_AsksForMissingPath(t *testing.T) {
	withTerminal(t, true)
	out := capturePrint(t)
	path := filepath.Join(t.TempDir(), "my notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o600))

	fs := &fakeFS{uploadID: "id9"}
	app := newTestApp(fs, `"`+path+`"`+"\n")
	var prompt strings.Builder
	app.out = &prompt

	require.NoError(t, app.Upload(context.Background(), "", ""))
	assert.Equal(t, "Path to the file to upload:\n> ", prompt.String())
	assert.Equal(t, "my notes.txt", fs.upload.Name)
	assert.Equal(t, "hi", fs.uploadRaw)
	assert.Contains(t, joined(out), "Uploaded my_notes.txt as id9")
}

func TestUpload_MissingPathCancelled(t *testing.T) {
	out := capturePrint(t)

	withTerminal(t, true)
	fs := &fakeFS{}
	require.NoError(t, newTestApp(fs, "\n").Upload(context.Background(), "", ""))
	require.NoError(t, newTestApp(fs, "").Upload(context.Background(), "", ""))
	assert.Equal(t, "Cancelled.\nCancelled.", joined(out))

	*out = nil
	withTerminal(t, false)
	require.NoError(t, newTestApp(fs, "./next-command\n").Upload(context.Background(), "", ""))
	assert.Equal(t, "Usage: upload <path> [name]", joined(out))
	assert.Empty(t, fs.upload.Name, "nothing uploaded")
}

func TestUpload_NoUserID(t *testing.T) {
	out := capturePrint(t)
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o600))

	fs := &fakeFS{uploadErr: fmt.Errorf("upload: %w", identity.ErrNoIdentity)}
	require.ErrorIs(t, newTestApp(fs, "").Upload(context.Background(), path, ""), identity.ErrNoIdentity)
	assert.Contains(t, joined(out), "Error: no user id configured (set user_id or -u)")
}

func TestUpload_RefreshFailureStillShowsID(t *testing.T) {
	out := capturePrint(t)
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o600))

	fs := &fakeFS{uploadID: "abc123", uploadErr: errors.New("upload: refresh: boom")}
	require.Error(t, newTestApp(fs, "").Upload(context.Background(), path, ""))
	assert.Contains(t, joined(out), "Uploaded as abc123, but the list could not be refreshed.")
}

func TestDownload_UsesCachedNameAndDownloadDir(t *testing.T) {
	out := capturePrint(t)
	fs := &fakeFS{
		dlTicket:  models.DownloadTicket{FileID: "abc123", DownloadURL: "u"},
		cachedOut: services.Listing{Files: []models.FileRecord{{FileID: "abc123", FileName: "report.pdf"}}},
		savePath:  "/tmp/download/report.pdf",
		saveN:     2048,
	}

	require.NoError(t, newTestApp(fs, "").Download(context.Background(), "abc123", ""))
	assert.Equal(t, "abc123", fs.dlID)
	assert.Equal(t, "download", fs.saveDir)
	assert.Equal(t, "report.pdf", fs.saveName)
	assert.Contains(t, joined(out), "Saved /tmp/download/report.pdf (2.0 KiB)")

	require.NoError(t, newTestApp(fs, "").Download(context.Background(), "zzz", ""))
	assert.Equal(t, "zzz", fs.saveName, "unknown ids fall back to the id")

	require.NoError(t, newTestApp(fs, "").Download(context.Background(), "abc123", "copy.pdf"))
	assert.Equal(t, "copy.pdf", fs.saveName)
}

func TestDownload_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"too long", fmt.Errorf("download x: %w", services.ErrTakingTooLong), "Error: the file is taking too long to become ready, please try again later"},
		{"not found", &api.StatusError{Op: "get download URL", Code: 404}, "Error: file not found"},
		{"other", &api.StatusError{Op: "get download URL", Code: 500}, "Error: get download URL: API 500 Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := capturePrint(t)
			fs := &fakeFS{dlErr: tt.err}
			require.Error(t, newTestApp(fs, "").Download(context.Background(), "x", ""))
			assert.Contains(t, *out, tt.msg)
			assert.Empty(t, fs.saveDir, "nothing saved")
		})
	}
}

func TestDelete_ConfirmsOnTerminal(t *testing.T) {
	withTerminal(t, true)
	out := capturePrint(t)

	fs := &fakeFS{}
	require.NoError(t, newTestApp(fs, "n\n").Delete(context.Background(), "abc123"))
	assert.Empty(t, fs.deleted)
	assert.Contains(t, *out, "Cancelled.")

	require.NoError(t, newTestApp(fs, "y\n").Delete(context.Background(), "abc123"))
	assert.Equal(t, []string{"abc123"}, fs.deleted)
	assert.Contains(t, *out, "Deleted abc123")
}

func TestDelete_NoPromptWhenPiped(t *testing.T) {
	withTerminal(t, false)
	capturePrint(t)

	fs := &fakeFS{}
	require.NoError(t, newTestApp(fs, "").Delete(context.Background(), "abc123"))
	assert.Equal(t, []string{"abc123"}, fs.deleted)
}

func TestDelete_NotFound(t *testing.T) {
	withTerminal(t, false)
	out := capturePrint(t)

	fs := &fakeFS{delErr: &api.StatusError{Op: "delete file", Code: 404}}
	err := newTestApp(fs, "").Delete(context.Background(), "nope")
	require.ErrorIs(t, err, api.ErrNotFound)
	assert.Equal(t, []string{"Error: file not found"}, *out)
}

func TestShowStatus(t *testing.T) {
	out := capturePrint(t)
	fs := &fakeFS{cachedOut: services.Listing{SyncedAt: time.Now(), Files: make([]models.FileRecord, 3)}}

	require.NoError(t, newTestApp(fs, "").ShowStatus(context.Background()))

	text := joined(out)
	assert.Contains(t, text, "Status:   idle")
	assert.Contains(t, text, "API:      http://localhost:4000")
	assert.Contains(t, text, "(3 files)")
	assert.Contains(t, text, "User:     (not set)")
}
