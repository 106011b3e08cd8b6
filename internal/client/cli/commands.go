package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/filedrop/internal/client/api"
	"github.com/dmitrijs2005/filedrop/internal/client/models"
	"github.com/dmitrijs2005/filedrop/internal/client/services"
	"github.com/dmitrijs2005/filedrop/internal/filex"
	"github.com/dmitrijs2005/filedrop/internal/identity"
)

const timeLayout = "2006-01-02 15:04"

func (a *App) List(ctx context.Context) error {
	l, err := a.files.List(ctx)
	if err != nil {
		return a.fail(ctx, "list", err)
	}
	if l.Stale {
		printlnFn(fmt.Sprintf("API unreachable, showing cached list from %s", formatTime(l.SyncedAt)))
	}
	printlnFn(renderFiles(l.Files))
	return nil
}

func (a *App) Cached(ctx context.Context) error {
	l, err := a.files.Cached(ctx)
	if err != nil {
		return a.fail(ctx, "cached", err)
	}
	if l.SyncedAt.IsZero() {
		printlnFn("Nothing cached yet; run 'list' while online.")
		return nil
	}
	printlnFn(fmt.Sprintf("Cached list from %s", formatTime(l.SyncedAt)))
	printlnFn(renderFiles(l.Files))
	return nil
}

func (a *App) Upload(ctx context.Context, path, name string) error {
	if path == "" {
		if path = a.askPath(); path == "" {
			return nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return a.fail(ctx, "upload", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return a.fail(ctx, "upload", err)
	}
	if st.IsDir() {
		return a.fail(ctx, "upload", fmt.Errorf("%s is a directory", path))
	}

	if strings.TrimSpace(name) == "" {
		name = filepath.Base(path)
	}
	ct, err := filex.ContentType(path)
	if err != nil {
		a.log.Debug(ctx, "content type detection failed", "path", path, "error", err)
		ct = filex.DefaultContentType
	}

	printlnFn(fmt.Sprintf("Selected: %s (%s, %s)", name, filex.FormatSize(st.Size()), ct))

	id, err := a.files.Upload(ctx, models.Upload{Name: name, ContentType: ct, Size: st.Size(), Body: f})
	if err != nil {
		if id != "" {
			printlnFn(fmt.Sprintf("Uploaded as %s, but the list could not be refreshed.", id))
		}
		return a.fail(ctx, "upload", err)
	}

	printlnFn(fmt.Sprintf("Uploaded %s as %s", filex.SanitizeName(name), id))
	return nil
}

// askPath reads an upload path from the user. Piped input gets the usage line
// instead, so the next scripted command is not taken as a path.
func (a *App) askPath() string {
	if !isTerminal() {
		printlnFn("Usage: upload <path> [name]")
		return ""
	}
	line, err := GetSimpleText(a.in, "Path to the file to upload:", a.out)
	if err != nil || line == "" {
		printlnFn("Cancelled.")
		return ""
	}
	if args, err := splitArgs(line); err == nil && len(args) == 1 {
		return args[0]
	}
	return line
}

func (a *App) Download(ctx context.Context, id, name string) error {
	printlnFn(fmt.Sprintf("Waiting for %s to be ready...", id))

	t, err := a.files.Download(ctx, id)
	if err != nil {
		return a.fail(ctx, "download", err)
	}

	if strings.TrimSpace(name) == "" {
		name = a.cachedName(ctx, id)
	}

	path, n, err := a.files.Save(ctx, t, a.config.DownloadDir, name)
	if err != nil {
		return a.fail(ctx, "download", err)
	}

	printlnFn(fmt.Sprintf("Saved %s (%s)", path, filex.FormatSize(n)))
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	if isTerminal() {
		ok, err := Confirm(a.in, fmt.Sprintf("Delete %s?", id), a.out)
		if err != nil && !errors.Is(err, io.EOF) {
			return a.fail(ctx, "delete", err)
		}
		if !ok {
			printlnFn("Cancelled.")
			return nil
		}
	}

	if err := a.files.Delete(ctx, id); err != nil {
		return a.fail(ctx, "delete", err)
	}
	printlnFn(fmt.Sprintf("Deleted %s", id))
	return nil
}

func (a *App) ShowStatus(ctx context.Context) error {
	printlnFn(fmt.Sprintf("Status:   %s", a.files.Status()))
	printlnFn(fmt.Sprintf("API:      %s", a.config.APIBaseURL))
	user := a.config.UserID
	if strings.TrimSpace(user) == "" {
		user = "(not set)"
	}
	printlnFn(fmt.Sprintf("User:     %s", user))
	printlnFn(fmt.Sprintf("Saves to: %s", a.config.DownloadDir))

	if l, err := a.files.Cached(ctx); err == nil && !l.SyncedAt.IsZero() {
		printlnFn(fmt.Sprintf("Synced:   %s (%d files)", formatTime(l.SyncedAt), len(l.Files)))
	}
	return nil
}

// cachedName returns the display name of id from the cache, or id itself.
func (a *App) cachedName(ctx context.Context, id string) string {
	l, err := a.files.Cached(ctx)
	if err != nil {
		return id
	}
	for _, f := range l.Files {
		if f.FileID == id && f.FileName != "" {
			return f.FileName
		}
	}
	return id
}

// fail reports err to the user as a single line and returns it.
func (a *App) fail(ctx context.Context, op string, err error) error {
	a.log.Debug(ctx, "command failed", "command", op, "error", err)
	printlnFn("Error: " + userMessage(err))
	return err
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrTakingTooLong):
		return "the file is taking too long to become ready, please try again later"
	case errors.Is(err, services.ErrBusy):
		return "please wait, another action is still running"
	case errors.Is(err, api.ErrNotFound):
		return "file not found"
	case errors.Is(err, api.ErrUnavailable):
		return "cannot reach the files API"
	case errors.Is(err, identity.ErrNoIdentity):
		return "no user id configured (set user_id or -u)"
	default:
		return err.Error()
	}
}

func renderFiles(recs []models.FileRecord) string {
	if len(recs) == 0 {
		return "No files uploaded yet."
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUPLOADED\tSTATUS")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.FileID, r.FileName, formatTime(r.CreatedAt), r.Status.Label())
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}
