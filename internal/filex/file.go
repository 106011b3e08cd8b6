// Package filex collects the small filesystem and file-naming helpers used by
// the client and the provisioner.
package filex

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultContentType is used when nothing better can be determined.
const DefaultContentType = "application/octet-stream"

var whitespace = regexp.MustCompile(`\s+`)

// EnsureDir creates dir (relative paths are resolved against the working
// directory) and returns its absolute path. It is a no-op if dir exists.
func EnsureDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SanitizeName turns a display name into the form sent to the API: runs of
// whitespace become a single underscore.
func SanitizeName(name string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(name), "_")
}

// SafeBase reduces name to a bare file name usable inside a download
// directory. It returns "" when nothing usable is left.
func SafeBase(name string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		return ""
	}
	return base
}

// FormatSize renders a byte count for display ("0 B", "1.5 KiB", "3.2 MiB").
// Zero and negative sizes render as "0 B".
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}

// ContentType picks the Content-Type for the file at path: the extension
// decides when it is known, otherwise the file's leading bytes are sniffed.
func ContentType(path string) (string, error) {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct, nil
	}

	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect content type of %s: %w", path, err)
	}
	if m == nil || m.String() == "" {
		return DefaultContentType, nil
	}
	return m.String(), nil
}
