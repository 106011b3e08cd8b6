// Package models defines the client-side view of files held by the API.
package models

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"
)

// FileStatus is the readiness state reported by the API. Only the API moves
// a file between states.
type FileStatus string

const (
	StatusPending  FileStatus = "PENDING"
	StatusUploaded FileStatus = "UPLOADED"
)

// Ready reports whether the file can be downloaded. Anything other than
// PENDING counts as ready, including an absent status.
func (s FileStatus) Ready() bool {
	return s != StatusPending
}

// Label is the short human form shown in listings.
func (s FileStatus) Label() string {
	if s.Ready() {
		return "ready"
	}
	return "processing"
}

// FileRecord is one uploaded object as reported by the API. The client's
// copy may be stale.
type FileRecord struct {
	FileID      string     `json:"fileId"`
	FileName    string     `json:"fileName"`
	CreatedAt   time.Time  `json:"createdAt"`
	Status      FileStatus `json:"status,omitempty"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
}

// UnmarshalJSON decodes a record, reading createdAt leniently: an unknown
// timestamp format yields the zero time instead of failing the record.
func (r *FileRecord) UnmarshalJSON(b []byte) error {
	type alias FileRecord
	aux := struct {
		*alias
		CreatedAt json.RawMessage `json:"createdAt"`
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.CreatedAt = ParseTimestamp(aux.CreatedAt)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// ParseTimestamp reads a raw JSON timestamp: an RFC 3339 or
// "2006-01-02 15:04:05" string, or a number of epoch milliseconds (a quoted
// number works too). Empty, null and unparseable values give the zero time.
func ParseTimestamp(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}
		}
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return time.Time{}
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// UploadTicket is the single-use write destination issued for a new file.
type UploadTicket struct {
	UploadURL string `json:"uploadUrl"`
	FileID    string `json:"fileId"`
}

// DownloadTicket carries a short-lived read destination for a ready file.
type DownloadTicket struct {
	FileID      string `json:"-"`
	DownloadURL string `json:"downloadUrl"`
}

// Upload describes the bytes to send and how to label them.
type Upload struct {
	Name        string
	ContentType string
	// Size is the exact byte count of Body.
	Size int64
	Body io.Reader
}
