// Package fakeapi is an in-process stand-in for the files API and its object
// store, used by tests. It reproduces the eventual consistency of the real
// backend: an uploaded file stays PENDING, and answers 425 to download
// requests, for a configurable number of polls.
package fakeapi

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// File is the server-side view of one stored object.
type File struct {
	ID          string
	Name        string
	UserID      string
	ContentType string
	Body        []byte
	CreatedAt   time.Time
	Stored      bool
	Polls       int
}

type fileJSON struct {
	FileID    string    `json:"fileId"`
	FileName  string    `json:"fileName"`
	CreatedAt time.Time `json:"createdAt"`
	Status    string    `json:"status"`
}

type Server struct {
	// ReadyAfter is how many download requests answer 425 before a stored
	// file becomes ready. Zero means ready at once, negative means never.
	ReadyAfter int
	// APIKey, when set, is required in the x-api-key header of API calls.
	APIKey string

	mu    sync.Mutex
	files map[string]*File
	calls map[string]int
	ids   func() string

	srv *httptest.Server
}

// New starts a server. Callers must Close it.
func New() *Server {
	s := &Server{
		files: map[string]*File{},
		calls: map[string]int{},
		ids:   uuid.NewString,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/files", s.handleList, s.requireKey)
	e.GET("/generate-upload-url", s.handleUploadURL, s.requireKey)
	e.GET("/files/:id", s.handleGet, s.requireKey)
	e.DELETE("/files/:id", s.handleDelete, s.requireKey)

	e.PUT("/objects/:id", s.handlePutObject)
	e.GET("/objects/:id", s.handleGetObject)

	s.srv = httptest.NewServer(e)
	return s
}

func (s *Server) URL() string { return s.srv.URL }

func (s *Server) Close() { s.srv.Close() }

// SetIDs replaces the file id generator.
func (s *Server) SetIDs(next func() string) {
	s.mu.Lock()
	s.ids = next
	s.mu.Unlock()
}

// Calls returns how many times the route "METHOD /path" was hit, e.g.
// "GET /files/abc123".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Get returns a copy of the stored file.
func (s *Server) Get(id string) (File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return File{}, false
	}
	return *f, true
}

// Put seeds a stored file, bypassing the upload flow.
func (s *Server) Put(f File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.Stored = true
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	s.files[f.ID] = &f
}

func (s *Server) requireKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.calls[c.Request().Method+" "+c.Request().URL.Path]++
		key := s.APIKey
		s.mu.Unlock()

		if key != "" && c.Request().Header.Get("x-api-key") != key {
			return echo.NewHTTPError(http.StatusForbidden, "invalid api key")
		}
		return next(c)
	}
}

func (s *Server) ready(f *File) bool {
	return s.ReadyAfter >= 0 && f.Polls >= s.ReadyAfter
}

func (s *Server) handleList(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]fileJSON, 0, len(s.files))
	for _, f := range s.files {
		if !f.Stored {
			continue
		}
		status := "PENDING"
		if s.ready(f) {
			status = "UPLOADED"
		}
		out = append(out, fileJSON{FileID: f.ID, FileName: f.Name, CreatedAt: f.CreatedAt, Status: status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return c.JSON(http.StatusOK, map[string]any{"files": out})
}

func (s *Server) handleUploadURL(c echo.Context) error {
	name := c.QueryParam("filename")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "filename is required")
	}

	s.mu.Lock()
	id := s.ids()
	s.files[id] = &File{
		ID:        id,
		Name:      name,
		UserID:    c.QueryParam("userId"),
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]string{
		"uploadUrl": fmt.Sprintf("%s/objects/%s?sig=put", s.srv.URL, id),
		"fileId":    id,
	})
}

func (s *Server) handleGet(c echo.Context) error {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok || !f.Stored {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}
	if !s.ready(f) {
		f.Polls++
		return c.JSON(http.StatusTooEarly, map[string]string{"message": "file is still processing"})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"downloadUrl": fmt.Sprintf("%s/objects/%s?sig=get", s.srv.URL, id),
	})
}

func (s *Server) handleDelete(c echo.Context) error {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}
	delete(s.files, id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handlePutObject(c echo.Context) error {
	if c.QueryParam("sig") != "put" {
		return echo.NewHTTPError(http.StatusForbidden, "bad signature")
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "no such upload")
	}
	f.Body = body
	f.ContentType = c.Request().Header.Get("Content-Type")
	f.Stored = true
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleGetObject(c echo.Context) error {
	if c.QueryParam("sig") != "get" {
		return echo.NewHTTPError(http.StatusForbidden, "bad signature")
	}

	s.mu.Lock()
	f, ok := s.files[c.Param("id")]
	var body []byte
	var ct string
	if ok {
		body, ct = f.Body, f.ContentType
	}
	s.mu.Unlock()

	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no such object")
	}
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	return c.Blob(http.StatusOK, ct, body)
}
