package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/filedrop/internal/client/models"
	"github.com/dmitrijs2005/filedrop/internal/logging"
	"github.com/dmitrijs2005/filedrop/internal/netx"
	"github.com/google/uuid"
)

const (
	headerAPIKey    = "x-api-key"
	headerRequestID = "X-Request-Id"

	maxBody = 1 << 20
)

// HTTPClient talks to the files API over HTTP/JSON.
type HTTPClient struct {
	base   *url.URL
	apiKey string
	hc     *http.Client
	log    logging.Logger
	reqID  func() string
}

var _ Client = (*HTTPClient)(nil)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithAPIKey sends key in the x-api-key header of every API call.
func WithAPIKey(key string) Option {
	return func(c *HTTPClient) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying *http.Client. It is also used for
// the pre-signed object transfers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.log = l
		}
	}
}

// NewHTTPClient returns a client for the API rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	c := &HTTPClient{
		base:  u,
		hc:    &http.Client{},
		log:   logging.Discard(),
		reqID: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type listResponse struct {
	Files []models.FileRecord `json:"files"`
}

func (c *HTTPClient) ListFiles(ctx context.Context) ([]models.FileRecord, error) {
	var out listResponse
	if err := c.do(ctx, "list files", http.MethodGet, nil, &out, "files"); err != nil {
		return nil, err
	}
	if out.Files == nil {
		return []models.FileRecord{}, nil
	}
	return out.Files, nil
}

func (c *HTTPClient) RequestUpload(ctx context.Context, fileName, userID string) (models.UploadTicket, error) {
	const op = "request upload URL"

	q := url.Values{}
	q.Set("filename", fileName)
	q.Set("userId", userID)

	var t models.UploadTicket
	if err := c.do(ctx, op, http.MethodGet, q, &t, "generate-upload-url"); err != nil {
		return models.UploadTicket{}, err
	}
	if t.UploadURL == "" || t.FileID == "" {
		return models.UploadTicket{}, fmt.Errorf("%s: %w: missing uploadUrl or fileId", op, ErrMalformedResponse)
	}
	return t, nil
}

func (c *HTTPClient) PutObject(ctx context.Context, uploadURL string, u models.Upload) error {
	c.log.Debug(ctx, "put object", "name", u.Name, "bytes", u.Size, "content_type", u.ContentType)

	if err := netx.Put(ctx, c.hc, uploadURL, u.Body, u.Size, u.ContentType); err != nil {
		return transportErr("upload bytes", err)
	}
	return nil
}

func (c *HTTPClient) GetDownloadURL(ctx context.Context, fileID string) (models.DownloadTicket, error) {
	const op = "get download URL"
	if fileID == "" {
		return models.DownloadTicket{}, fmt.Errorf("%s: empty file id", op)
	}

	var t models.DownloadTicket
	if err := c.do(ctx, op, http.MethodGet, nil, &t, "files", fileID); err != nil {
		return models.DownloadTicket{}, err
	}
	if t.DownloadURL == "" {
		return models.DownloadTicket{}, fmt.Errorf("%s: %w: missing downloadUrl", op, ErrMalformedResponse)
	}
	t.FileID = fileID
	return t, nil
}

func (c *HTTPClient) FetchObject(ctx context.Context, downloadURL string, w io.Writer) (int64, error) {
	n, err := netx.Get(ctx, c.hc, downloadURL, w)
	if err != nil {
		return n, transportErr("fetch object", err)
	}
	return n, nil
}

func (c *HTTPClient) DeleteFile(ctx context.Context, fileID string) error {
	const op = "delete file"
	if fileID == "" {
		return fmt.Errorf("%s: empty file id", op)
	}
	return c.do(ctx, op, http.MethodDelete, nil, nil, "files", fileID)
}

// do sends one API call and decodes a JSON body into out when out is not nil.
// elem are unescaped path segments appended to the base URL.
func (c *HTTPClient) do(ctx context.Context, op, method string, q url.Values, out any, elem ...string) error {
	u := c.base.JoinPath(elem...)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, c.reqID())
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}

	c.log.Debug(ctx, "api call", "op", op, "method", method, "url", u.Redacted())

	resp, err := c.hc.Do(req)
	if err != nil {
		return transportErr(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return transportErr(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Code: resp.StatusCode, Body: errorText(body)}
	}
	if out == nil {
		return nil
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("%s: %w: empty body", op, ErrMalformedResponse)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}
	return nil
}

// transportErr marks err as ErrUnavailable unless the caller gave up.
func transportErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// errorText pulls a message out of an error body. JSON bodies of the form
// {"error": "..."} or {"message": "..."} yield just the message.
func errorText(body []byte) string {
	var m struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &m) == nil {
		if m.Error != "" {
			return m.Error
		}
		if m.Message != "" {
			return m.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
