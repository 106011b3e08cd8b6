package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable       = errors.New("files API unavailable")
	ErrNotFound          = errors.New("file not found")
	ErrNotReady          = errors.New("file not ready yet")
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError is a non-success HTTP answer from the API.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: API %d %s", e.Op, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += " - " + e.Body
	}
	return msg
}

// Is lets a 404 StatusError match ErrNotFound and a 425 match ErrNotReady.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrNotReady:
		return e.Code == http.StatusTooEarly
	}
	return false
}
