package services

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrBusy          = errors.New("another action is in progress")
	ErrTakingTooLong = errors.New("file is taking too long to become ready")
)

// Status names the single user action currently in flight.
type Status int

const (
	StatusIdle Status = iota
	StatusListing
	StatusUploading
	StatusDownloading
	StatusDeleting
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusListing:
		return "listing"
	case StatusUploading:
		return "uploading"
	case StatusDownloading:
		return "downloading"
	case StatusDeleting:
		return "deleting"
	default:
		return "unknown"
	}
}

// Tracker admits one action at a time. The zero value is idle and ready to use.
type Tracker struct {
	mu  sync.Mutex
	cur Status
}

// Begin moves the tracker to s. It fails with ErrBusy if another action is
// running. The returned func puts the tracker back to idle and is safe to
// call more than once.
func (t *Tracker) Begin(s Status) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur != StatusIdle {
		return nil, fmt.Errorf("%w: %s", ErrBusy, t.cur)
	}
	t.cur = s

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			t.cur = StatusIdle
			t.mu.Unlock()
		})
	}, nil
}

func (t *Tracker) Current() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cur
}
