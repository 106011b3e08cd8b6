// Package identity supplies the user id attached to upload requests.
//
// There is no authentication yet; callers depend on Provider so a real
// identity source can replace Static without touching the workflows.
package identity

import (
	"context"
	"errors"
	"strings"
)

var ErrNoIdentity = errors.New("no user identity configured")

// Provider resolves the id of the user on whose behalf requests are made.
type Provider interface {
	UserID(ctx context.Context) (string, error)
}

// Static is a Provider that always returns the same configured id.
type Static string

// UserID returns the configured id, or ErrNoIdentity if it is blank.
func (s Static) UserID(ctx context.Context) (string, error) {
	id := strings.TrimSpace(string(s))
	if id == "" {
		return "", ErrNoIdentity
	}
	return id, nil
}
