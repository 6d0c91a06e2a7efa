package channels

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by Send when a composer has no destination.
var ErrNotConfigured = errors.New("composer not configured")

// Composer sends a message over one channel.
type Composer interface {
	// Name returns the composer identifier.
	Name() string

	// CanSend reports whether the composer can currently initiate a send.
	CanSend() bool

	// Send initiates delivery of body to handle. A nil error means the
	// send was accepted, not that it was delivered. Implementations must
	// be safe for concurrent use and fail fast.
	Send(ctx context.Context, handle, body string) error
}
