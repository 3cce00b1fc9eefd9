package api

import (
	"context"

	"github.com/salmonumbrella/bookmarks-cli/internal/toc"
)

// BookmarksAPI is the remote surface of a `bookmarks serve` instance.
// Commands depend on this interface so tests can swap in a fake.
type BookmarksAPI interface {
	// Health reports server liveness and the backends it can use.
	Health(ctx context.Context) (*Health, error)

	// Bookmarks uploads a PDF and returns the server's envelope. A failure
	// envelope is returned as a Result with OK false, not as an error.
	// An empty backend selects the server default.
	Bookmarks(ctx context.Context, pdf []byte, backend string) (*toc.Result, error)

	// Check uploads a PDF and returns the outline summary.
	Check(ctx context.Context, pdf []byte) (*toc.Summary, error)

	// BaseURL returns the server the client talks to.
	BaseURL() string
}

// Health is the body of GET /health.
type Health struct {
	Status   string   `json:"status" yaml:"status"`
	Backends []string `json:"backends" yaml:"backends"`
}
