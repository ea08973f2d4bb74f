package platform

import (
	"context"

	"github.com/federicoviola/AppTwitter/internal/models"
)

// PostResult is what a platform returns for a successful publish
type PostResult struct {
	PostID      string
	RawResponse string
}

// Client publishes one post to an external platform. Implementations
// are thin REST wrappers; all queue bookkeeping stays with the caller.
type Client interface {
	Publish(ctx context.Context, post *models.PendingPost) (*PostResult, error)
	Available() bool
}

// Registry maps each platform to its configured client
type Registry map[models.Platform]Client

// For returns the client for a platform, or nil when none is configured
func (r Registry) For(p models.Platform) Client {
	return r[p]
}
