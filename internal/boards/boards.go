// Package boards defines the discussion-board provider contract the engine
// posts through, and the Reddit-backed implementation of it.
package boards

import (
	"context"
	"time"
)

// Status is a destination's live state as reported by the provider.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNonexistent Status = "nonexistent"
	StatusBanned      Status = "banned"
	StatusPrivate     Status = "private"
)

// Post is the provider's reference to a submitted link post.
type Post struct {
	Ref       string
	Permalink string
	CreatedAt time.Time
}

// Flair is a link flair template offered by a destination.
type Flair struct {
	ID      string
	Text    string
	ModOnly bool
}

// Provider is the board-side capability set the core consumes.
//
// Submit failures that the provider reports with a machine-readable code
// (rate limit, invalid flair, ...) come back as *RejectionError; transport
// errors with no recognizable rejection are returned as-is and abort the
// calling batch.
type Provider interface {
	// CheckStatus queries a destination's live state.
	CheckStatus(ctx context.Context, name string) (Status, error)

	// Submit creates a link post. flairID may be empty.
	Submit(ctx context.Context, destination, title, linkURL, flairID string) (Post, error)

	// MarkNSFW flags a post as adult content.
	MarkNSFW(ctx context.Context, ref string) error

	// Reply posts a comment beneath the given post.
	Reply(ctx context.Context, ref, body string) error

	// DeletePost removes a post made by the authenticated account.
	DeletePost(ctx context.Context, ref string) error

	// OwnReplies lists the authenticated account's direct replies under a post.
	OwnReplies(ctx context.Context, ref string) ([]string, error)

	// DeleteReply removes one of the account's own replies.
	DeleteReply(ctx context.Context, ref string) error

	// LinkFlairs lists the flair templates available on a destination.
	LinkFlairs(ctx context.Context, destination string) ([]Flair, error)
}
