package store

import "time"

// Artist is a canonical artist name, or an alias pointing at one.
// Alias chains are normalized to depth 1 at write time: AliasOf always
// references a canonical row (a row whose own AliasOf is nil).
type Artist struct {
	ID      int64
	Name    string
	AliasOf *int64
}

// Canonical reports whether the artist is a root record rather than an alias.
func (a Artist) Canonical() bool {
	return a.AliasOf == nil
}

// Work is a single published piece of content.
//
// SourceImageURL is nil for albums; album pages live in work_images.
// HostedID/HostedURL are nil until the upload step runs, and are written
// exactly once.
type Work struct {
	ID             int64
	Title          string
	Series         *string
	ArtistID       int64
	Artist         string
	SourceURL      string
	SourceImageURL *string
	NSFW           bool
	Album          bool
	HostedID       *string
	HostedURL      *string
	CreatedAt      time.Time
}

// Uploaded reports whether the work already carries a hosted copy.
func (w Work) Uploaded() bool {
	return w.HostedID != nil
}

// WorkImage is one page of an album work, ordered by Position (1-based).
type WorkImage struct {
	ID             int64
	WorkID         int64
	Position       int
	SourceImageURL string
	HostedID       *string
	HostedURL      *string
}

// Destination is a named target board and its posting policy.
type Destination struct {
	ID           int64
	Name         string
	TagSeries    bool
	RequireFlair bool
	RequireTag   bool
	SFWOnly      bool
	Disabled     bool
	SpacePosts   bool
	LastPostedAt *time.Time
	FlairID      *string
	Rehost       bool
}

// DestinationEdit carries the mutable policy fields of a destination.
// Nil fields are "not specified" and default to the existing row's values
// on edit, or to zero values on first registration.
type DestinationEdit struct {
	TagSeries    *bool
	RequireFlair *bool
	RequireTag   *bool
	SFWOnly      *bool
	Disabled     *bool
	SpacePosts   *bool
	FlairID      *string
	Rehost       *bool
}

// Submission pairs a work with a destination, with optional per-pairing
// overrides. PostRef/PostedAt are nil while the submission is pending.
type Submission struct {
	ID            int64
	WorkID        int64
	DestinationID int64
	FlairID       *string
	Tag           *string
	PostRef       *string
	Permalink     *string
	PostedAt      *time.Time
	Notes         *string
}

// Posted reports whether the submission has already been submitted.
func (s Submission) Posted() bool {
	return s.PostRef != nil
}

// PendingSubmission is a pending submissions row joined against its work,
// artist, and destination policy. This is the unit the engine operates on.
type PendingSubmission struct {
	Submission
	Work        Work
	Destination Destination
}

// PendingFilter restricts the pending-submission scan.
//
// All=true ignores WorkIDs entirely and scans the whole pending set.
// Destinations further restricts by destination name and is only meaningful
// together with an explicit WorkIDs list.
type PendingFilter struct {
	WorkIDs      []int64
	All          bool
	Destinations []string
}
