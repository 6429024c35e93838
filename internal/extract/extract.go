// Package extract pulls work metadata (title, artists, rating, image URLs)
// out of third-party content sites. Each supported site contributes one
// Extractor; the registry picks by URL.
package extract

import (
	"context"
	"fmt"
	"net/url"
)

// Metadata is the extracted description of a work. Exactly one of ImageURL
// or ImageURLs is populated; ImageURLs marks a multi-image album.
//
// Artists lists name candidates in preference order: the first is the
// primary name, the rest are co-credits recorded as aliases.
type Metadata struct {
	Title     string
	Artists   []string
	Series    *string
	NSFW      bool
	ImageURL  string
	ImageURLs []string
	SourceURL string
}

// Options tune extraction for sites that host multiple images per page.
type Options struct {
	// Index selects a single image by 1-based position. 0 means the first.
	Index int

	// Album extracts every image as an ordered album.
	Album bool

	// PreferUsername uses the artist's account handle over their display
	// name where the site distinguishes the two.
	PreferUsername bool
}

// Extractor handles one site.
type Extractor interface {
	// Matches reports whether this extractor handles the given page URL.
	Matches(u *url.URL) bool

	// Extract fetches and parses the page's work metadata.
	Extract(ctx context.Context, pageURL string, opts Options) (Metadata, error)
}

// UnsupportedSourceError reports a page URL no registered extractor handles.
type UnsupportedSourceError struct {
	URL string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("the page %q is not from a supported site", e.URL)
}

// Registry dispatches extraction to the first matching extractor.
type Registry struct {
	extractors []Extractor
}

// NewRegistry creates a registry over the given extractors, consulted in
// order.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// Extract parses the page URL and dispatches to the matching extractor.
// Fails with *UnsupportedSourceError when no extractor matches.
func (r *Registry) Extract(ctx context.Context, pageURL string, opts Options) (Metadata, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return Metadata{}, fmt.Errorf("invalid source URL %q", pageURL)
	}

	for _, ex := range r.extractors {
		if ex.Matches(u) {
			return ex.Extract(ctx, pageURL, opts)
		}
	}

	return Metadata{}, &UnsupportedSourceError{URL: pageURL}
}
