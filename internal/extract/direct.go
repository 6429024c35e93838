package extract

import (
	"context"
	"net/url"
	"path"
	"strings"
)

// imageExtensions are the file extensions DirectImage treats as images.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// DirectImage handles bare image URLs from any host. It cannot recover an
// artist or title beyond the filename, so the operator is expected to
// supply those explicitly.
type DirectImage struct{}

// NewDirectImage creates the direct-link extractor.
func NewDirectImage() *DirectImage {
	return &DirectImage{}
}

// Matches implements Extractor.
func (d *DirectImage) Matches(u *url.URL) bool {
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

// Extract implements Extractor. The title defaults to the filename with
// the extension stripped and separators spaced out.
func (d *DirectImage) Extract(_ context.Context, pageURL string, _ Options) (Metadata, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Metadata{}, err
	}

	base := path.Base(u.Path)
	title := strings.TrimSuffix(base, path.Ext(base))
	title = strings.NewReplacer("-", " ", "_", " ").Replace(title)

	return Metadata{
		Title:     strings.TrimSpace(title),
		ImageURL:  pageURL,
		SourceURL: pageURL,
	}, nil
}
