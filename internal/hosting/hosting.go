// Package hosting defines the mirror image-host contract the engine uploads
// through, and the Imgur-backed implementation of it.
package hosting

import "context"

// Image is the host's reference to an uploaded image.
type Image struct {
	ID  string
	URL string
}

// Host is the image-host capability set the core consumes.
type Host interface {
	// UploadImage mirrors a remote image by URL.
	UploadImage(ctx context.Context, imageURL, title, description string) (Image, error)

	// CreateAlbum creates an empty container for a multi-image work and
	// returns its id and public URL.
	CreateAlbum(ctx context.Context, title, description string) (Image, error)

	// UploadToAlbum mirrors a remote image into an existing album.
	UploadToAlbum(ctx context.Context, albumID, imageURL string) (Image, error)
}
