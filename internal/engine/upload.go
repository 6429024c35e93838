package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/errant/internal/store"
)

// UploadIfNeeded mirrors a work's image(s) to the host, skipping anything
// already uploaded.
//
// Single-image works are uploaded once; the store rejects a second hosted
// copy for the same work (KindAlreadyUploaded), so a race between two
// invocations cannot overwrite the first upload.
//
// Albums are uploaded page by page into one container created up front.
// Progress is committed per page: a failure partway leaves the container
// and the pages uploaded so far persisted, and a retry resumes with the
// first missing page. The operation is not transactional across the album.
func (e *Engine) UploadIfNeeded(ctx context.Context, w store.Work) (store.Work, error) {
	if w.Album {
		return e.uploadAlbum(ctx, w)
	}

	if w.Uploaded() {
		slog.Info("upload skipped, already hosted", "work", w.ID, "hosted", *w.HostedURL)
		return w, nil
	}

	if w.SourceImageURL == nil {
		return w, fmt.Errorf("work %d has no source image to upload", w.ID)
	}

	img, err := e.host.UploadImage(ctx, *w.SourceImageURL, uploadTitle(w), uploadDescription(w))
	if err != nil {
		return w, fmt.Errorf("upload work %d: %w", w.ID, err)
	}

	if err := e.store.SetHostedImage(ctx, w.ID, img.ID, img.URL); err != nil {
		return w, err
	}

	slog.Info("work uploaded", "work", w.ID, "hosted", img.URL)
	w.HostedID = &img.ID
	w.HostedURL = &img.URL
	return w, nil
}

// uploadAlbum creates the container if needed, then uploads missing pages
// in list order, tagging progress by 1-based index.
func (e *Engine) uploadAlbum(ctx context.Context, w store.Work) (store.Work, error) {
	if !w.Uploaded() {
		album, err := e.host.CreateAlbum(ctx, uploadTitle(w), uploadDescription(w))
		if err != nil {
			return w, fmt.Errorf("create album for work %d: %w", w.ID, err)
		}
		if err := e.store.SetHostedImage(ctx, w.ID, album.ID, album.URL); err != nil {
			return w, err
		}
		slog.Info("album created", "work", w.ID, "album", album.URL)
		w.HostedID = &album.ID
		w.HostedURL = &album.URL
	}

	images, err := e.store.AlbumImages(ctx, w.ID)
	if err != nil {
		return w, err
	}

	total := len(images)
	uploaded := 0
	for _, img := range images {
		if img.HostedID != nil {
			uploaded++
			continue
		}

		hosted, err := e.host.UploadToAlbum(ctx, *w.HostedID, img.SourceImageURL)
		if err != nil {
			return w, fmt.Errorf("upload page %d/%d of work %d: %w", img.Position, total, w.ID, err)
		}
		if err := e.store.SetImageHosted(ctx, img.ID, hosted.ID, hosted.URL); err != nil {
			return w, err
		}

		uploaded++
		slog.Info("album page uploaded", "work", w.ID, "page", img.Position, "of", total)
	}

	if uploaded == total {
		slog.Info("album complete", "work", w.ID, "pages", total)
	}
	return w, nil
}

// UploadPending mirrors every work matched by the filter that still lacks a
// hosted copy. Per-work failures abort the run; the per-page commits mean a
// retry resumes where it stopped.
func (e *Engine) UploadPending(ctx context.Context, filter store.PendingFilter) (int, error) {
	works, err := e.store.WorksWithoutHosted(ctx, filter)
	if err != nil {
		return 0, err
	}

	if len(works) == 0 {
		slog.Info("nothing to upload")
		return 0, nil
	}

	for i, w := range works {
		if _, err := e.UploadIfNeeded(ctx, w); err != nil {
			return i, err
		}
	}
	return len(works), nil
}
