package store

import (
	"context"
	"errors"
	"testing"
)

func testWork(artistID int64, title, imageURL string) NewWork {
	return NewWork{
		Title:     title,
		ArtistID:  artistID,
		SourceURL: "https://art.example/" + title,
		ImageURL:  imageURL,
	}
}

func TestCreateWork_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	artist := mustArtist(t, s, "ren")

	w := mustWork(t, s, NewWork{
		Title:     "Dawn",
		Series:    ptr("Skylines"),
		ArtistID:  artist.ID,
		SourceURL: "https://art.example/dawn",
		NSFW:      true,
		ImageURL:  "https://cdn.example/dawn.png",
	})

	got, err := s.WorkByID(context.Background(), w.ID)
	if err != nil {
		t.Fatalf("WorkByID() failed: %v", err)
	}
	if got.Title != "Dawn" || got.Artist != "ren" || !got.NSFW {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Series == nil || *got.Series != "Skylines" {
		t.Errorf("Series = %v, want Skylines", got.Series)
	}
	if got.Uploaded() {
		t.Error("new work should not be uploaded")
	}
}

func TestCreateWork_DuplicateImageURL(t *testing.T) {
	s := createTestStore(t)
	artist := mustArtist(t, s, "ren")

	first := mustWork(t, s, testWork(artist.ID, "Dawn", "https://cdn.example/dawn.png"))

	_, err := s.CreateWork(context.Background(), testWork(artist.ID, "Dawn again", "https://cdn.example/dawn.png"))
	if !IsKind(err, KindAlreadyExists) {
		t.Fatalf("duplicate insert: kind = %q, want %q (err: %v)", KindOf(err), KindAlreadyExists, err)
	}

	var de *DomainError
	errors.As(err, &de)
	if de.ExistingID != first.ID {
		t.Errorf("ExistingID = %d, want %d", de.ExistingID, first.ID)
	}
}

func TestCreateWork_DuplicateAlbumPage(t *testing.T) {
	s := createTestStore(t)
	artist := mustArtist(t, s, "ren")
	ctx := context.Background()

	album := mustWork(t, s, NewWork{
		Title:     "Sketchbook",
		ArtistID:  artist.ID,
		SourceURL: "https://art.example/sketchbook",
		ImageURLs: []string{
			"https://cdn.example/page1.png",
			"https://cdn.example/page2.png",
		},
	})

	// A page of an existing album cannot be re-added as a standalone work.
	_, err := s.CreateWork(ctx, testWork(artist.ID, "Page two", "https://cdn.example/page2.png"))
	if !IsKind(err, KindAlreadyExists) {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindAlreadyExists)
	}
	var de *DomainError
	errors.As(err, &de)
	if de.ExistingID != album.ID {
		t.Errorf("ExistingID = %d, want album %d", de.ExistingID, album.ID)
	}

	images, err := s.AlbumImages(ctx, album.ID)
	if err != nil {
		t.Fatalf("AlbumImages() failed: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("album pages = %d, want 2", len(images))
	}
	for i, img := range images {
		if img.Position != i+1 {
			t.Errorf("page %d has position %d", i, img.Position)
		}
	}
}

func TestSetHostedImage_ExactlyOnce(t *testing.T) {
	s := createTestStore(t)
	artist := mustArtist(t, s, "ren")
	ctx := context.Background()

	w := mustWork(t, s, testWork(artist.ID, "Dawn", "https://cdn.example/dawn.png"))

	if err := s.SetHostedImage(ctx, w.ID, "h1", "https://mirror.example/h1"); err != nil {
		t.Fatalf("first SetHostedImage() failed: %v", err)
	}

	err := s.SetHostedImage(ctx, w.ID, "h2", "https://mirror.example/h2")
	if !IsKind(err, KindAlreadyUploaded) {
		t.Fatalf("second upload: kind = %q, want %q", KindOf(err), KindAlreadyUploaded)
	}

	got, err := s.WorkByID(ctx, w.ID)
	if err != nil {
		t.Fatalf("WorkByID() failed: %v", err)
	}
	if got.HostedID == nil || *got.HostedID != "h1" {
		t.Errorf("hosted id = %v, want the first upload kept", got.HostedID)
	}
}

func TestLastWorkID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.LastWorkID(ctx); !IsKind(err, KindNotFound) {
		t.Errorf("empty store: kind = %q, want %q", KindOf(err), KindNotFound)
	}

	artist := mustArtist(t, s, "ren")
	mustWork(t, s, testWork(artist.ID, "First", "https://cdn.example/1.png"))
	second := mustWork(t, s, testWork(artist.ID, "Second", "https://cdn.example/2.png"))

	id, err := s.LastWorkID(ctx)
	if err != nil {
		t.Fatalf("LastWorkID() failed: %v", err)
	}
	if id != second.ID {
		t.Errorf("LastWorkID() = %d, want %d", id, second.ID)
	}
}

func TestWorksWithoutHosted(t *testing.T) {
	s := createTestStore(t)
	artist := mustArtist(t, s, "ren")
	ctx := context.Background()

	uploaded := mustWork(t, s, testWork(artist.ID, "Done", "https://cdn.example/done.png"))
	pending := mustWork(t, s, testWork(artist.ID, "Waiting", "https://cdn.example/waiting.png"))

	if err := s.SetHostedImage(ctx, uploaded.ID, "h1", "https://mirror.example/h1"); err != nil {
		t.Fatalf("SetHostedImage() failed: %v", err)
	}

	works, err := s.WorksWithoutHosted(ctx, PendingFilter{All: true})
	if err != nil {
		t.Fatalf("WorksWithoutHosted() failed: %v", err)
	}
	if len(works) != 1 || works[0].ID != pending.ID {
		t.Errorf("got %+v, want only work %d", works, pending.ID)
	}
}
