package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/errant/internal/boards"
	"github.com/roach88/errant/internal/hosting"
	"github.com/roach88/errant/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// fakeHost is a scriptable in-memory image host.
type fakeHost struct {
	uploads     int
	albums      int
	pageUploads []string // image URLs uploaded into albums, in order
	failAfter   int      // fail the nth page upload (1-based); 0 never fails
}

func (h *fakeHost) UploadImage(_ context.Context, imageURL, _, _ string) (hosting.Image, error) {
	h.uploads++
	return hosting.Image{
		ID:  fmt.Sprintf("img-%d", h.uploads),
		URL: "https://mirror.example/" + fmt.Sprintf("img-%d", h.uploads),
	}, nil
}

func (h *fakeHost) CreateAlbum(_ context.Context, _, _ string) (hosting.Image, error) {
	h.albums++
	return hosting.Image{
		ID:  fmt.Sprintf("album-%d", h.albums),
		URL: "https://mirror.example/a/" + fmt.Sprintf("album-%d", h.albums),
	}, nil
}

func (h *fakeHost) UploadToAlbum(_ context.Context, _, imageURL string) (hosting.Image, error) {
	if h.failAfter > 0 && len(h.pageUploads)+1 >= h.failAfter {
		return hosting.Image{}, fmt.Errorf("host unavailable")
	}
	h.pageUploads = append(h.pageUploads, imageURL)
	id := fmt.Sprintf("page-%d", len(h.pageUploads))
	return hosting.Image{ID: id, URL: "https://mirror.example/" + id}, nil
}

// fakeProvider is a scriptable in-memory board provider. Per-destination
// errors are injected through rejections and transportErr; everything else
// succeeds and is recorded.
type fakeProvider struct {
	statuses     map[string]boards.Status
	rejections   map[string]*boards.RejectionError
	transportErr map[string]error
	failNSFW     bool
	failReply    bool

	submits     []string // "destination|title|url|flair"
	nsfwMarks   []string
	replies     []string // "ref|body"
	deleted     []string
	delReplies  []string
	ownReplies  map[string][]string
	statusCalls []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		statuses:     map[string]boards.Status{},
		rejections:   map[string]*boards.RejectionError{},
		transportErr: map[string]error{},
		ownReplies:   map[string][]string{},
	}
}

func (p *fakeProvider) CheckStatus(_ context.Context, name string) (boards.Status, error) {
	p.statusCalls = append(p.statusCalls, name)
	if s, ok := p.statuses[name]; ok {
		return s, nil
	}
	return boards.StatusOK, nil
}

func (p *fakeProvider) Submit(_ context.Context, destination, title, linkURL, flairID string) (boards.Post, error) {
	if err, ok := p.transportErr[destination]; ok {
		return boards.Post{}, err
	}
	if rej, ok := p.rejections[destination]; ok {
		return boards.Post{}, rej
	}
	p.submits = append(p.submits, fmt.Sprintf("%s|%s|%s|%s", destination, title, linkURL, flairID))
	ref := fmt.Sprintf("post-%d", len(p.submits))
	return boards.Post{Ref: ref, Permalink: "https://boards.example/" + ref}, nil
}

func (p *fakeProvider) MarkNSFW(_ context.Context, ref string) error {
	if p.failNSFW {
		return fmt.Errorf("nsfw flag refused")
	}
	p.nsfwMarks = append(p.nsfwMarks, ref)
	return nil
}

func (p *fakeProvider) Reply(_ context.Context, ref, body string) error {
	if p.failReply {
		return fmt.Errorf("comment refused")
	}
	p.replies = append(p.replies, ref+"|"+body)
	return nil
}

func (p *fakeProvider) DeletePost(_ context.Context, ref string) error {
	p.deleted = append(p.deleted, ref)
	return nil
}

func (p *fakeProvider) OwnReplies(_ context.Context, ref string) ([]string, error) {
	return p.ownReplies[ref], nil
}

func (p *fakeProvider) DeleteReply(_ context.Context, ref string) error {
	p.delReplies = append(p.delReplies, ref)
	return nil
}

func (p *fakeProvider) LinkFlairs(_ context.Context, _ string) ([]boards.Flair, error) {
	return nil, nil
}

// fixture seeds a store with one artist and provides shorthand for works,
// destinations, and submissions.
type fixture struct {
	t      *testing.T
	s      *store.Store
	artist store.Artist
	images int
}

func newFixture(t *testing.T, s *store.Store) *fixture {
	t.Helper()
	artist, err := s.ResolveArtist(context.Background(), "ren")
	require.NoError(t, err)
	return &fixture{t: t, s: s, artist: artist}
}

func (f *fixture) work(title string, series *string, nsfw bool) store.Work {
	f.t.Helper()
	f.images++
	w, err := f.s.CreateWork(context.Background(), store.NewWork{
		Title:     title,
		Series:    series,
		ArtistID:  f.artist.ID,
		SourceURL: "https://art.example/" + title,
		NSFW:      nsfw,
		ImageURL:  fmt.Sprintf("https://cdn.example/%d.png", f.images),
	})
	require.NoError(f.t, err)
	return w
}

func (f *fixture) album(title string, pages int) store.Work {
	f.t.Helper()
	urls := make([]string, pages)
	for i := range urls {
		f.images++
		urls[i] = fmt.Sprintf("https://cdn.example/%d.png", f.images)
	}
	w, err := f.s.CreateWork(context.Background(), store.NewWork{
		Title:     title,
		ArtistID:  f.artist.ID,
		SourceURL: "https://art.example/" + title,
		ImageURLs: urls,
	})
	require.NoError(f.t, err)
	return w
}

func (f *fixture) destination(name string, edit store.DestinationEdit) store.Destination {
	f.t.Helper()
	_, err := f.s.EditDestination(context.Background(), name, edit, false)
	require.NoError(f.t, err)
	d, err := f.s.DestinationByName(context.Background(), name)
	require.NoError(f.t, err)
	return d
}

func (f *fixture) submit(workID int64, destination string) store.Submission {
	f.t.Helper()
	sub, err := f.s.AddSubmission(context.Background(), workID, store.SubmissionSpec{Destination: destination})
	require.NoError(f.t, err)
	return sub
}

func ptr[T any](v T) *T {
	return &v
}
