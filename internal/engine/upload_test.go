package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/errant/internal/store"
)

func TestUploadIfNeeded_SingleImage(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	host := &fakeHost{}

	work := f.work("Dawn", nil, false)
	eng := New(s, host, newFakeProvider())

	work, err := eng.UploadIfNeeded(context.Background(), work)
	require.NoError(t, err)
	require.NotNil(t, work.HostedID)
	assert.Equal(t, 1, host.uploads)

	// A second call sees the hosted copy and uploads nothing.
	work, err = eng.UploadIfNeeded(context.Background(), work)
	require.NoError(t, err)
	assert.Equal(t, 1, host.uploads)

	got, err := s.WorkByID(context.Background(), work.ID)
	require.NoError(t, err)
	assert.True(t, got.Uploaded())
}

func TestUploadIfNeeded_AlbumResumesAfterFailure(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	ctx := context.Background()

	album := f.album("Sketchbook", 3)

	// First run dies on page 3.
	failing := &fakeHost{failAfter: 3}
	eng := New(s, failing, newFakeProvider())
	_, err := eng.UploadIfNeeded(ctx, album)
	require.Error(t, err)
	assert.Len(t, failing.pageUploads, 2)

	images, err := s.AlbumImages(ctx, album.ID)
	require.NoError(t, err)
	assert.NotNil(t, images[0].HostedID)
	assert.NotNil(t, images[1].HostedID)
	assert.Nil(t, images[2].HostedID)

	// The retry reuses the container and only uploads the missing page.
	resuming := &fakeHost{}
	eng = New(s, resuming, newFakeProvider())
	album, err = s.WorkByID(ctx, album.ID)
	require.NoError(t, err)
	_, err = eng.UploadIfNeeded(ctx, album)
	require.NoError(t, err)

	assert.Equal(t, 0, resuming.albums, "container must not be recreated")
	require.Len(t, resuming.pageUploads, 1)
	assert.Equal(t, "https://cdn.example/3.png", resuming.pageUploads[0])

	images, err = s.AlbumImages(ctx, album.ID)
	require.NoError(t, err)
	for _, img := range images {
		assert.NotNil(t, img.HostedID, "page %d", img.Position)
	}
}

func TestUploadPending(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	host := &fakeHost{}

	f.work("First", nil, false)
	f.work("Second", nil, false)

	eng := New(s, host, newFakeProvider())

	n, err := eng.UploadPending(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, host.uploads)

	// Everything hosted: nothing left to mirror.
	n, err = eng.UploadPending(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
