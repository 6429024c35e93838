package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/errant/internal/boards"
	"github.com/roach88/errant/internal/store"
	"github.com/roach88/errant/internal/testutil"
)

func TestPostSubmissions_HappyPath(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	provider := newFakeProvider()
	clock := testutil.NewFrozenClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	work := f.work("Dawn", nil, false)
	f.destination("painting", store.DestinationEdit{Rehost: ptr(false)})
	sub := f.submit(work.ID, "painting")

	eng := New(s, &fakeHost{}, provider,
		WithClock(clock),
		WithTokenGenerator(testutil.NewFixedGenerator("batch-1")),
	)

	report, err := eng.PostSubmissions(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err)

	assert.Equal(t, "batch-1", report.Batch)
	require.Len(t, report.Results, 1)
	assert.Equal(t, RowPosted, report.Results[0].Status)
	assert.Equal(t, "post-1", report.Results[0].PostRef)

	// The post linked the source image (no rehost) with the composed title.
	require.Len(t, provider.submits, 1)
	assert.Equal(t, "painting|Dawn (ren)|https://cdn.example/1.png|", provider.submits[0])

	// The source comment went up beneath the post.
	require.Len(t, provider.replies, 1)
	assert.Equal(t, "post-1|[Source](https://art.example/Dawn)", provider.replies[0])

	// SFW work: no NSFW flag call.
	assert.Empty(t, provider.nsfwMarks)

	// Posted state is committed.
	got, err := s.SubmissionByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.True(t, got.Posted())
	require.NotNil(t, got.PostedAt)
	assert.Equal(t, clock.Now().Unix(), got.PostedAt.Unix())
}

func TestPostSubmissions_SecondRunNothingToDo(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	provider := newFakeProvider()

	work := f.work("Dawn", nil, false)
	f.destination("painting", store.DestinationEdit{Rehost: ptr(false)})
	f.submit(work.ID, "painting")

	eng := New(s, &fakeHost{}, provider)

	first, err := eng.PostSubmissions(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err)
	require.Len(t, first.Results, 1)

	second, err := eng.PostSubmissions(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err)
	assert.True(t, second.Empty(), "rerun must find nothing to do")
	assert.Len(t, provider.submits, 1, "rerun must not repost")
}

func TestPostSubmissions_NSFWFlagged(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	provider := newFakeProvider()

	work := f.work("Dusk", nil, true)
	f.destination("painting", store.DestinationEdit{Rehost: ptr(false)})
	f.submit(work.ID, "painting")

	eng := New(s, &fakeHost{}, provider)

	report, err := eng.PostSubmissions(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, []string{"post-1"}, provider.nsfwMarks)
}

func TestPostSubmissions_FollowUpFailureRecordedAsNote(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	provider := newFakeProvider()
	provider.failReply = true

	work := f.work("Dawn", nil, false)
	f.destination("painting", store.DestinationEdit{Rehost: ptr(false)})
	sub := f.submit(work.ID, "painting")

	eng := New(s, &fakeHost{}, provider)

	report, err := eng.PostSubmissions(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err)

	// The primary post stands even though the comment failed.
	require.Len(t, report.Results, 1)
	assert.Equal(t, RowPosted, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Notes, "source reply failed")

	got, err := s.SubmissionByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.True(t, got.Posted())
	require.NotNil(t, got.Notes)
	assert.Contains(t, *got.Notes, "source reply failed")
}

func TestPostSubmissions_RejectionKeepsRowPending(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	provider := newFakeProvider()
	provider.rejections["limited"] = &boards.RejectionError{
		Destination: "limited", Code: "RATELIMIT", Message: "slow down",
	}

	work := f.work("Dawn", nil, false)
	f.destination("limited", store.DestinationEdit{Rehost: ptr(false)})
	f.destination("painting", store.DestinationEdit{Rehost: ptr(false)})
	rejected := f.submit(work.ID, "limited")
	f.submit(work.ID, "painting")

	eng := New(s, &fakeHost{}, provider)

	report, err := eng.PostSubmissions(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err, "a rejection must not abort the batch")

	require.Len(t, report.Results, 2)
	assert.Equal(t, RowFailed, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Reason, "RATELIMIT")
	assert.Equal(t, RowPosted, report.Results[1].Status)

	// The rejected row is still pending and picked up next run.
	got, err := s.SubmissionByID(context.Background(), rejected.ID)
	require.NoError(t, err)
	assert.False(t, got.Posted())
}

func TestPostSubmissions_TransportErrorAbortsBatch(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	provider := newFakeProvider()
	provider.transportErr["broken"] = fmt.Errorf("connection reset")

	w1 := f.work("First", nil, false)
	w2 := f.work("Second", nil, false)
	f.destination("painting", store.DestinationEdit{Rehost: ptr(false)})
	f.destination("broken", store.DestinationEdit{Rehost: ptr(false)})
	first := f.submit(w1.ID, "painting")
	f.submit(w1.ID, "broken")
	f.submit(w2.ID, "painting")

	eng := New(s, &fakeHost{}, provider)

	report, err := eng.PostSubmissions(context.Background(), store.PendingFilter{All: true})
	require.Error(t, err, "an unclassifiable failure must abort the batch")

	// The row committed before the failure stays committed.
	require.Len(t, report.Results, 1)
	got, err2 := s.SubmissionByID(context.Background(), first.ID)
	require.NoError(t, err2)
	assert.True(t, got.Posted())

	// The rest of the batch was never attempted.
	assert.Len(t, provider.submits, 1)
}

func TestPostSubmissions_GateSkips(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	provider := newFakeProvider()

	work := f.work("Dusk", nil, true)
	f.destination("family", store.DestinationEdit{SFWOnly: ptr(true), Rehost: ptr(false)})
	f.destination("closed", store.DestinationEdit{Disabled: ptr(true), Rehost: ptr(false)})
	f.submit(work.ID, "family")
	f.submit(work.ID, "closed")

	eng := New(s, &fakeHost{}, provider)

	report, err := eng.PostSubmissions(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, RowSkipped, report.Results[0].Status)
	assert.Equal(t, "sfw_only", report.Results[0].Reason)
	assert.Equal(t, RowSkipped, report.Results[1].Status)
	assert.Equal(t, "disabled", report.Results[1].Reason)
	assert.Empty(t, provider.submits)
}

func TestPostSubmissions_SpacingWithinBatch(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	provider := newFakeProvider()
	clock := testutil.NewFrozenClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	// Two works queued for the same spacing destination: the first posts,
	// the second is blocked by the cooldown the first just started.
	w1 := f.work("First", nil, false)
	w2 := f.work("Second", nil, false)
	f.destination("spaced", store.DestinationEdit{SpacePosts: ptr(true), Rehost: ptr(false)})
	f.submit(w1.ID, "spaced")
	second := f.submit(w2.ID, "spaced")

	eng := New(s, &fakeHost{}, provider, WithClock(clock))

	report, err := eng.PostSubmissions(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, RowPosted, report.Results[0].Status)
	assert.Equal(t, RowSkipped, report.Results[1].Status)
	assert.Contains(t, report.Results[1].Reason, "cooldown")
	assert.Contains(t, report.Results[1].Reason, "24h0m0s remaining")

	// A day later the held row goes through.
	clock.Advance(SpacingWindow)
	report, err = eng.PostSubmissions(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, second.ID, report.Results[0].SubmissionID)
	assert.Equal(t, RowPosted, report.Results[0].Status)
}

func TestPostSubmissions_RehostLinksHostedCopy(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	provider := newFakeProvider()
	host := &fakeHost{}

	work := f.work("Dawn", nil, false)
	f.destination("painting", store.DestinationEdit{}) // rehost defaults on
	f.submit(work.ID, "painting")

	eng := New(s, host, provider)

	work, err := eng.UploadIfNeeded(context.Background(), work)
	require.NoError(t, err)
	require.NotNil(t, work.HostedURL)

	report, err := eng.PostSubmissions(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	require.Len(t, provider.submits, 1)
	assert.Contains(t, provider.submits[0], *work.HostedURL)
}

func TestPostSubmissions_FlairPrecedence(t *testing.T) {
	s := setupTestStore(t)
	f := newFixture(t, s)
	provider := newFakeProvider()

	work := f.work("Dawn", nil, false)
	f.destination("defaulted", store.DestinationEdit{FlairID: ptr("dest-flair"), Rehost: ptr(false)})

	// Submission override wins over the destination default.
	_, err := s.AddSubmission(context.Background(), work.ID, store.SubmissionSpec{
		Destination: "defaulted",
		FlairID:     ptr("override-flair"),
	})
	require.NoError(t, err)

	eng := New(s, &fakeHost{}, provider)
	_, err = eng.PostSubmissions(context.Background(), store.PendingFilter{All: true})
	require.NoError(t, err)

	require.Len(t, provider.submits, 1)
	assert.Contains(t, provider.submits[0], "|override-flair")
}
