package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/errant/internal/boards"
	"github.com/roach88/errant/internal/hosting"
	"github.com/roach88/errant/internal/store"
)

// Engine orchestrates upload-then-post-then-record for batches of eligible
// submissions.
//
// INVARIANTS:
//   - Rows are processed strictly sequentially, in store order.
//   - A row's posted state is committed before the next row is attempted.
//   - A rerun of the same batch never reposts an already-posted row.
type Engine struct {
	store  *store.Store
	host   hosting.Host
	boards boards.Provider
	clock  Clock
	tokens TokenGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock (tests pin "now" with this).
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithTokenGenerator overrides the batch token generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) { e.tokens = g }
}

// New creates an Engine over the given store and external collaborators.
func New(s *store.Store, host hosting.Host, provider boards.Provider, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		host:   host,
		boards: provider,
		clock:  SystemClock(),
		tokens: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RowStatus is the outcome category of one batch row.
type RowStatus string

const (
	// RowPosted: the primary post succeeded and the outcome is recorded.
	RowPosted RowStatus = "posted"

	// RowSkipped: the eligibility gate blocked the row; it stays pending.
	RowSkipped RowStatus = "skipped"

	// RowFailed: the provider rejected the post; the row stays pending.
	RowFailed RowStatus = "failed"
)

// PostResult is the per-row outcome of a batch.
type PostResult struct {
	SubmissionID int64
	WorkID       int64
	Destination  string
	Status       RowStatus
	Reason       string
	PostRef      string
	Permalink    string
	Notes        string
}

// BatchReport is the outcome of one PostSubmissions invocation.
type BatchReport struct {
	Batch   string
	Results []PostResult
}

// Empty reports whether the batch matched no pending rows ("nothing to do").
func (r BatchReport) Empty() bool {
	return len(r.Results) == 0
}

// Counts returns the number of posted, skipped, and failed rows.
func (r BatchReport) Counts() (posted, skipped, failed int) {
	for _, res := range r.Results {
		switch res.Status {
		case RowPosted:
			posted++
		case RowSkipped:
			skipped++
		case RowFailed:
			failed++
		}
	}
	return
}

// PostSubmissions fetches the pending submissions matched by the filter and
// attempts each in store order.
//
// Per-row recoverable conditions (gate blocks, provider rejections) are
// logged and reported; the row stays pending and the batch continues.
// Transport errors with no recognizable rejection code abort the batch -
// the remote outcome is unknown, so continuing could double-post.
func (e *Engine) PostSubmissions(ctx context.Context, filter store.PendingFilter) (BatchReport, error) {
	report := BatchReport{Batch: e.tokens.Generate()}

	pending, err := e.store.PendingSubmissions(ctx, filter)
	if err != nil {
		return report, err
	}

	if len(pending) == 0 {
		slog.Info("nothing to do", "batch", report.Batch)
		return report, nil
	}

	slog.Info("batch starting", "batch", report.Batch, "pending", len(pending))

	for _, row := range pending {
		result, err := e.attempt(ctx, report.Batch, row)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, result)
	}

	posted, skipped, failed := report.Counts()
	slog.Info("batch finished",
		"batch", report.Batch,
		"posted", posted,
		"skipped", skipped,
		"failed", failed,
	)
	return report, nil
}

// attempt processes a single pending row: gate, compose, submit, follow-ups,
// commit. Returns a non-nil error only for conditions that must abort the
// whole batch (store failure, unclassifiable transport failure).
func (e *Engine) attempt(ctx context.Context, batch string, row store.PendingSubmission) (PostResult, error) {
	result := PostResult{
		SubmissionID: row.ID,
		WorkID:       row.Work.ID,
		Destination:  row.Destination.Name,
	}

	// The pending rows were snapshotted at batch start; the destination is
	// re-read here so the gate sees the last-posted timestamp an earlier row
	// of this batch just advanced.
	dest, err := e.store.DestinationByName(ctx, row.Destination.Name)
	if err != nil {
		return result, err
	}
	row.Destination = dest

	now := e.clock.Now()
	verdict := Evaluate(row, now)
	if !verdict.Eligible {
		slog.Info("submission skipped",
			"batch", batch,
			"submission", row.ID,
			"destination", row.Destination.Name,
			"reason", verdict.String(),
		)
		result.Status = RowSkipped
		result.Reason = verdict.String()
		return result, nil
	}

	title := ComposeTitle(row)
	linkURL, err := resolveLinkURL(row)
	if err != nil {
		slog.Warn("submission skipped",
			"batch", batch,
			"submission", row.ID,
			"destination", row.Destination.Name,
			"reason", err.Error(),
		)
		result.Status = RowSkipped
		result.Reason = err.Error()
		return result, nil
	}
	flairID := resolveFlair(row)

	post, err := e.boards.Submit(ctx, row.Destination.Name, title, linkURL, flairID)
	if err != nil {
		if boards.IsRejection(err) {
			slog.Warn("post rejected",
				"batch", batch,
				"submission", row.ID,
				"destination", row.Destination.Name,
				"error", err,
			)
			result.Status = RowFailed
			result.Reason = err.Error()
			return result, nil
		}
		return result, fmt.Errorf("submit to %q: %w", row.Destination.Name, err)
	}

	// Follow-up failures never reverse the primary post; they are captured
	// as notes on the submission for operator visibility.
	var noteList []string
	if row.Work.NSFW {
		if err := e.boards.MarkNSFW(ctx, post.Ref); err != nil {
			slog.Warn("mark nsfw failed", "batch", batch, "submission", row.ID, "error", err)
			noteList = append(noteList, fmt.Sprintf("mark nsfw failed: %v", err))
		}
	}
	if err := e.boards.Reply(ctx, post.Ref, sourceReply(row.Work)); err != nil {
		slog.Warn("source reply failed", "batch", batch, "submission", row.ID, "error", err)
		noteList = append(noteList, fmt.Sprintf("source reply failed: %v", err))
	}

	var notes *string
	if len(noteList) > 0 {
		joined := strings.Join(noteList, "; ")
		notes = &joined
	}

	updated, err := e.store.MarkPosted(ctx, row.ID, post.Ref, post.Permalink, now, notes)
	if err != nil {
		return result, err
	}
	if !updated {
		// A concurrent invocation won the race; the unique pairing already
		// carries a posted state, so this attempt's record is dropped.
		slog.Warn("submission already recorded as posted",
			"batch", batch,
			"submission", row.ID,
			"destination", row.Destination.Name,
		)
	}

	if err := e.store.TouchLastPosted(ctx, row.Destination.ID, now); err != nil {
		return result, err
	}

	slog.Info("submission posted",
		"batch", batch,
		"submission", row.ID,
		"destination", row.Destination.Name,
		"post", post.Ref,
	)

	result.Status = RowPosted
	result.PostRef = post.Ref
	result.Permalink = post.Permalink
	if notes != nil {
		result.Notes = *notes
	}
	return result, nil
}

// resolveLinkURL chooses the URL the post links to: the hosted copy for
// rehosting destinations, the original source image otherwise (first page
// for albums). A rehosting destination with no hosted copy falls back to
// the source so a failed upload does not strand the submission.
func resolveLinkURL(row store.PendingSubmission) (string, error) {
	if row.Destination.Rehost && row.Work.HostedURL != nil {
		return *row.Work.HostedURL, nil
	}
	if row.Destination.Rehost {
		slog.Warn("rehost requested but work has no hosted copy, using source image",
			"work", row.Work.ID,
			"destination", row.Destination.Name,
		)
	}
	if row.Work.SourceImageURL == nil {
		return "", fmt.Errorf("work %d has no image to link", row.Work.ID)
	}
	return *row.Work.SourceImageURL, nil
}

// resolveFlair merges the submission override with the destination default.
// The override wins; both may be absent.
func resolveFlair(row store.PendingSubmission) string {
	if row.FlairID != nil {
		return *row.FlairID
	}
	if row.Destination.FlairID != nil {
		return *row.Destination.FlairID
	}
	return ""
}
