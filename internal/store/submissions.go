package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SubmissionSpec names a destination for a work, with optional per-pairing
// overrides.
type SubmissionSpec struct {
	Destination string
	FlairID     *string
	Tag         *string
}

// AddResult is the per-destination outcome of attaching submissions to a
// work. Err carries a classified DomainError for policy and uniqueness
// failures; the batch as a whole does not fail for one bad destination.
type AddResult struct {
	Destination string
	Submission  Submission
	Err         error
}

// AddSubmission attaches a single (work, destination) pairing.
//
// The destination's policy preconditions and the pairing uniqueness are
// enforced by the schema; violations come back as classified domain errors
// (KindRequiresSeries, KindRequiresFlair, KindRequiresTag,
// KindAlreadyExists, KindUnknownDestination).
func (s *Store) AddSubmission(ctx context.Context, workID int64, spec SubmissionSpec) (Submission, error) {
	dest, err := s.DestinationByName(ctx, spec.Destination)
	if err != nil {
		return Submission{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (work_id, destination_id, flair_id, tag)
		VALUES (?, ?, ?, ?)
	`, workID, dest.ID, spec.FlairID, spec.Tag)
	if err != nil {
		err = classify(err, fmt.Sprintf("submission of work %d to %q", workID, dest.Name))
		var de *DomainError
		if errors.As(err, &de) && de.Kind == KindAlreadyExists {
			// Name the existing pairing so the caller can report a precise
			// "already exists" skip.
			var existing int64
			lookupErr := s.db.QueryRowContext(ctx, `
				SELECT id FROM submissions WHERE work_id = ? AND destination_id = ?
			`, workID, dest.ID).Scan(&existing)
			if lookupErr == nil {
				de.ExistingID = existing
			}
		}
		return Submission{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Submission{}, fmt.Errorf("add submission: last insert id: %w", err)
	}

	return Submission{
		ID:            id,
		WorkID:        workID,
		DestinationID: dest.ID,
		FlairID:       spec.FlairID,
		Tag:           spec.Tag,
	}, nil
}

// AddSubmissions attaches a batch of destinations to a work, continuing past
// per-destination failures. The returned results are in input order.
func (s *Store) AddSubmissions(ctx context.Context, workID int64, specs []SubmissionSpec) []AddResult {
	results := make([]AddResult, 0, len(specs))
	for _, spec := range specs {
		sub, err := s.AddSubmission(ctx, workID, spec)
		results = append(results, AddResult{Destination: spec.Destination, Submission: sub, Err: err})
	}
	return results
}

const pendingColumns = `
	s.id, s.work_id, s.destination_id, s.flair_id, s.tag,
	s.post_ref, s.permalink, s.posted_at, s.notes,
	w.id, w.title, w.series, w.artist_id, a.name, w.source_url,
	COALESCE(w.source_image_url,
		(SELECT wi.source_image_url FROM work_images wi
		 WHERE wi.work_id = w.id ORDER BY wi.position LIMIT 1)),
	w.nsfw, w.album, w.hosted_id, w.hosted_url, w.created_at,
	d.id, d.name, d.tag_series, d.require_flair, d.require_tag, d.sfw_only,
	d.disabled, d.space_posts, d.last_posted_at, d.flair_id, d.rehost
`

// PendingSubmissions returns every submission whose posted state is null,
// joined against its work and destination policy, restricted by the filter.
// For albums the work's source image URL resolves to the first page.
// Rows are ordered by submission id ascending - stable and deterministic
// across reruns of the same state.
func (s *Store) PendingSubmissions(ctx context.Context, f PendingFilter) ([]PendingSubmission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM submissions s
		JOIN works w ON w.id = s.work_id
		JOIN artists a ON a.id = w.artist_id
		JOIN destinations d ON d.id = s.destination_id
		WHERE s.post_ref IS NULL
	`, pendingColumns)
	args := []any{}

	if !f.All && len(f.WorkIDs) > 0 {
		query += ` AND s.work_id IN (` + placeholders(len(f.WorkIDs)) + `)`
		for _, id := range f.WorkIDs {
			args = append(args, id)
		}
	}
	if !f.All && len(f.Destinations) > 0 {
		query += ` AND d.name IN (` + placeholders(len(f.Destinations)) + `)`
		for _, name := range f.Destinations {
			args = append(args, name)
		}
	}
	query += ` ORDER BY s.id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending submissions: %w", err)
	}
	defer rows.Close()

	pending := []PendingSubmission{}
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending submissions: %w", err)
	}
	return pending, nil
}

// MarkPosted records the posted outcome for a submission, exactly once.
// Returns false without modifying anything when the submission was already
// posted - rerunning a batch never reposts a row.
func (s *Store) MarkPosted(ctx context.Context, submissionID int64, postRef, permalink string, at time.Time, notes *string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET post_ref = ?, permalink = ?, posted_at = ?, notes = ?
		WHERE id = ? AND post_ref IS NULL
	`, postRef, permalink, at.Unix(), notes, submissionID)
	if err != nil {
		return false, fmt.Errorf("mark submission %d posted: %w", submissionID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark submission %d posted: rows affected: %w", submissionID, err)
	}
	return n > 0, nil
}

// ClearPosted returns a submission to pending by clearing its posted state.
// Clearing an already-pending submission is a no-op, not an error.
func (s *Store) ClearPosted(ctx context.Context, submissionID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET post_ref = NULL, permalink = NULL, posted_at = NULL, notes = NULL
		WHERE id = ?
	`, submissionID)
	if err != nil {
		return fmt.Errorf("clear submission %d: %w", submissionID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("clear submission %d: rows affected: %w", submissionID, err)
	}
	if n == 0 {
		return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf("submission %d", submissionID)}
	}
	return nil
}

// SubmissionByID fetches a submission row by id.
func (s *Store) SubmissionByID(ctx context.Context, id int64) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, work_id, destination_id, flair_id, tag, post_ref, permalink, posted_at, notes
		FROM submissions WHERE id = ?
	`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, &DomainError{Kind: KindNotFound, Message: fmt.Sprintf("submission %d", id), Err: err}
	}
	return sub, err
}

// SubmissionByPostRef fetches a submission by its provider post reference.
func (s *Store) SubmissionByPostRef(ctx context.Context, postRef string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, work_id, destination_id, flair_id, tag, post_ref, permalink, posted_at, notes
		FROM submissions WHERE post_ref = ?
	`, postRef)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, &DomainError{Kind: KindNotFound, Message: fmt.Sprintf("submission with post ref %q", postRef), Err: err}
	}
	return sub, err
}

func scanSubmission(row interface{ Scan(...any) error }) (Submission, error) {
	var sub Submission
	var postedAt *int64
	err := row.Scan(
		&sub.ID, &sub.WorkID, &sub.DestinationID, &sub.FlairID, &sub.Tag,
		&sub.PostRef, &sub.Permalink, &postedAt, &sub.Notes,
	)
	if err != nil {
		return Submission{}, err
	}
	if postedAt != nil {
		t := time.Unix(*postedAt, 0).UTC()
		sub.PostedAt = &t
	}
	return sub, nil
}

func scanPending(rows *sql.Rows) (PendingSubmission, error) {
	var p PendingSubmission
	var postedAt, lastPosted *int64
	var createdAt int64

	err := rows.Scan(
		&p.ID, &p.Submission.WorkID, &p.Submission.DestinationID, &p.Submission.FlairID, &p.Tag,
		&p.PostRef, &p.Permalink, &postedAt, &p.Notes,
		&p.Work.ID, &p.Work.Title, &p.Work.Series, &p.Work.ArtistID, &p.Work.Artist, &p.Work.SourceURL,
		&p.Work.SourceImageURL, &p.Work.NSFW, &p.Work.Album, &p.Work.HostedID, &p.Work.HostedURL, &createdAt,
		&p.Destination.ID, &p.Destination.Name, &p.Destination.TagSeries, &p.Destination.RequireFlair,
		&p.Destination.RequireTag, &p.Destination.SFWOnly, &p.Destination.Disabled, &p.Destination.SpacePosts,
		&lastPosted, &p.Destination.FlairID, &p.Destination.Rehost,
	)
	if err != nil {
		return PendingSubmission{}, fmt.Errorf("scan pending submission: %w", err)
	}

	p.Work.CreatedAt = time.Unix(createdAt, 0).UTC()
	if postedAt != nil {
		t := time.Unix(*postedAt, 0).UTC()
		p.PostedAt = &t
	}
	if lastPosted != nil {
		t := time.Unix(*lastPosted, 0).UTC()
		p.Destination.LastPostedAt = &t
	}
	return p, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
