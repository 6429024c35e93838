package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NewWork carries the fields for an initial work insert. Exactly one of
// ImageURL or ImageURLs must be set; ImageURLs marks the work as an album.
type NewWork struct {
	Title     string
	Series    *string
	ArtistID  int64
	SourceURL string
	NSFW      bool
	ImageURL  string
	ImageURLs []string
}

const workColumns = `
	w.id, w.title, w.series, w.artist_id, a.name, w.source_url,
	w.source_image_url, w.nsfw, w.album, w.hosted_id, w.hosted_url, w.created_at
`

// CreateWork inserts a work, deduplicating on source image URL across both
// standalone works and album pages. A duplicate insert fails with
// KindAlreadyExists carrying the existing work's id - it never creates a
// second row and never overwrites the first.
func (s *Store) CreateWork(ctx context.Context, nw NewWork) (Work, error) {
	urls := nw.ImageURLs
	album := len(urls) > 0
	if !album {
		urls = []string{nw.ImageURL}
	}

	var w Work
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		// Constraint rejection is the backstop; this pre-check exists so the
		// error can name the conflicting work even when the duplicate URL is
		// an album page.
		if existing, ok, err := findWorkByImageURL(ctx, tx, urls); err != nil {
			return err
		} else if ok {
			return &DomainError{
				Kind:       KindAlreadyExists,
				Message:    fmt.Sprintf("image already saved as work %d", existing),
				ExistingID: existing,
			}
		}

		var sourceImage *string
		if !album {
			sourceImage = &nw.ImageURL
		}

		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO works
			(title, series, artist_id, source_url, source_image_url, nsfw, album, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, nw.Title, nw.Series, nw.ArtistID, nw.SourceURL, sourceImage, nw.NSFW, album, now.Unix())
		if err != nil {
			return classify(err, "insert work")
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert work: last insert id: %w", err)
		}

		if album {
			for i, u := range nw.ImageURLs {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO work_images (work_id, position, source_image_url)
					VALUES (?, ?, ?)
				`, id, i+1, u)
				if err != nil {
					return classify(err, fmt.Sprintf("insert album page %d", i+1))
				}
			}
		}

		w = Work{
			ID:             id,
			Title:          nw.Title,
			Series:         nw.Series,
			ArtistID:       nw.ArtistID,
			SourceURL:      nw.SourceURL,
			SourceImageURL: sourceImage,
			NSFW:           nw.NSFW,
			Album:          album,
			CreatedAt:      now,
		}
		return nil
	})
	if err != nil {
		return Work{}, err
	}

	// Artist name is denormalized onto the returned struct for reporting.
	a, err := s.artistByID(ctx, w.ArtistID)
	if err != nil {
		return Work{}, err
	}
	w.Artist = a.Name

	return w, nil
}

// findWorkByImageURL looks for any work already holding one of the given
// source image URLs, either directly or as an album page.
func findWorkByImageURL(ctx context.Context, tx *sql.Tx, urls []string) (int64, bool, error) {
	marks := placeholders(len(urls))
	args := make([]any, 0, len(urls)*2)
	for _, u := range urls {
		args = append(args, u)
	}
	for _, u := range urls {
		args = append(args, u)
	}

	var id int64
	err := tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id FROM works WHERE source_image_url IN (%s)
		UNION
		SELECT work_id FROM work_images WHERE source_image_url IN (%s)
		LIMIT 1
	`, marks, marks), args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("check duplicate image url: %w", err)
	}
	return id, true, nil
}

// WorkByID fetches a work with its artist name.
func (s *Store) WorkByID(ctx context.Context, id int64) (Work, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM works w JOIN artists a ON a.id = w.artist_id
		WHERE w.id = ?
	`, workColumns), id)

	w, err := scanWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Work{}, &DomainError{Kind: KindNotFound, Message: fmt.Sprintf("work %d", id), Err: err}
	}
	return w, err
}

// LastWorkID returns the id of the most recently created work.
// Reports KindNotFound when no works exist.
func (s *Store) LastWorkID(ctx context.Context) (int64, error) {
	// MAX(id) yields a NULL row, not ErrNoRows, when the table is empty.
	var id sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM works`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("last work id: %w", err)
	}
	if !id.Valid {
		return 0, &DomainError{Kind: KindNotFound, Message: "no works recorded"}
	}
	return id.Int64, nil
}

// ListWorks returns all works ordered by id.
func (s *Store) ListWorks(ctx context.Context) ([]Work, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM works w JOIN artists a ON a.id = w.artist_id
		ORDER BY w.id ASC
	`, workColumns))
	if err != nil {
		return nil, fmt.Errorf("list works: %w", err)
	}
	defer rows.Close()

	works := []Work{}
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate works: %w", err)
	}
	return works, nil
}

// WorksWithoutHosted returns works that still lack a hosted copy, restricted
// by the same selector semantics as the pending-submission scan.
func (s *Store) WorksWithoutHosted(ctx context.Context, f PendingFilter) ([]Work, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM works w JOIN artists a ON a.id = w.artist_id
		WHERE w.hosted_id IS NULL
	`, workColumns)
	args := []any{}

	if !f.All && len(f.WorkIDs) > 0 {
		query += ` AND w.id IN (` + placeholders(len(f.WorkIDs)) + `)`
		for _, id := range f.WorkIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY w.id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("works without hosted copy: %w", err)
	}
	defer rows.Close()

	works := []Work{}
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate works: %w", err)
	}
	return works, nil
}

// SetHostedImage records the hosted copy for a work, exactly once.
// A work that already carries a hosted image fails with KindAlreadyUploaded
// rather than silently re-uploading over the first copy.
func (s *Store) SetHostedImage(ctx context.Context, workID int64, hostedID, hostedURL string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE works SET hosted_id = ?, hosted_url = ?
		WHERE id = ? AND hosted_id IS NULL
	`, hostedID, hostedURL, workID)
	if err != nil {
		return fmt.Errorf("set hosted image for work %d: %w", workID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set hosted image for work %d: rows affected: %w", workID, err)
	}
	if n > 0 {
		return nil
	}

	w, err := s.WorkByID(ctx, workID)
	if err != nil {
		return err
	}
	if w.Uploaded() {
		return &DomainError{
			Kind:       KindAlreadyUploaded,
			Message:    fmt.Sprintf("work %d already hosted at %s", workID, *w.HostedURL),
			ExistingID: workID,
		}
	}
	return fmt.Errorf("set hosted image for work %d: no row updated", workID)
}

// AlbumImages returns the pages of an album work in position order.
func (s *Store) AlbumImages(ctx context.Context, workID int64) ([]WorkImage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, work_id, position, source_image_url, hosted_id, hosted_url
		FROM work_images WHERE work_id = ?
		ORDER BY position ASC
	`, workID)
	if err != nil {
		return nil, fmt.Errorf("album images for work %d: %w", workID, err)
	}
	defer rows.Close()

	images := []WorkImage{}
	for rows.Next() {
		var img WorkImage
		if err := rows.Scan(&img.ID, &img.WorkID, &img.Position, &img.SourceImageURL, &img.HostedID, &img.HostedURL); err != nil {
			return nil, fmt.Errorf("scan album image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate album images: %w", err)
	}
	return images, nil
}

// SetImageHosted records the hosted copy of a single album page.
// Committed per page: a failure partway through an album upload leaves the
// already-uploaded pages persisted.
func (s *Store) SetImageHosted(ctx context.Context, imageID int64, hostedID, hostedURL string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE work_images SET hosted_id = ?, hosted_url = ?
		WHERE id = ? AND hosted_id IS NULL
	`, hostedID, hostedURL, imageID)
	if err != nil {
		return fmt.Errorf("set hosted image for page %d: %w", imageID, err)
	}
	return nil
}

// scanWork reads a work row produced by workColumns.
func scanWork(row interface{ Scan(...any) error }) (Work, error) {
	var w Work
	var createdAt int64
	err := row.Scan(
		&w.ID, &w.Title, &w.Series, &w.ArtistID, &w.Artist, &w.SourceURL,
		&w.SourceImageURL, &w.NSFW, &w.Album, &w.HostedID, &w.HostedURL, &createdAt,
	)
	if err != nil {
		return Work{}, err
	}
	w.CreatedAt = time.Unix(createdAt, 0).UTC()
	return w, nil
}
