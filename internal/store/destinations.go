package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const destinationColumns = `
	id, name, tag_series, require_flair, require_tag, sfw_only, disabled,
	space_posts, last_posted_at, flair_id, rehost
`

// EditDestination registers or edits a destination policy row.
//
// When the row is new, unspecified fields take their zero defaults (rehost
// defaults to true). When the row exists and overwrite is false, the edit is
// a no-op ("register but don't overwrite"). When overwrite is true, specified
// fields replace the stored values and unspecified fields keep them -
// upsert-merge semantics, applied atomically.
//
// Returns whether a new row was created.
func (s *Store) EditDestination(ctx context.Context, name string, edit DestinationEdit, overwrite bool) (bool, error) {
	created := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM destinations WHERE name = ?`, name).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err := tx.ExecContext(ctx, `
				INSERT INTO destinations
				(name, tag_series, require_flair, require_tag, sfw_only, disabled, space_posts, flair_id, rehost)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				name,
				orFalse(edit.TagSeries),
				orFalse(edit.RequireFlair),
				orFalse(edit.RequireTag),
				orFalse(edit.SFWOnly),
				orFalse(edit.Disabled),
				orFalse(edit.SpacePosts),
				edit.FlairID,
				orTrue(edit.Rehost),
			)
			if err != nil {
				return classify(err, fmt.Sprintf("register destination %q", name))
			}
			created = true
			return nil

		case err != nil:
			return fmt.Errorf("lookup destination %q: %w", name, err)
		}

		if !overwrite {
			return nil
		}

		// COALESCE keeps the stored value for every field the edit omits.
		_, err = tx.ExecContext(ctx, `
			UPDATE destinations SET
				tag_series    = COALESCE(?, tag_series),
				require_flair = COALESCE(?, require_flair),
				require_tag   = COALESCE(?, require_tag),
				sfw_only      = COALESCE(?, sfw_only),
				disabled      = COALESCE(?, disabled),
				space_posts   = COALESCE(?, space_posts),
				flair_id      = COALESCE(?, flair_id),
				rehost        = COALESCE(?, rehost)
			WHERE id = ?
		`,
			edit.TagSeries, edit.RequireFlair, edit.RequireTag, edit.SFWOnly,
			edit.Disabled, edit.SpacePosts, edit.FlairID, edit.Rehost, id,
		)
		if err != nil {
			return fmt.Errorf("edit destination %q: %w", name, err)
		}
		return nil
	})
	return created, err
}

// DestinationByName fetches a destination policy row. Names are
// case-insensitive. Reports KindUnknownDestination when absent.
func (s *Store) DestinationByName(ctx context.Context, name string) (Destination, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM destinations WHERE name = ?
	`, destinationColumns), name)

	d, err := scanDestination(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Destination{}, &DomainError{
			Kind:    KindUnknownDestination,
			Message: fmt.Sprintf("destination %q is not registered", name),
			Err:     err,
		}
	}
	if err != nil {
		return Destination{}, fmt.Errorf("destination %q: %w", name, err)
	}
	return d, nil
}

// ListDestinations returns all destinations ordered by name.
func (s *Store) ListDestinations(ctx context.Context) ([]Destination, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM destinations ORDER BY name COLLATE NOCASE ASC
	`, destinationColumns))
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	defer rows.Close()

	dests := []Destination{}
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, fmt.Errorf("scan destination: %w", err)
		}
		dests = append(dests, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate destinations: %w", err)
	}
	return dests, nil
}

// TouchLastPosted advances the destination's last-submission timestamp.
// Called after each successful post so the spacing gate sees it on the next
// row of the same batch.
func (s *Store) TouchLastPosted(ctx context.Context, destinationID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE destinations SET last_posted_at = ? WHERE id = ?
	`, at.Unix(), destinationID)
	if err != nil {
		return fmt.Errorf("touch destination %d: %w", destinationID, err)
	}
	return nil
}

// scanDestination reads a destination row produced by destinationColumns.
func scanDestination(row interface{ Scan(...any) error }) (Destination, error) {
	var d Destination
	var lastPosted *int64
	err := row.Scan(
		&d.ID, &d.Name, &d.TagSeries, &d.RequireFlair, &d.RequireTag,
		&d.SFWOnly, &d.Disabled, &d.SpacePosts, &lastPosted, &d.FlairID, &d.Rehost,
	)
	if err != nil {
		return Destination{}, err
	}
	if lastPosted != nil {
		t := time.Unix(*lastPosted, 0).UTC()
		d.LastPostedAt = &t
	}
	return d, nil
}

func orFalse(b *bool) bool {
	return b != nil && *b
}

func orTrue(b *bool) bool {
	return b == nil || *b
}
