package engine

import (
	"context"
	"fmt"

	"github.com/roach88/errant/internal/store"
)

// Selector names which works a retry command covers: an explicit id list,
// the most recently created work, or every pending submission system-wide.
// Destinations optionally narrows an explicit id list to a subset of
// destination names.
type Selector struct {
	WorkIDs      []int64
	Last         bool
	All          bool
	Destinations []string
}

// Validate rejects contradictory selector combinations before any store
// access happens.
func (sel Selector) Validate() error {
	modes := 0
	if len(sel.WorkIDs) > 0 {
		modes++
	}
	if sel.Last {
		modes++
	}
	if sel.All {
		modes++
	}
	if modes == 0 {
		return fmt.Errorf("select works by id, --last, or --all")
	}
	if modes > 1 {
		return fmt.Errorf("work ids, --last, and --all are mutually exclusive")
	}
	if len(sel.Destinations) > 0 && len(sel.WorkIDs) == 0 {
		return fmt.Errorf("--destinations requires explicit work ids")
	}
	return nil
}

// ResolveSelector turns a selector into a concrete pending filter.
// "Last" is resolved to a concrete work id before the pending set is
// queried, so the filter is stable for the whole batch.
func ResolveSelector(ctx context.Context, s *store.Store, sel Selector) (store.PendingFilter, error) {
	if err := sel.Validate(); err != nil {
		return store.PendingFilter{}, err
	}

	if sel.All {
		return store.PendingFilter{All: true}, nil
	}

	if sel.Last {
		id, err := s.LastWorkID(ctx)
		if err != nil {
			return store.PendingFilter{}, err
		}
		return store.PendingFilter{WorkIDs: []int64{id}}, nil
	}

	return store.PendingFilter{WorkIDs: sel.WorkIDs, Destinations: sel.Destinations}, nil
}
