package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/errant/internal/boards"
	"github.com/roach88/errant/internal/store"
)

// RegisterResult is the per-name outcome of a destination registration.
type RegisterResult struct {
	Name    string
	Status  boards.Status
	Created bool
	Written bool
}

// EditDestinations registers or edits a batch of destination policies.
//
// Each name is checked against the provider's live status endpoint first -
// the only place policy edits touch the network. A destination that is not
// OK is skipped with a warning unless force is set. The status itself is
// reported but never persisted.
//
// When overwrite is false an existing row is left untouched ("register but
// don't overwrite"); otherwise the specified fields replace the stored ones
// atomically.
func (e *Engine) EditDestinations(ctx context.Context, names []string, edit store.DestinationEdit, force, overwrite bool) ([]RegisterResult, error) {
	results := make([]RegisterResult, 0, len(names))

	for _, name := range names {
		status, err := e.boards.CheckStatus(ctx, name)
		if err != nil {
			return results, fmt.Errorf("check status of %q: %w", name, err)
		}

		result := RegisterResult{Name: name, Status: status}

		if status != boards.StatusOK && !force {
			slog.Warn("destination not writable, skipping",
				"destination", name,
				"status", status,
			)
			results = append(results, result)
			continue
		}

		created, err := e.store.EditDestination(ctx, name, edit, overwrite)
		if err != nil {
			return results, err
		}

		result.Created = created
		result.Written = created || overwrite
		slog.Info("destination saved",
			"destination", name,
			"status", status,
			"created", created,
		)
		results = append(results, result)
	}

	return results, nil
}
