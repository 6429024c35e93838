package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalizeName puts an artist name into the canonical stored form: NFC
// normalized with surrounding whitespace trimmed. Lookups and inserts both
// go through this so the same artist typed with different Unicode encodings
// resolves to one row.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// sameName compares two artist names case-insensitively after normalization.
func sameName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(normalizeName(a)) == fold.String(normalizeName(b))
}

// ResolveArtist resolves a name to its canonical artist record.
//
// A known canonical name resolves to itself; a known alias resolves to its
// target (depth 1 by invariant); an unknown name is inserted as a new
// canonical artist and returned unchanged.
func (s *Store) ResolveArtist(ctx context.Context, name string) (Artist, error) {
	name = normalizeName(name)
	if name == "" {
		return Artist{}, fmt.Errorf("resolve artist: empty name")
	}

	a, err := s.artistByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return s.insertArtist(ctx, name, nil)
	}
	if err != nil {
		return Artist{}, fmt.Errorf("resolve artist %q: %w", name, err)
	}

	if a.Canonical() {
		return a, nil
	}

	root, err := s.artistByID(ctx, *a.AliasOf)
	if err != nil {
		return Artist{}, fmt.Errorf("resolve artist %q: alias target %d: %w", name, *a.AliasOf, err)
	}
	return root, nil
}

// RecordAliases persists every name in names as an alias of the canonical
// artist. Names equal to the canonical name (case-insensitively) are
// skipped. An existing row is re-pointed at the canonical artist, never left
// pointing elsewhere, which is what keeps alias chains at depth 1.
func (s *Store) RecordAliases(ctx context.Context, canonical Artist, names []string) error {
	if !canonical.Canonical() {
		return fmt.Errorf("record aliases: artist %q (id %d) is itself an alias", canonical.Name, canonical.ID)
	}

	for _, name := range names {
		name = normalizeName(name)
		if name == "" || sameName(name, canonical.Name) {
			continue
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO artists (name, alias_of)
			VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET alias_of = excluded.alias_of
		`, name, canonical.ID)
		if err != nil {
			return fmt.Errorf("record alias %q -> %q: %w", name, canonical.Name, err)
		}
	}

	return nil
}

// artistByName fetches an artist row by exact (normalized) name.
// Returns sql.ErrNoRows when absent.
func (s *Store) artistByName(ctx context.Context, name string) (Artist, error) {
	var a Artist
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, alias_of FROM artists WHERE name = ?
	`, name).Scan(&a.ID, &a.Name, &a.AliasOf)
	return a, err
}

// artistByID fetches an artist row by id.
func (s *Store) artistByID(ctx context.Context, id int64) (Artist, error) {
	var a Artist
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, alias_of FROM artists WHERE id = ?
	`, id).Scan(&a.ID, &a.Name, &a.AliasOf)
	if errors.Is(err, sql.ErrNoRows) {
		return Artist{}, &DomainError{Kind: KindNotFound, Message: fmt.Sprintf("artist %d", id), Err: err}
	}
	return a, err
}

// insertArtist inserts a new artist row and returns it.
func (s *Store) insertArtist(ctx context.Context, name string, aliasOf *int64) (Artist, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO artists (name, alias_of) VALUES (?, ?)
	`, name, aliasOf)
	if err != nil {
		return Artist{}, fmt.Errorf("insert artist %q: %w", name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Artist{}, fmt.Errorf("insert artist %q: last insert id: %w", name, err)
	}

	return Artist{ID: id, Name: name, AliasOf: aliasOf}, nil
}
