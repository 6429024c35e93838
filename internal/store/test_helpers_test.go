package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a store backed by a temp-dir database.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustArtist resolves (and so creates) an artist by name.
func mustArtist(t *testing.T, s *Store, name string) Artist {
	t.Helper()
	a, err := s.ResolveArtist(context.Background(), name)
	if err != nil {
		t.Fatalf("ResolveArtist(%q) failed: %v", name, err)
	}
	return a
}

// mustWork creates a work, failing the test on error.
func mustWork(t *testing.T, s *Store, nw NewWork) Work {
	t.Helper()
	w, err := s.CreateWork(context.Background(), nw)
	if err != nil {
		t.Fatalf("CreateWork(%q) failed: %v", nw.Title, err)
	}
	return w
}

// mustDestination registers a destination, failing the test on error.
func mustDestination(t *testing.T, s *Store, name string, edit DestinationEdit) Destination {
	t.Helper()
	if _, err := s.EditDestination(context.Background(), name, edit, false); err != nil {
		t.Fatalf("EditDestination(%q) failed: %v", name, err)
	}
	d, err := s.DestinationByName(context.Background(), name)
	if err != nil {
		t.Fatalf("DestinationByName(%q) failed: %v", name, err)
	}
	return d
}

func ptr[T any](v T) *T {
	return &v
}
