package engine

import (
	"github.com/google/uuid"
)

// TokenGenerator generates unique batch tokens for log correlation.
// Every row processed by one PostSubmissions call is logged with the same
// token, so a batch can be reconstructed from interleaved logs.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 batch tokens.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
