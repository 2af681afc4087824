package tester

import "github.com/google/uuid"

// UUIDv7Generator generates time-sortable UUIDv7 run ids, so ledger
// listings and ids sort the same way.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
