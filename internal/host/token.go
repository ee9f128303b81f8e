package host

import "github.com/google/uuid"

// TokenGenerator produces correlation tokens for submitted commands.
// Tokens exist for host-side tracing only; they are stored next to the
// log entry but never hashed into command identity or state, so replicas
// with different tokens still agree on everything that matters.
//
// Implemented by UUIDv7Generator (production) and the fixed generator in
// testutil (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDs for request correlation.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
