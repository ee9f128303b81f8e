package testutil

import (
	"fmt"
	"sync"
)

// FixedTokenGenerator returns the same correlation token every time.
//
// Correlation tokens never enter command identity or state, so fixing
// them makes logs byte-identical across runs, which is what golden
// snapshot comparison needs.
//
// Thread-safety: FixedTokenGenerator is stateless and safe for
// concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a generator that always returns token.
//
// If token is empty, Generate returns "test-token-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-token-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
//
// Implements host.TokenGenerator.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}

// SeqTokenGenerator returns numbered correlation tokens in order:
// "test-token-000001", "test-token-000002", and so on. Use it when a
// test needs to tell submissions apart in the stored log.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type SeqTokenGenerator struct {
	mu sync.Mutex
	n  int64
}

// NewSeqTokenGenerator creates a new sequential generator starting at 0.
//
// The first call to Generate returns "test-token-000001".
func NewSeqTokenGenerator() *SeqTokenGenerator {
	return &SeqTokenGenerator{}
}

// Generate returns the next numbered token.
func (g *SeqTokenGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("test-token-%06d", g.n)
}

// Reset restarts numbering. After Reset, the next call to Generate
// returns "test-token-000001" again.
func (g *SeqTokenGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
