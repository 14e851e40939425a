package engine

import (
	"sync"

	"github.com/google/uuid"
)

// SessionGenerator mints the token stamped on every Result and log record
// between two Use calls.
type SessionGenerator interface {
	Generate() string
}

// UUIDv7Generator mints time-ordered UUIDv7 tokens, so sessions sort by the
// moment Use was called.
type UUIDv7Generator struct{}

// Generate implements SessionGenerator.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out a scripted list of tokens. It panics when asked
// for more than it was given.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	next   int
}

// NewFixedGenerator returns a generator yielding tokens in order.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate implements SessionGenerator.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.next >= len(g.tokens) {
		panic("engine: no session tokens left")
	}
	token := g.tokens[g.next]
	g.next++
	return token
}
