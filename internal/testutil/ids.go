package testutil

import "fmt"

// FixedIDGenerator hands out predictable session IDs.
//
// With a non-empty prefix it returns prefix-1, prefix-2, ... so several
// sessions in one test stay distinguishable. Implements session.IDGenerator.
type FixedIDGenerator struct {
	prefix string
	n      int
}

// NewFixedIDGenerator creates a generator. An empty prefix yields
// "test-session".
func NewFixedIDGenerator(prefix string) *FixedIDGenerator {
	if prefix == "" {
		prefix = "test-session"
	}
	return &FixedIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *FixedIDGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
