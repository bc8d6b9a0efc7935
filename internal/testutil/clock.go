package testutil

import (
	"fmt"
	"sync"
	"time"
)

// StubClock is a drawer.Clock that only moves when told to.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewStubClock(start time.Time) *StubClock {
	return &StubClock{now: start}
}

// FixedClock starts at 2025-03-01 09:00 UTC. Tests that check last_modified
// call Advance between mutations.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// StubIDGenerator hands out "<prefix>-1", "<prefix>-2", ... so tests can
// predict the ids of the directories and files they create.
type StubIDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewStubIDGenerator uses the prefix "id". Directories and files share one
// sequence when given the same generator.
func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{prefix: "id"}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}
