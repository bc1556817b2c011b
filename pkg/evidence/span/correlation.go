package span

import (
	"sort"
	"sync"
)

// Correlations tracks the correlation contexts grouping sibling spans of a
// logical operation. Membership is a set: joining the same span twice is a
// no-op, and duplicate end notifications cannot corrupt the context.
//
// A context is reclaimed once every member span has reached a terminal
// state and been handed to the exporter; a context with members still OPEN
// is never reclaimed.
type Correlations struct {
	mu       sync.Mutex
	contexts map[string]*correlationContext
}

// correlationContext is one correlation key's member set.
// members maps span id → still-open flag.
type correlationContext struct {
	members map[string]bool
	open    int
}

// NewCorrelations creates an empty correlation tracker.
func NewCorrelations() *Correlations {
	return &Correlations{
		contexts: make(map[string]*correlationContext),
	}
}

// join registers spanID as a member of the context for key, creating the
// context lazily. Context creation and member registration happen under a
// single lock, so partial registration is impossible even under concurrent
// factory calls for the same key.
func (c *Correlations) join(key, spanID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, ok := c.contexts[key]
	if !ok {
		ctx = &correlationContext{members: make(map[string]bool)}
		c.contexts[key] = ctx
	}

	if _, exists := ctx.members[spanID]; exists {
		return
	}
	ctx.members[spanID] = true
	ctx.open++
}

// settle marks spanID's terminal transition. When the last open member
// settles, the context is reclaimed. Idempotent per span.
func (c *Correlations) settle(key, spanID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, ok := c.contexts[key]
	if !ok {
		return
	}

	stillOpen, exists := ctx.members[spanID]
	if !exists || !stillOpen {
		return
	}
	ctx.members[spanID] = false
	ctx.open--

	if ctx.open == 0 {
		delete(c.contexts, key)
	}
}

// Get returns the sorted member span ids of the context for key, or nil if
// the key is unknown (never created, or already reclaimed). Intended for
// introspection and tests.
func (c *Correlations) Get(key string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, ok := c.contexts[key]
	if !ok {
		return nil
	}

	members := make([]string, 0, len(ctx.members))
	for id := range ctx.members {
		members = append(members, id)
	}
	sort.Strings(members)
	return members
}

// OpenMembers returns the number of members of key's context that have not
// reached a terminal state. Returns 0 for unknown keys.
func (c *Correlations) OpenMembers(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, ok := c.contexts[key]
	if !ok {
		return 0
	}
	return ctx.open
}

// Size returns the number of live correlation contexts.
func (c *Correlations) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.contexts)
}
