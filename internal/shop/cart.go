// internal/shop/cart.go
package shop

import (
	"context"
	"sync"

	"hicompanion/internal/logger"
)

// CartGateway is the slice of the API client the cart needs.
type CartGateway interface {
	Cart(ctx context.Context) (map[string]int, error)
	AddToCart(ctx context.Context, itemID string) (map[string]int, error)
	RemoveFromCart(ctx context.Context, itemID string) (map[string]int, error)
}

// Cart mirrors the server-authoritative cart mapping (item ID to count).
// The mirror is only ever a copy of the last applied server response. It is
// never advanced optimistically: stock and balance truth live server-side,
// so every mutation is a round trip and the returned mapping replaces local
// state wholesale.
//
// Responses are applied under a last-request-wins rule: a response is
// discarded if any newer cart request was initiated after it. One sequence
// covers the whole cart because every response carries the full mapping, so
// applying a superseded response for any item would publish an older cart
// than one already requested.
type Cart struct {
	gw CartGateway

	mu      sync.Mutex
	seq     uint64 // most recently initiated cart request
	items   map[string]int
	subs    map[int]func(map[string]int)
	nextSub int
}

func NewCart(gw CartGateway) *Cart {
	return &Cart{
		gw:    gw,
		items: map[string]int{},
		subs:  map[int]func(map[string]int){},
	}
}

// Load fetches the current server-side cart and replaces the mirror.
func (c *Cart) Load(ctx context.Context) (map[string]int, error) {
	seq := c.begin()
	items, err := c.gw.Cart(ctx)
	if err != nil {
		return nil, Classify(err)
	}
	return c.apply(seq, items), nil
}

// Add requests one more unit of itemID. On success the mirror is replaced
// with the server's mapping; on failure the mirror is untouched and a typed
// error returned.
func (c *Cart) Add(ctx context.Context, itemID string) (map[string]int, error) {
	seq := c.begin()
	items, err := c.gw.AddToCart(ctx, itemID)
	if err != nil {
		logger.LogWarn("Cart add %q failed: %v", itemID, err)
		return nil, Classify(err)
	}
	return c.apply(seq, items), nil
}

// Remove requests one less unit of itemID. Dropping to zero is handled
// server-side; the returned mapping then omits the key.
func (c *Cart) Remove(ctx context.Context, itemID string) (map[string]int, error) {
	seq := c.begin()
	items, err := c.gw.RemoveFromCart(ctx, itemID)
	if err != nil {
		logger.LogWarn("Cart remove %q failed: %v", itemID, err)
		return nil, Classify(err)
	}
	return c.apply(seq, items), nil
}

// Items returns a snapshot copy of the mirror.
func (c *Cart) Items() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyCart(c.items)
}

// Subscribe registers a listener invoked synchronously after every mirror
// replacement, with its own copy of the new mapping. The returned function
// unsubscribes.
func (c *Cart) Subscribe(fn func(map[string]int)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// begin allocates a sequence number for a new cart request. Called before
// the network round trip; the mutex is never held across it.
func (c *Cart) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// apply installs a server response unless a newer request has been initiated
// since, in which case the stale response is discarded. Returns a snapshot
// of the mirror either way.
func (c *Cart) apply(seq uint64, items map[string]int) map[string]int {
	c.mu.Lock()
	if seq != c.seq {
		logger.LogInfo("Discarding superseded cart response (request %d, newest %d)", seq, c.seq)
		snapshot := copyCart(c.items)
		c.mu.Unlock()
		return snapshot
	}

	c.items = copyCart(items)
	snapshot := copyCart(c.items)
	listeners := make([]func(map[string]int), 0, len(c.subs))
	for _, fn := range c.subs {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(copyCart(snapshot))
	}
	return snapshot
}

// copyCart copies a cart mapping, dropping non-positive counts so the
// mirror never holds a zero or negative entry.
func copyCart(items map[string]int) map[string]int {
	out := make(map[string]int, len(items))
	for id, count := range items {
		if count >= 1 {
			out[id] = count
		}
	}
	return out
}
