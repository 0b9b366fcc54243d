// internal/shop/catalog.go
package shop

import (
	"context"
	"sync"

	"hicompanion/internal/gateway"
	"hicompanion/internal/logger"
)

// CatalogGateway is the slice of the API client the catalog needs.
type CatalogGateway interface {
	Items(ctx context.Context) ([]gateway.Item, error)
}

// Catalog is a read-mostly cache of the point-shop item list. Every refresh
// replaces the cached list wholesale; there is no merge and no pagination
// because the API returns the full catalog each time.
type Catalog struct {
	gw CatalogGateway

	mu    sync.RWMutex
	items []gateway.Item
}

func NewCatalog(gw CatalogGateway) *Catalog {
	return &Catalog{gw: gw}
}

// Refresh fetches the catalog and replaces the cache atomically. On failure
// the previous cached list is retained and the error returned; the caller
// decides whether to retry.
func (c *Catalog) Refresh(ctx context.Context) ([]gateway.Item, error) {
	items, err := c.gw.Items(ctx)
	if err != nil {
		logger.LogWarn("Catalog refresh failed, keeping %d cached items: %v", len(c.Items()), err)
		return nil, Classify(err)
	}

	c.mu.Lock()
	c.items = append([]gateway.Item(nil), items...)
	c.mu.Unlock()

	logger.LogInfo("Catalog refreshed: %d items", len(items))
	return c.Items(), nil
}

// Items returns a snapshot of the cached catalog in server order.
func (c *Catalog) Items() []gateway.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]gateway.Item(nil), c.items...)
}

// Filter returns the cached items matching the raffle flag, preserving
// server order. Pure view over the cache; no fetch.
func (c *Catalog) Filter(isRaffle bool) []gateway.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var filtered []gateway.Item
	for _, item := range c.items {
		if item.IsRaffle == isRaffle {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
