// internal/shop/balance.go
package shop

import (
	"context"
	"sync"

	"hicompanion/internal/gateway"
)

// ProfileGateway is the slice of the API client the balance needs.
type ProfileGateway interface {
	Profile(ctx context.Context) (*gateway.Profile, error)
}

// Balance is a read-only projection of the user's spendable points. It is
// always refetched in full, never derived by subtracting local cart totals,
// since pricing and promotions are server-side truth.
type Balance struct {
	gw ProfileGateway

	mu     sync.RWMutex
	points int
	known  bool
}

func NewBalance(gw ProfileGateway) *Balance {
	return &Balance{gw: gw}
}

// Refresh refetches the point balance. On failure the last known value is
// retained.
func (b *Balance) Refresh(ctx context.Context) (int, error) {
	profile, err := b.gw.Profile(ctx)
	if err != nil {
		return 0, Classify(err)
	}

	b.mu.Lock()
	b.points = profile.Points
	b.known = true
	b.mu.Unlock()

	return profile.Points, nil
}

// Points returns the last fetched balance and whether one has been fetched.
func (b *Balance) Points() (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.points, b.known
}
