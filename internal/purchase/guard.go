// Package purchase submits course purchases, waits for their confirmation
// and tracks which purchases are in flight.
package purchase

import (
	"slices"
	"sync"

	"github.com/mrz1836/skillmint/internal/catalog"
	"github.com/mrz1836/skillmint/internal/config"
)

// Guard admits purchases. In single mode one purchase may be in flight
// process-wide; in per_item mode distinct items may proceed concurrently
// but the same item never twice.
type Guard struct {
	mu     sync.Mutex
	mode   string
	active map[catalog.ItemID]struct{}
}

// NewGuard creates a guard. Unknown modes fall back to single.
func NewGuard(mode string) *Guard {
	if mode != config.PurchasePerItem {
		mode = config.PurchaseSingle
	}
	return &Guard{mode: mode, active: make(map[catalog.ItemID]struct{})}
}

// Mode returns the admission mode.
func (g *Guard) Mode() string { return g.mode }

// Busy reports whether a purchase of id would be refused right now.
func (g *Guard) Busy(id catalog.ItemID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busyLocked(id)
}

func (g *Guard) busyLocked(id catalog.ItemID) bool {
	if g.mode == config.PurchaseSingle {
		return len(g.active) > 0
	}
	_, ok := g.active[id]
	return ok
}

// TryAcquire admits a purchase of id, or returns false when busy.
func (g *Guard) TryAcquire(id catalog.ItemID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busyLocked(id) {
		return false
	}
	g.active[id] = struct{}{}
	return true
}

// Release ends the purchase of id.
func (g *Guard) Release(id catalog.ItemID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, id)
}

// InFlight returns the items currently being purchased, sorted.
func (g *Guard) InFlight() []catalog.ItemID {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]catalog.ItemID, 0, len(g.active))
	for id := range g.active {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

