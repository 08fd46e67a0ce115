// Package catalog describes the purchasable courses and reads their prices
// and per-account ownership from the course-store contract.
package catalog

import (
	"fmt"
	"maps"
	"math/big"
	"slices"

	"github.com/mrz1836/skillmint/internal/config"
)

// ItemID identifies a course on chain.
type ItemID uint64

// Item is one catalog entry.
type Item struct {
	ID    ItemID `json:"id"`
	Title string `json:"title"`
}

// Catalog is the ordered, fixed set of courses offered.
type Catalog []Item

// FromConfig builds the catalog in configured order. Missing titles
// default to "Course N"; no items at all yields the built-in catalog.
func FromConfig(items []config.CatalogItem) Catalog {
	if len(items) == 0 {
		items = config.DefaultCatalog()
	}
	c := make(Catalog, 0, len(items))
	for _, it := range items {
		title := it.Title
		if title == "" {
			title = fmt.Sprintf("Course %d", it.ID)
		}
		c = append(c, Item{ID: ItemID(it.ID), Title: title})
	}
	return c
}

// Default returns the built-in five-course catalog.
func Default() Catalog {
	return FromConfig(nil)
}

// Contains reports whether id is offered.
func (c Catalog) Contains(id ItemID) bool {
	return slices.ContainsFunc(c, func(it Item) bool { return it.ID == id })
}

// IDs returns the item identifiers in order.
func (c Catalog) IDs() []ItemID {
	ids := make([]ItemID, len(c))
	for i, it := range c {
		ids[i] = it.ID
	}
	return ids
}

// PriceMap maps items to their price in wei.
type PriceMap map[ItemID]*big.Int

// Clone deep-copies the map.
func (p PriceMap) Clone() PriceMap {
	if p == nil {
		return nil
	}
	out := make(PriceMap, len(p))
	for id, v := range p {
		out[id] = new(big.Int).Set(v)
	}
	return out
}

// OwnershipMap maps items to whether the current identity owns them.
type OwnershipMap map[ItemID]bool

// Clone copies the map.
func (o OwnershipMap) Clone() OwnershipMap {
	return maps.Clone(o)
}
