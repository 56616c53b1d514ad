// Package cart holds the client cart: a single-owner list of selected
// products persisted as a JSON array through a pluggable adapter.
package cart

import (
	"github.com/shopspring/decimal"
)

// Item is one cart entry. Unique by ID within a cart; Quantity >= 1.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
	Quantity int             `json:"quantity"`
}

// Cart is a value type over the item list. It never touches the network;
// persistence is the Store's job.
type Cart struct {
	items []Item
}

// FromItems builds a cart from a possibly corrupted persisted list:
// duplicates collapse to the first occurrence, non-positive quantities are
// dropped.
func FromItems(items []Item) Cart {
	seen := make(map[string]bool, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return Cart{items: out}
}

// Items returns a copy of the item list.
func (c *Cart) Items() []Item {
	return append([]Item(nil), c.items...)
}

func (c *Cart) Len() int { return len(c.items) }

// Add inserts the item or, if the id is already present, increments its
// quantity. qty below 1 counts as 1.
func (c *Cart) Add(it Item, qty int) {
	if qty < 1 {
		qty = 1
	}
	for i := range c.items {
		if c.items[i].ID == it.ID {
			c.items[i].Quantity += qty
			return
		}
	}
	it.Quantity = qty
	c.items = append(c.items, it)
}

// SetQuantity replaces the quantity for id. qty below 1 is a no-op, as is an
// unknown id.
func (c *Cart) SetQuantity(id string, qty int) {
	if qty < 1 {
		return
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = qty
			return
		}
	}
}

func (c *Cart) Remove(id string) {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() {
	c.items = nil
}

// Total is the sum of price*quantity across all items, in the same currency
// unit the catalog uses.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
