package cart

import "context"

// MemAdapter is an in-process adapter. Handy in tests and as a scratch cart.
type MemAdapter struct {
	items []Item
}

func (a *MemAdapter) Load(context.Context) ([]Item, error) {
	return append([]Item(nil), a.items...), nil
}

func (a *MemAdapter) Save(_ context.Context, items []Item) error {
	a.items = append([]Item(nil), items...)
	return nil
}
