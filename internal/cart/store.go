package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Adapter persists the full item list. Implementations are read-all/write-all;
// last writer wins, no locking.
type Adapter interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

// Store binds a Cart to an Adapter. Every mutation writes the whole list back
// so other readers in the same lifecycle see it immediately.
type Store struct {
	adapter Adapter
	cart    Cart
}

// Open loads and normalizes the persisted cart.
func Open(ctx context.Context, a Adapter) (*Store, error) {
	items, err := a.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &Store{adapter: a, cart: FromItems(items)}, nil
}

func (s *Store) persist(ctx context.Context) error {
	if err := s.adapter.Save(ctx, s.cart.Items()); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, it Item, qty int) error {
	s.cart.Add(it, qty)
	return s.persist(ctx)
}

func (s *Store) SetQuantity(ctx context.Context, id string, qty int) error {
	s.cart.SetQuantity(id, qty)
	return s.persist(ctx)
}

func (s *Store) Remove(ctx context.Context, id string) error {
	s.cart.Remove(id)
	return s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context) error {
	s.cart.Clear()
	return s.persist(ctx)
}

func (s *Store) Items() []Item { return s.cart.Items() }

func (s *Store) Len() int { return s.cart.Len() }

func (s *Store) Total() decimal.Decimal { return s.cart.Total() }
