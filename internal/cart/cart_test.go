package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string, price string, qty int) Item {
	return Item{ID: id, Name: "prod-" + id, Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestAddSameIDIncrementsQuantity(t *testing.T) {
	var c Cart
	c.Add(item("p1", "1000", 1), 1)
	c.Add(item("p1", "1000", 1), 2)

	require.Equal(t, 1, c.Len())
	assert.Equal(t, 3, c.Items()[0].Quantity)
}

func TestTotal(t *testing.T) {
	var c Cart
	c.Add(item("p1", "1000", 1), 2)
	c.Add(item("p2", "500", 1), 1)

	assert.True(t, c.Total().Equal(decimal.RequireFromString("2500")),
		"total = %s, want 2500", c.Total())
}

func TestSetQuantityBelowOneIsNoop(t *testing.T) {
	var c Cart
	c.Add(item("p1", "10", 1), 2)

	c.SetQuantity("p1", 0)
	assert.Equal(t, 2, c.Items()[0].Quantity)

	c.SetQuantity("p1", -5)
	assert.Equal(t, 2, c.Items()[0].Quantity)

	c.SetQuantity("p1", 7)
	assert.Equal(t, 7, c.Items()[0].Quantity)
}

func TestInvariantsUnderMutationSequences(t *testing.T) {
	var c Cart
	c.Add(item("a", "1", 1), 1)
	c.Add(item("b", "2", 1), 3)
	c.Add(item("a", "1", 1), 1)
	c.SetQuantity("b", 0)
	c.Remove("missing")
	c.Add(item("c", "3", 1), -4)
	c.Remove("a")
	c.Add(item("a", "1", 1), 2)

	seen := map[string]bool{}
	expected := decimal.Zero
	for _, it := range c.Items() {
		assert.False(t, seen[it.ID], "duplicate id %s", it.ID)
		seen[it.ID] = true
		assert.GreaterOrEqual(t, it.Quantity, 1)
		expected = expected.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, c.Total().Equal(expected))
}

func TestFromItemsCollapsesCorruptedState(t *testing.T) {
	c := FromItems([]Item{
		item("p1", "10", 2),
		item("p1", "99", 5), // duplicate, first occurrence wins
		item("p2", "5", 0),  // invalid quantity dropped
		item("p3", "1", 1),
	})

	require.Equal(t, 2, c.Len())
	items := c.Items()
	assert.Equal(t, "p1", items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, "p3", items[1].ID)
}

func TestStorePersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	mem := &MemAdapter{}

	s, err := Open(ctx, mem)
	require.NoError(t, err)

	require.NoError(t, s.Add(ctx, item("p1", "1000", 1), 2))
	require.NoError(t, s.Add(ctx, item("p2", "500", 1), 1))

	// a second store over the same adapter sees the same items
	s2, err := Open(ctx, mem)
	require.NoError(t, err)
	require.Equal(t, 2, s2.Len())
	assert.True(t, s2.Total().Equal(decimal.RequireFromString("2500")))

	require.NoError(t, s.Clear(ctx))
	s3, err := Open(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, 0, s3.Len())
}
