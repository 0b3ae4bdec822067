package makerworks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func benchyItem() CartItem {
	return CartItem{ID: "m-1", Name: "Benchy", UnitPrice: 10}
}

func TestAddItem_DefaultsQuantityAndPrice(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())

	c.AddItem(CartItem{ID: "m-1", Name: "Benchy", UnitPrice: -3})

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Zero(t, items[0].UnitPrice)
}

func TestAddItem_SameIDIncrementsQuantity(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())

	c.AddItem(benchyItem())
	c.AddItem(CartItem{ID: "m-1", Name: "Renamed", UnitPrice: 99})
	c.AddItem(CartItem{ID: "m-1"})

	items := c.Items()
	require.Len(t, items, 1, "same id never duplicates")
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "Benchy", items[0].Name, "incoming fields are ignored on increment")
	assert.Equal(t, 10.0, items[0].UnitPrice)
}

func TestAddItem_EmptyIDIgnored(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())
	c.AddItem(CartItem{Name: "nameless"})
	assert.Empty(t, c.Items())
}

func TestRemoveItem(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())
	c.AddItem(benchyItem())
	c.AddItem(CartItem{ID: "m-2", Name: "Calibration Cube", UnitPrice: 5})

	c.RemoveItem("m-1")
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "m-2", items[0].ID)

	// Absent id is a no-op.
	c.RemoveItem("m-1")
	assert.Len(t, c.Items(), 1)
}

func TestSetQuantity_ClampsToMinimumOne(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())
	c.AddItem(benchyItem())

	c.SetQuantity("m-1", 5)
	assert.Equal(t, 5, c.Items()[0].Quantity)

	c.SetQuantity("m-1", 0)
	require.Len(t, c.Items(), 1, "clamping keeps the item")
	assert.Equal(t, 1, c.Items()[0].Quantity)

	c.SetQuantity("m-1", -4)
	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestSetQuantity_NeverAutoCreates(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())
	c.SetQuantity("ghost", 3)
	assert.Empty(t, c.Items())
}

func TestIncreaseQuantity(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())
	c.AddItem(benchyItem())

	c.IncreaseQuantity("m-1")
	assert.Equal(t, 2, c.Items()[0].Quantity)
	assert.Equal(t, 20.0, c.Subtotal())

	c.IncreaseQuantity("ghost")
	assert.Len(t, c.Items(), 1)
}

func TestDecreaseQuantity_RemovesAtZero(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())
	c.AddItem(benchyItem())
	c.IncreaseQuantity("m-1")

	c.DecreaseQuantity("m-1")
	require.Len(t, c.Items(), 1)
	assert.Equal(t, 1, c.Items()[0].Quantity)

	// Decrement is the path that removes; SetQuantity clamps instead.
	c.DecreaseQuantity("m-1")
	assert.Empty(t, c.Items())
}

func TestDecreaseQuantity_EmptyCartIsNoOp(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())

	c.DecreaseQuantity("m-1")
	c.DecreaseQuantity("m-1")

	assert.Empty(t, c.Items())
	assert.Zero(t, c.Count())
}

func TestClear(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())
	c.AddItem(benchyItem())
	c.AddItem(CartItem{ID: "m-2", UnitPrice: 5})

	c.Clear()
	assert.Empty(t, c.Items())
	assert.Zero(t, c.Subtotal())
}

func TestRepeatedAdd_QuantityEqualsCallCount(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())

	const calls = 7
	for i := 0; i < calls; i++ {
		c.AddItem(benchyItem())
	}

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, calls, items[0].Quantity)
	assert.Equal(t, calls, c.Count())
}

func TestSubtotal_RecomputedFreshAfterMutation(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())
	c.AddItem(CartItem{ID: "m-3", Name: "Vase", UnitPrice: 15})

	assert.Equal(t, 15.0, c.Subtotal())

	c.SetQuantity("m-3", 2)
	assert.Equal(t, 30.0, c.Subtotal(), "no cached aggregate drift")

	c.AddItem(CartItem{ID: "m-4", UnitPrice: 4.5, Quantity: 2})
	assert.Equal(t, 39.0, c.Subtotal())
	assert.Equal(t, 4, c.Count())
}

func TestSubtotalCents_RoundsForPaymentAPI(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())
	c.AddItem(CartItem{ID: "m-5", UnitPrice: 25})
	c.SetQuantity("m-5", 2)
	assert.Equal(t, int64(5000), c.SubtotalCents())

	c.AddItem(CartItem{ID: "m-6", UnitPrice: 0.11})
	assert.Equal(t, int64(5011), c.SubtotalCents())
}

func TestCartStore_PersistsAndRehydrates(t *testing.T) {
	backend := NewMemoryBackend()

	first := NewCartStore(backend)
	first.AddItem(benchyItem())
	first.SetQuantity("m-1", 3)

	second := NewCartStore(backend)
	assert.True(t, second.Hydrated())
	items := second.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 30.0, second.Subtotal())
}

func TestCartStore_CorruptStateStartsEmptyAndHydrated(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Save(context.Background(), CartKey, []byte("][")))

	c := NewCartStore(backend)
	assert.True(t, c.Hydrated())
	assert.Empty(t, c.Items())
}

func TestCartStore_RehydrationNormalizesQuantities(t *testing.T) {
	backend := NewMemoryBackend()
	data, err := marshalEnvelope(cartPersisted{Items: []CartItem{
		{ID: "m-1", UnitPrice: 10, Quantity: 0},
		{ID: "", UnitPrice: 1, Quantity: 2},
		{ID: "m-2", UnitPrice: -5, Quantity: 2},
	}})
	require.NoError(t, err)
	require.NoError(t, backend.Save(context.Background(), CartKey, data))

	c := NewCartStore(backend)
	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Zero(t, items[1].UnitPrice)
}

func TestCartSubscribe_NotifiesAndCancels(t *testing.T) {
	c := NewCartStore(NewMemoryBackend())

	var events [][]CartItem
	cancel := c.Subscribe(func(items []CartItem) { events = append(events, items) })

	c.AddItem(benchyItem())
	c.IncreaseQuantity("m-1")
	require.Len(t, events, 2)
	assert.Equal(t, 2, events[1][0].Quantity)

	cancel()
	c.Clear()
	assert.Len(t, events, 2)
}
