package makerworks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
)

// CartItem is a single pending-purchase line item referencing a model.
type CartItem struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	UnitPrice float64           `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// cartPersisted is the serialized subset of cart state.
type cartPersisted struct {
	Items []CartItem `json:"items"`
}

// CartStore maintains the ordered pending-purchase collection and its
// derived aggregates. Mutations cannot fail; the only failure surface is
// the eventual checkout call, which lives on the API client.
type CartStore struct {
	mu       sync.Mutex
	items    []CartItem
	hydrated bool

	backend Backend
	logger  *slog.Logger

	subMu   sync.Mutex
	subs    map[int]func([]CartItem)
	nextSub int
}

// CartOption configures a CartStore.
type CartOption func(*CartStore)

// WithCartLogger sets the store's logger.
func WithCartLogger(l *slog.Logger) CartOption {
	return func(c *CartStore) { c.logger = l }
}

// NewCartStore creates a cart store hydrated from the backend. A
// missing or unreadable envelope yields an empty cart; hydrated is true
// either way once the read-back attempt completes.
func NewCartStore(backend Backend, opts ...CartOption) *CartStore {
	c := &CartStore{
		backend: backend,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		subs:    make(map[int]func([]CartItem)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rehydrate()
	c.hydrated = true
	return c
}

func (c *CartStore) rehydrate() {
	data, err := c.backend.Load(context.Background(), CartKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			c.logger.Warn("cart rehydration failed, starting empty", slog.Any("error", err))
		}
		return
	}

	var st cartPersisted
	if err := unmarshalEnvelope(data, &st); err != nil {
		c.logger.Warn("discarding unreadable cart state", slog.Any("error", err))
		return
	}
	// Persisted items are normalized again on the way in; a hand-edited
	// state file must not break the quantity invariant.
	for _, it := range st.Items {
		if it.ID == "" {
			continue
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		if it.UnitPrice < 0 {
			it.UnitPrice = 0
		}
		c.items = append(c.items, it)
	}
}

// Hydrated reports whether durable storage has been read back.
func (c *CartStore) Hydrated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hydrated
}

// Items returns a copy of the current line items in insertion order.
func (c *CartStore) Items() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itemsLocked()
}

func (c *CartStore) itemsLocked() []CartItem {
	cp := make([]CartItem, len(c.items))
	copy(cp, c.items)
	return cp
}

// Subscribe registers fn to run after each committed change with a copy
// of the items, and returns a cancel function.
func (c *CartStore) Subscribe(fn func([]CartItem)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *CartStore) publish(items []CartItem) {
	c.subMu.Lock()
	fns := make([]func([]CartItem), 0, len(c.subs))
	for id := 0; id < c.nextSub; id++ {
		if fn, ok := c.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(items)
	}
}

// AddItem appends a line item. Adding an ID already in the cart
// increments its quantity by one and ignores the incoming item's other
// fields. New items default to quantity 1 and a non-negative price.
func (c *CartStore) AddItem(item CartItem) {
	if item.ID == "" {
		return
	}

	c.mu.Lock()
	if i := c.indexLocked(item.ID); i >= 0 {
		c.items[i].Quantity++
	} else {
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if item.UnitPrice < 0 {
			item.UnitPrice = 0
		}
		c.items = append(c.items, item)
	}
	c.commitLocked()
}

// RemoveItem deletes the line item with the given ID; absent IDs are a
// no-op.
func (c *CartStore) RemoveItem(id string) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.commitLocked()
}

// SetQuantity sets a line item's quantity, clamped to a minimum of one.
// The item keeps existing at quantity 1 even when asked for 0 or less;
// removal is a distinct operation. Absent IDs are never auto-created.
func (c *CartStore) SetQuantity(id string, quantity int) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	if quantity < 1 {
		quantity = 1
	}
	c.items[i].Quantity = quantity
	c.commitLocked()
}

// IncreaseQuantity increments a line item's quantity by one; absent IDs
// are a no-op.
func (c *CartStore) IncreaseQuantity(id string) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.items[i].Quantity++
	c.commitLocked()
}

// DecreaseQuantity decrements a line item's quantity by one; reaching
// zero removes the item entirely. Absent IDs are a no-op.
func (c *CartStore) DecreaseQuantity(id string) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.items[i].Quantity--
	if c.items[i].Quantity < 1 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	c.commitLocked()
}

// Clear empties the collection.
func (c *CartStore) Clear() {
	c.mu.Lock()
	if len(c.items) == 0 {
		c.mu.Unlock()
		return
	}
	c.items = nil
	c.commitLocked()
}

// Count returns the total quantity across all line items.
func (c *CartStore) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Subtotal returns the sum of unit price times quantity, recomputed on
// every call.
func (c *CartStore) Subtotal() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	sum := 0.0
	for _, it := range c.items {
		sum += it.UnitPrice * float64(it.Quantity)
	}
	return sum
}

// SubtotalCents returns the subtotal as a rounded cents integer, the
// unit the payment processor expects.
func (c *CartStore) SubtotalCents() int64 {
	return int64(math.Round(c.Subtotal() * 100))
}

func (c *CartStore) indexLocked(id string) int {
	for i, it := range c.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// commitLocked persists the items, releases the lock, and notifies
// subscribers.
func (c *CartStore) commitLocked() {
	data, err := marshalEnvelope(cartPersisted{Items: c.itemsLocked()})
	if err == nil {
		err = c.backend.Save(context.Background(), CartKey, data)
	}
	if err != nil {
		c.logger.Warn("persist cart state", slog.Any("error", err))
	}
	items := c.itemsLocked()
	c.mu.Unlock()

	c.publish(items)
}
