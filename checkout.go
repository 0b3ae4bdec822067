package makerworks

import (
	"context"
	"math"
)

// CheckoutItem is a single line of the checkout payload. Unit prices
// are sent as cents integers, the unit the payment processor expects.
type CheckoutItem struct {
	ModelID        string `json:"model_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price"`
	Quantity       int    `json:"quantity"`
}

// CreateCheckoutSession starts a hosted checkout for the given cart
// items and returns the payment processor's redirect URL. An empty cart
// is rejected locally without a network call.
func (c *Client) CreateCheckoutSession(ctx context.Context, items []CartItem) (*CheckoutSession, error) {
	if len(items) == 0 {
		return nil, wrapOpError("checkout", ErrEmptyCart)
	}

	payload := struct {
		Items []CheckoutItem `json:"items"`
	}{Items: make([]CheckoutItem, 0, len(items))}

	for _, it := range items {
		payload.Items = append(payload.Items, CheckoutItem{
			ModelID:        it.ID,
			Name:           it.Name,
			UnitPriceCents: int64(math.Round(it.UnitPrice * 100)),
			Quantity:       it.Quantity,
		})
	}

	var session CheckoutSession
	if err := c.Post(ctx, "/checkout", payload, &session); err != nil {
		return nil, wrapOpError("checkout", err)
	}
	return &session, nil
}
