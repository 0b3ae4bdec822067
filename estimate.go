package makerworks

import "context"

// RequestEstimate asks the backend for a print-cost estimate for a
// model with the given material and profile settings.
func (c *Client) RequestEstimate(ctx context.Context, req EstimateRequest) (*Estimate, error) {
	var est Estimate
	if err := c.Post(ctx, "/estimate/estimates", req, &est); err != nil {
		return nil, wrapOpError("request estimate", err)
	}
	return &est, nil
}
