package pricing

import (
	"context"
	"fmt"

	"github.com/dreamware/grocerfleet/internal/fleet"
)

// Client calls a remote pricing service over HTTP.
type Client struct {
	baseURL string
}

// NewClient builds a client for the pricing service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL}
}

// Price returns the total for the fulfilled items of one order.
func (c *Client) Price(ctx context.Context, orderID string, items []fleet.HandledItem) (float64, error) {
	var resp Response
	err := fleet.PostJSON(ctx, c.baseURL+"/price", Request{OrderID: orderID, Items: items}, &resp)
	if err != nil {
		return 0, err
	}
	if resp.Status != fleet.StatusOK {
		return 0, fmt.Errorf("pricing service returned %s", resp.Status)
	}
	return resp.TotalPrice, nil
}
