package apiclient

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/storefront/internal/models"
)

const msgCheckoutFailed = "Checkout gagal, coba lagi."

// CreateOrder submits an order intent. The confirmation body is returned as-is.
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (map[string]any, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/orders", req)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.apiError(msgCheckoutFailed)
	}
	out, _ := resp.payload.(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
