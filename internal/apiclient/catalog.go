package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	return c.listProducts(ctx, "/products")
}

func (c *Client) ListProductsByCategory(ctx context.Context, category string, limit int) ([]models.Product, error) {
	q := url.Values{}
	q.Set("category", category)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.listProducts(ctx, "/products?"+q.Encode())
}

func (c *Client) listProducts(ctx context.Context, path string) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("client", "api.list_products")

	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.apiError("Fetch error")
	}
	if resp.decodeErr != nil {
		return nil, resp.decodeErr
	}

	products, skipped, err := ParseProducts(resp.payload)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		l.Warn("products_without_id_skipped", "count", skipped)
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, "")
	if err != nil {
		return models.Product{}, err
	}
	if !resp.ok() {
		return models.Product{}, resp.apiError("Produk tidak ditemukan")
	}
	if resp.decodeErr != nil {
		return models.Product{}, resp.decodeErr
	}
	return ParseProduct(resp.payload)
}
