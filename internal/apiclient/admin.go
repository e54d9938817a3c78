package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/Skotchmaster/storefront/internal/models"
)

const msgSaveFailed = "Gagal menyimpan"

func (c *Client) CreateProduct(ctx context.Context, form models.ProductForm) (models.Product, error) {
	return c.saveProduct(ctx, http.MethodPost, "/products", form)
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, form models.ProductForm) (models.Product, error) {
	return c.saveProduct(ctx, http.MethodPut, fmt.Sprintf("/products/%d", id), form)
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, "")
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.apiError("Gagal menghapus produk")
	}
	return nil
}

func (c *Client) saveProduct(ctx context.Context, method, path string, form models.ProductForm) (models.Product, error) {
	body, contentType, err := encodeProductForm(form)
	if err != nil {
		return models.Product{}, err
	}

	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return models.Product{}, err
	}
	if !resp.ok() {
		return models.Product{}, resp.apiError(msgSaveFailed)
	}
	if resp.decodeErr != nil {
		return models.Product{}, resp.decodeErr
	}
	return ParseProduct(resp.payload)
}

func encodeProductForm(form models.ProductForm) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"name", form.Name},
		{"description", form.Description},
		{"price", form.Price},
		{"category", form.Category},
		{"stock", form.Stock},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	if len(form.Image) > 0 {
		name := form.ImageName
		if name == "" {
			name = "image"
		}
		part, err := w.CreateFormFile("image", name)
		if err != nil {
			return nil, "", fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(form.Image); err != nil {
			return nil, "", fmt.Errorf("write image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
