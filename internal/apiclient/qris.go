package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

func (c *Client) ListQRIS(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/qris/list", nil, "")
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.apiError("Gagal memuat QRIS", "error", "message")
	}

	files := []string{}
	obj, _ := resp.payload.(map[string]any)
	list, _ := obj["files"].([]any)
	for _, f := range list {
		if s := asString(f); s != "" {
			files = append(files, s)
		}
	}
	return files, nil
}

// UploadQRIS sends the image as the "qris" multipart field.
func (c *Client) UploadQRIS(ctx context.Context, filename string, r io.Reader) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("qris", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy qris image: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/qris/upload", &buf, w.FormDataContentType())
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.apiError("Upload QRIS gagal", "error", "message")
	}
	return nil
}

func (c *Client) DeleteQRIS(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/qris/delete/"+url.PathEscape(name), nil, "")
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.apiError("Gagal menghapus QRIS", "error", "message")
	}
	return nil
}

// RandomQRIS returns the path of a randomly chosen QR image.
func (c *Client) RandomQRIS(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/qris/random", nil, "")
	if err != nil {
		return "", err
	}
	if !resp.ok() {
		return "", resp.apiError("QRIS tidak tersedia", "error", "message")
	}
	obj, _ := resp.payload.(map[string]any)
	u := asString(obj["url"])
	if u == "" {
		return "", &APIError{Status: resp.status, Message: "QRIS tidak tersedia"}
	}
	return u, nil
}
