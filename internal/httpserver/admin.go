package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/guard"
	"github.com/Skotchmaster/storefront/internal/models"
)

const maxUploadBytes = 5 << 20

type productResponse struct {
	Response
	Product ProductCard `json:"product"`
}

func (h *StorefrontHTTP) AdminProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products")

	search := c.QueryParam("search")
	category := c.QueryParam("category")
	if category == "" {
		category = "semua"
	}

	products, err := h.API.ListProducts(ctx)
	if err != nil {
		l.Error("get_products_failed", "error", err)
		return failUpstream(c, err)
	}
	h.syncMirror(ctx, products)

	return c.JSON(http.StatusOK, map[string]any{
		"search":     search,
		"category":   category,
		"categories": append([]string{"semua"}, catalog.Categories(products)...),
		"data":       h.cards(catalog.AdminFilter(products, search, category)),
		"total":      len(products),
	})
}

func (h *StorefrontHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_product")

	form, err := productForm(c)
	if err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid form", "error", err)
		return fail(c, http.StatusBadRequest, "invalid form")
	}
	if len(form.Image) == 0 {
		l.Warn("product_create_error", "status", 400, "reason", "image missing")
		return fail(c, http.StatusBadRequest, "Pilih gambar!")
	}

	p, err := h.API.CreateProduct(ctx, form)
	if err != nil {
		l.Warn("product_create_error", "reason", "rejected by api", "error", err)
		return failUpstream(c, err)
	}
	h.productChanged(c, "product_created", p)

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, productResponse{
		Response: Response{Status: statusOK, Message: "Produk berhasil disimpan!"},
		Product:  h.card(p),
	})
}

func (h *StorefrontHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_product")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "id is not integer", "error", err)
		return fail(c, http.StatusBadRequest, "id is not integer")
	}
	form, err := productForm(c)
	if err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "invalid form", "error", err)
		return fail(c, http.StatusBadRequest, "invalid form")
	}

	p, err := h.API.UpdateProduct(ctx, id, form)
	if err != nil {
		l.Warn("product_update_error", "reason", "rejected by api", "error", err)
		return failUpstream(c, err)
	}
	h.productChanged(c, "product_updated", p)

	l.Info("update_product_success", "product_id", p.ID)
	return c.JSON(http.StatusOK, productResponse{
		Response: Response{Status: statusOK, Message: "Produk berhasil disimpan!"},
		Product:  h.card(p),
	})
}

func (h *StorefrontHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_product")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		l.Warn("product_delete_error", "status", 400, "reason", "id is not integer", "error", err)
		return fail(c, http.StatusBadRequest, "id is not integer")
	}
	if err := h.API.DeleteProduct(ctx, id); err != nil {
		l.Warn("product_delete_error", "reason", "rejected by api", "error", err)
		return failUpstream(c, err)
	}

	if h.Mirror.Enabled() {
		if err := h.Mirror.Delete(ctx, id); err != nil {
			l.Warn("search_mirror_delete_failed", "product_id", id, "error", err)
		}
	}
	h.productChanged(c, "product_deleted", models.Product{ID: id})

	l.Info("delete_product_success", "product_id", id)
	return c.JSON(http.StatusOK, Response{Status: statusOK, Message: "Produk dihapus!"})
}

func (h *StorefrontHTTP) productChanged(c echo.Context, eventType string, p models.Product) {
	sess, _ := guard.SessionFrom(c)
	h.Events.Emit(events.TopicProduct, strconv.FormatInt(p.ID, 10), map[string]any{
		"type":      eventType,
		"userID":    sess.ID,
		"productID": p.ID,
		"name":      p.Name,
		"price":     p.Price,
		"stock":     p.Stock,
	})
	if eventType != "product_deleted" {
		h.syncMirror(c.Request().Context(), []models.Product{p})
	}
}

func productForm(c echo.Context) (models.ProductForm, error) {
	form := models.ProductForm{
		Name:        strings.TrimSpace(c.FormValue("name")),
		Description: c.FormValue("description"),
		Price:       strings.TrimSpace(c.FormValue("price")),
		Category:    strings.TrimSpace(c.FormValue("category")),
		Stock:       strings.TrimSpace(c.FormValue("stock")),
	}

	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return form, fmt.Errorf("image: %w", err)
	}
	if fh.Size > maxUploadBytes {
		return form, fmt.Errorf("image larger than %d bytes", maxUploadBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return form, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return form, fmt.Errorf("read image: %w", err)
	}
	form.ImageName = fh.Filename
	form.Image = data
	return form, nil
}
