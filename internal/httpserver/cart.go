package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/logging"
)

func (h *StorefrontHTTP) cartPage(c echo.Context, status int) error {
	return c.JSON(status, map[string]any{
		"items": h.cartLines(),
		"cart":  h.cartSummary(),
	})
}

func (h *StorefrontHTTP) GetCart(c echo.Context) error {
	return h.cartPage(c, http.StatusOK)
}

func (h *StorefrontHTTP) AddCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req CartItemRequest
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		l.Warn("add_cart_item_failed", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	if _, err := h.addProduct(c, strconv.FormatInt(req.ProductID, 10), req.Quantity); err != nil {
		return respondError(c, err)
	}
	return h.cartPage(c, http.StatusOK)
}

func (h *StorefrontHTTP) SetCartItemQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		l.Warn("set_quantity_failed", "status", 400, "reason", "id is not integer", "error", err)
		return fail(c, http.StatusBadRequest, "id is not integer")
	}
	var req QuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_quantity_failed", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	if _, err := h.Cart.SetQuantity(ctx, id, req.Quantity); err != nil {
		switch {
		case errors.Is(err, cart.ErrValidation):
			l.Warn("set_quantity_failed", "status", 400, "reason", "quantity below 1", "error", err)
			return fail(c, http.StatusBadRequest, "Jumlah minimal 1")
		case errors.Is(err, cart.ErrNotFound):
			l.Warn("set_quantity_failed", "status", 404, "reason", "line not in cart", "error", err)
			return fail(c, http.StatusNotFound, "Produk tidak ada di keranjang")
		default:
			l.Error("set_quantity_failed", "status", 500, "error", err)
			return fail(c, http.StatusInternalServerError, msgCartSave)
		}
	}
	return h.cartPage(c, http.StatusOK)
}

func (h *StorefrontHTTP) RemoveCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		l.Warn("remove_cart_item_failed", "status", 400, "reason", "id is not integer", "error", err)
		return fail(c, http.StatusBadRequest, "id is not integer")
	}
	if err := h.Cart.RemoveLine(ctx, id); err != nil {
		l.Error("remove_cart_item_failed", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, msgCartSave)
	}
	return h.cartPage(c, http.StatusOK)
}

func (h *StorefrontHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Cart.Clear(ctx); err != nil {
		l.Error("clear_cart_failed", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, msgCartSave)
	}
	return h.cartPage(c, http.StatusOK)
}
