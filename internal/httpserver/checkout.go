package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/guard"
)

func (h *StorefrontHTTP) CheckoutPage(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"items":   h.cartLines(),
		"cart":    h.cartSummary(),
		"methods": checkout.Methods,
		"state":   h.Checkout.State(),
	})
}

func (h *StorefrontHTTP) Pay(c echo.Context) error {
	var req PayRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Method == "" {
		req.Method = checkout.MethodTransfer
	}

	res, err := h.Checkout.Pay(c.Request().Context(), req.Method)
	return h.checkoutResult(c, req.Method, res, err)
}

func (h *StorefrontHTTP) ConfirmPayment(c echo.Context) error {
	res, err := h.Checkout.Confirm(c.Request().Context())
	return h.checkoutResult(c, checkout.MethodQRIS, res, err)
}

func (h *StorefrontHTTP) CancelPayment(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"state": h.Checkout.Cancel()})
}

func (h *StorefrontHTTP) checkoutResult(c echo.Context, method string, res checkout.Result, err error) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.submit", "method", method)
	sess, _ := guard.SessionFrom(c)
	key := strconv.FormatInt(sess.ID, 10)

	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrUnknownMethod):
			return fail(c, http.StatusBadRequest, "Metode pembayaran tidak dikenal")
		case errors.Is(err, checkout.ErrBusy):
			return fail(c, http.StatusConflict, "Checkout sedang diproses")
		case errors.Is(err, checkout.ErrNotAwaiting):
			return fail(c, http.StatusConflict, "Tidak ada pembayaran yang menunggu konfirmasi")
		case errors.Is(err, checkout.ErrNoSession):
			return c.JSON(http.StatusUnauthorized, Response{Status: statusError, Message: msgLoginFirst, Redirect: guard.LoginPath})
		case errors.Is(err, checkout.ErrEmptyCart):
			return fail(c, http.StatusBadRequest, msgEmptyCart)
		}

		h.Events.Emit(events.TopicOrder, key, map[string]any{
			"type":          "checkout_failed",
			"userID":        sess.ID,
			"paymentMethod": method,
			"reason":        err.Error(),
		})
		l.Warn("checkout_failed", "error", err)
		return failUpstream(c, err)
	}

	if res.State == checkout.StateSuccess && res.Request != nil {
		h.Events.Emit(events.TopicOrder, key, map[string]any{
			"type":          "order_created",
			"userID":        res.Request.UserID,
			"paymentMethod": res.Request.PaymentMethod,
			"total":         res.Request.TotalPrice,
			"items":         res.Request.Items,
			"order":         res.Order,
		})
	}
	return c.JSON(http.StatusOK, res)
}
