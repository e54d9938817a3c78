package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/util"
)

const mirrorSyncTimeout = 10 * time.Second

func (h *StorefrontHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search")

	if !h.Mirror.Enabled() {
		return fail(c, http.StatusServiceUnavailable, "search is not configured")
	}

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		l.Warn("search_failed", "status", 400, "reason", "empty query")
		return fail(c, http.StatusBadRequest, "q is required")
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, products, err := h.Mirror.Search(ctx, q, from, limit)
	if err != nil {
		l.Error("search_failed", "status", 502, "error", err)
		return fail(c, http.StatusBadGateway, "search error")
	}

	l.Info("search_success", "total", total)
	return c.JSON(http.StatusOK, map[string]any{
		"data": h.cards(products),
		"meta": util.NewMeta(page, size, total),
	})
}

// syncMirror refreshes the search mirror in the background.
func (h *StorefrontHTTP) syncMirror(ctx context.Context, products []models.Product) {
	if !h.Mirror.Enabled() || len(products) == 0 {
		return
	}
	l := logging.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorSyncTimeout)
	go func() {
		defer cancel()
		if err := h.Mirror.Sync(ctx, products); err != nil {
			l.Warn("search_mirror_sync_failed", "count", len(products), "error", err)
		}
	}()
}
