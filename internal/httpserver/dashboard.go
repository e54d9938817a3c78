package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/guard"
	"github.com/Skotchmaster/storefront/internal/util"
)

// UserDashboard renders the filtered and sorted catalog for a customer. The
// query comes from the q parameter or, when absent, the debounced search.
func (h *StorefrontHTTP) UserDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dashboard.user")

	sess, _ := guard.SessionFrom(c)

	category := c.QueryParam("category")
	if category == "" {
		category = catalog.CategoryAll
	}
	sortMode := c.QueryParam("sort")
	if sortMode == "" {
		sortMode = catalog.SortRecommended
	}
	q := h.Query.Query()
	if vals, ok := c.QueryParams()["q"]; ok && len(vals) > 0 {
		q = vals[0]
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	products, err := h.API.ListProducts(ctx)
	if err != nil {
		l.Error("get_products_failed", "error", err)
		return failUpstream(c, err)
	}
	h.syncMirror(ctx, products)

	view := catalog.View(products, q, category, sortMode)
	items, meta := util.Paginate(view, page, size)

	l.Info("dashboard_success", "count", len(view))
	return c.JSON(http.StatusOK, map[string]any{
		"user":       sess.Name,
		"categories": append([]string{catalog.CategoryAll}, catalog.Categories(products)...),
		"category":   category,
		"sort":       sortMode,
		"query":      q,
		"input":      h.Query.Input(),
		"data":       h.cards(items),
		"meta":       meta,
		"cart":       h.cartSummary(),
	})
}

// UserSearch feeds the search box. The filter query follows after the
// debounce interval unless flush is set.
func (h *StorefrontHTTP) UserSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	h.Query.Type(req.Query)
	if req.Flush {
		h.Query.Flush()
	}
	return c.JSON(http.StatusAccepted, map[string]any{
		"input": h.Query.Input(),
		"query": h.Query.Query(),
	})
}
