package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	relatedLimit = 8

	msgOutOfStock = "Stok habis"
	msgCartSave   = "Gagal menyimpan keranjang"
	msgLoginFirst = "Login dulu!"
	msgEmptyCart  = "Keranjang masih kosong"
)

var (
	homeCategories = []string{"Semua", "Original", "Coklat", "Keju", "Balado", "Manis"}

	homeBanners = []Banner{
		{Title: "Keripik Pisang Paling Renyah", Subtitle: "Rasa gurih & manis bikin nagih", Image: "/hero1.jpg", CTA: "/collections/promo"},
		{Title: "Promo Harian Spesial", Subtitle: "Diskon & bonus tiap hari", Image: "/hero2.jpg", CTA: "/collections/harian"},
		{Title: "Gratis Ongkir Nasional", Subtitle: "Belanja makin hemat", Image: "/hero3.jpg", CTA: "/promotions"},
	}
)

func (h *StorefrontHTTP) Home(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pages.home")

	page := map[string]any{
		"banners":    homeBanners,
		"categories": homeCategories,
		"products":   []ProductCard{},
		"cart":       h.cartSummary(),
	}

	products, err := h.API.ListProducts(ctx)
	if err != nil {
		l.Warn("home_products_failed", "error", err)
		_, msg := upstreamStatus(err)
		page["message"] = msg
		return c.JSON(http.StatusOK, page)
	}
	h.syncMirror(ctx, products)

	page["products"] = h.cards(products)
	return c.JSON(http.StatusOK, page)
}

func (h *StorefrontHTTP) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, FormPage{
		Title:  "Masuk",
		Action: "/auth/login",
		Fields: []FormField{
			{Name: "email", Label: "Email", Type: "email", Required: true},
			{Name: "password", Label: "Password", Type: "password", Required: true},
		},
		Links: []Link{{Label: "Belum punya akun? Daftar", Href: "/register"}},
	})
}

func (h *StorefrontHTTP) RegisterPage(c echo.Context) error {
	return c.JSON(http.StatusOK, FormPage{
		Title:  "Daftar",
		Action: "/auth/register",
		Fields: []FormField{
			{Name: "name", Label: "Nama", Type: "text", Required: true},
			{Name: "email", Label: "Email", Type: "email", Required: true},
			{Name: "password", Label: "Password", Type: "password", Required: true},
		},
		Links: []Link{{Label: "Sudah punya akun? Masuk", Href: "/login"}},
	})
}

func (h *StorefrontHTTP) Product(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pages.product")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "id is not integer", "error", err)
		return fail(c, http.StatusBadRequest, "id is not integer")
	}

	p, err := h.API.GetProduct(ctx, id)
	if err != nil {
		status, msg := upstreamStatus(err)
		if errors.Is(err, apiclient.ErrMissingID) || errors.Is(err, apiclient.ErrMalformedPayload) {
			status, msg = http.StatusBadGateway, "Produk tidak ditemukan"
		}
		l.Warn("get_product_failed", "status", status, "product_id", id, "error", err)
		return c.JSON(status, Response{Status: statusError, Message: msg, Redirect: "/"})
	}

	images := make([]string, 0, len(p.Images))
	for _, im := range p.Images {
		images = append(images, apiclient.ImageURL(h.API.BaseURL(), im))
	}
	if len(images) == 0 {
		images = append(images, models.PlaceholderImage)
	}

	related := []models.Product{}
	if list, err := h.API.ListProductsByCategory(ctx, p.Category, relatedLimit); err != nil {
		l.Warn("related_products_failed", "category", p.Category, "error", err)
	} else {
		related = catalog.Related(list, p.ID, relatedLimit)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"product":   h.card(p),
		"images":    images,
		"related":   h.cards(related),
		"cartCount": h.Cart.Count(),
	})
}

// ProductAddToCart adds the product with its current stock to the local cart.
func (h *StorefrontHTTP) ProductAddToCart(c echo.Context) error {
	var req QuantityRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	line, err := h.addProduct(c, c.Param("id"), req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"line": line,
		"cart": h.cartSummary(),
	})
}

// ProductBuyNow adds one item and sends the visitor to registration.
func (h *StorefrontHTTP) ProductBuyNow(c echo.Context) error {
	if _, err := h.addProduct(c, c.Param("id"), 1); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Status: statusOK, Redirect: "/register"})
}

func (h *StorefrontHTTP) addProduct(c echo.Context, rawID string, quantity int) (models.CartLine, error) {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_product")

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		l.Warn("add_cart_item_failed", "status", 400, "reason", "id is not integer", "error", err)
		return models.CartLine{}, &pageError{http.StatusBadRequest, "id is not integer"}
	}

	p, err := h.API.GetProduct(ctx, id)
	if err != nil {
		l.Warn("add_cart_item_failed", "product_id", id, "error", err)
		return models.CartLine{}, err
	}

	line, err := h.Cart.AddLine(ctx, p, quantity)
	if err != nil {
		if errors.Is(err, cart.ErrOutOfStock) {
			l.Info("add_cart_item_failed", "status", 409, "reason", "out of stock", "product_id", id)
			return models.CartLine{}, &pageError{http.StatusConflict, msgOutOfStock}
		}
		l.Error("add_cart_item_failed", "status", 500, "reason", "cannot save cart", "error", err)
		return models.CartLine{}, &pageError{http.StatusInternalServerError, msgCartSave}
	}

	l.Info("add_cart_item_success", "product_id", id, "quantity", line.Quantity)
	return line, nil
}
