package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/middleware/guard"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
)

const productsJSON = `[
	{"id":1,"name":"Keripik A","category":"Original","price":10000,"stock":10,"image":"/uploads/a.png"},
	{"id":2,"name":"Keripik B","category":"Coklat","price":8000,"stock":3},
	{"id":3,"name":"Keripik C","category":"Original","price":"12000","stock":0}
]`

type fakeAPI struct {
	mu          sync.Mutex
	orderStatus int
	orderBody   string
	orders      []models.OrderRequest
	role        string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/products":
		if cat := r.URL.Query().Get("category"); cat == "Original" {
			_, _ = w.Write([]byte(`[{"id":1,"name":"Keripik A","category":"Original","price":10000,"stock":10},
				{"id":3,"name":"Keripik C","category":"Original","price":12000,"stock":0}]`))
			return
		}
		_, _ = w.Write([]byte(productsJSON))
	case r.Method == http.MethodGet && r.URL.Path == "/products/1":
		_, _ = w.Write([]byte(`{"id":1,"name":"Keripik A","category":"Original","price":10000,"stock":10,"images":["/uploads/a.png","b.png"]}`))
	case r.Method == http.MethodGet && r.URL.Path == "/products/2":
		_, _ = w.Write([]byte(`{"id":2,"name":"Keripik B","category":"Coklat","price":8000,"stock":3}`))
	case r.Method == http.MethodGet && r.URL.Path == "/products/3":
		_, _ = w.Write([]byte(`{"id":3,"name":"Keripik C","category":"Original","price":12000,"stock":0}`))
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/products/"):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Produk tidak ditemukan"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/uploads/a.png":
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
		role := f.role
		if role == "" {
			role = "customer"
		}
		_, _ = w.Write([]byte(`{"user":{"id":7,"name":"Sari","email":"sari@example.com","role":"` + role + `"}}`))
	case r.Method == http.MethodPost && r.URL.Path == "/orders":
		var req models.OrderRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.orders = append(f.orders, req)
		status := f.orderStatus
		if status == 0 {
			status = http.StatusCreated
		}
		body := f.orderBody
		if body == "" {
			body = `{"id":100}`
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}
}

type testEnv struct {
	t   *testing.T
	e   *echo.Echo
	api *fakeAPI
	h   *StorefrontHTTP
	kv  *storage.Local
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	db, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	kv := storage.New(db, "test")

	client := apiclient.NewClient(srv.URL, 5*time.Second)
	cartStore := cart.NewStore(kv)
	sessions := session.NewStore(kv)
	query := catalog.NewSearch(time.Hour, nil)
	t.Cleanup(query.Stop)

	h := &StorefrontHTTP{
		API:      client,
		Cart:     cartStore,
		Sessions: sessions,
		Checkout: checkout.NewFlow(cartStore, sessions, client, func(context.Context) string { return "https://qr.example/static.png" }),
		Query:    query,
	}

	e := echo.New()
	require.NoError(t, Register(e, &Deps{Storefront: h, Guard: guard.New(sessions)}))
	return &testEnv{t: t, e: e, api: api, h: h, kv: kv}
}

func (env *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	env.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) login() {
	env.t.Helper()
	rec := env.do(http.MethodPost, "/auth/login", `{"email":"sari@example.com","password":"rahasia"}`)
	require.Equal(env.t, http.StatusOK, rec.Code, rec.Body.String())
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/live", "").Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/ready", "").Code)
}

func TestHome_StockBadges(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Products []ProductCard `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Products, 3)
	assert.Equal(t, "", page.Products[0].Badge)
	assert.Equal(t, badgeLow, page.Products[1].Badge)
	assert.Equal(t, badgeSoldOut, page.Products[2].Badge)
	assert.Equal(t, "Rp 10.000", page.Products[0].PriceLabel)
	assert.True(t, strings.HasSuffix(page.Products[0].ImageURL, "/uploads/a.png"))
	assert.Equal(t, models.PlaceholderImage, page.Products[1].ImageURL)
}

func TestDashboard_WithoutSessionRedirects(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/dashboard/user", "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	require.NotContains(t, rec.Body.String(), "Keripik")

	rec = env.do(http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusFound, rec.Code)
}

func TestDashboard_QueryAndSort(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	rec := env.do(http.MethodGet, "/dashboard/user?q=b", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		User string        `json:"user"`
		Data []ProductCard `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, "Sari", page.User)
	require.Len(t, page.Data, 1)
	require.Equal(t, int64(2), page.Data[0].ID)

	rec = env.do(http.MethodGet, "/dashboard/user?sort=price_desc&category=Original", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 2)
	require.Equal(t, int64(3), page.Data[0].ID)
	require.Equal(t, int64(12000), page.Data[0].Price)
}

func TestDashboard_DebouncedSearch(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	rec := env.do(http.MethodPut, "/dashboard/user/search", `{"q":"keripik b"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "keripik b", body["input"])
	require.Equal(t, "", body["query"])

	rec = env.do(http.MethodPut, "/dashboard/user/search", `{"q":"keripik b","flush":true}`)
	require.Equal(t, "keripik b", decodeBody(t, rec)["query"])

	rec = env.do(http.MethodGet, "/dashboard/user", "")
	var page struct {
		Data []ProductCard `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
}

func TestAdmin_CustomerRedirected(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	rec := env.do(http.MethodGet, "/dashboard/admin/products", "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
}

func TestAdmin_ProductsFilter(t *testing.T) {
	env := newTestEnv(t)
	env.api.role = "admin"
	rec := env.do(http.MethodPost, "/auth/login", `{"email":"admin@example.com","password":"x"}`)
	require.Equal(t, "/dashboard/admin", decodeBody(t, rec)["redirect"])

	rec = env.do(http.MethodGet, "/dashboard/admin/products?search=keripik&category=Original", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data []ProductCard `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 2)
}

func TestProductPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/product/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Images    []string      `json:"images"`
		Related   []ProductCard `json:"related"`
		CartCount int           `json:"cartCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Images, 2)
	require.True(t, strings.HasSuffix(page.Images[1], "/b.png"))
	require.Len(t, page.Related, 1)
	require.Equal(t, int64(3), page.Related[0].ID)
	require.Equal(t, 0, page.CartCount)

	rec = env.do(http.MethodGet, "/product/99", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "/", body["redirect"])
	require.Equal(t, "Produk tidak ditemukan", body["message"])

	rec = env.do(http.MethodGet, "/product/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductAddToCart(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/product/2/cart", `{"quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, env.h.Cart.Count())

	rec = env.do(http.MethodPost, "/product/3/cart", `{"quantity":1}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "Stok habis", decodeBody(t, rec)["message"])

	rec = env.do(http.MethodPost, "/product/1/buy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/register", decodeBody(t, rec)["redirect"])
	require.Equal(t, 4, env.h.Cart.Count())
}

func TestCartOperations(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/cart/items", `{"productId":1,"quantity":2}`).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/cart/items", `{"productId":2,"quantity":1}`).Code)
	require.Equal(t, int64(28000), env.h.Cart.Total())

	rec := env.do(http.MethodPatch, "/cart/items/1", `{"quantity":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(http.MethodPatch, "/cart/items/42", `{"quantity":1}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(http.MethodPatch, "/cart/items/1", `{"quantity":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(48000), env.h.Cart.Total())

	rec = env.do(http.MethodDelete, "/cart/items/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []CartLineView `json:"items"`
		Cart  CartSummary    `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	require.Equal(t, "Rp 40.000", page.Cart.TotalLabel)

	require.Equal(t, http.StatusOK, env.do(http.MethodDelete, "/cart", "").Code)
	require.Empty(t, env.h.Cart.Lines())
}

func TestCheckout_RejectedKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/cart/items", `{"productId":1,"quantity":2}`).Code)
	before := env.h.Cart.Lines()

	env.api.orderStatus = http.StatusConflict
	env.api.orderBody = `{"message":"Stok habis"}`

	rec := env.do(http.MethodPost, "/checkout", `{"paymentMethod":"COD"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "Stok habis", decodeBody(t, rec)["message"])
	require.Equal(t, before, env.h.Cart.Lines())
	require.Equal(t, checkout.StateIdle, env.h.Checkout.State())
}

func TestCheckout_EmptyCartMessage(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	rec := env.do(http.MethodPost, "/checkout", `{"paymentMethod":"COD"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Keranjang masih kosong", decodeBody(t, rec)["message"])
	require.Equal(t, checkout.StateIdle, env.h.Checkout.State())
}

func TestCheckout_QRISThenConfirm(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/cart/items", `{"productId":1,"quantity":2}`).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/cart/items", `{"productId":2,"quantity":1}`).Code)

	rec := env.do(http.MethodPost, "/checkout", `{"paymentMethod":"QRIS"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res checkout.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, checkout.StateAwaitingPayment, res.State)
	require.Equal(t, int64(28000), res.Confirmation.Total)
	require.Empty(t, env.api.orders)

	rec = env.do(http.MethodPost, "/checkout/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, checkout.StateSuccess, res.State)
	require.Equal(t, "/dashboard/user", res.Redirect)

	require.Len(t, env.api.orders, 1)
	require.Equal(t, models.OrderRequest{
		UserID:        7,
		TotalPrice:    28000,
		PaymentMethod: "QRIS",
		Items:         []models.OrderItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
	}, env.api.orders[0])
	require.Empty(t, env.h.Cart.Lines())
}

func TestLogoutKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/cart/items", `{"productId":1,"quantity":1}`).Code)

	rec := env.do(http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/", decodeBody(t, rec)["redirect"])

	_, err := env.kv.Get(context.Background(), storage.KeySession)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.Len(t, env.h.Cart.Lines(), 1)
	require.Equal(t, http.StatusFound, env.do(http.MethodGet, "/checkout", "").Code)
}

func TestSearch_Disabled(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/search?q=keripik", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUploadsProxy(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/uploads/a.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "png-bytes", rec.Body.String())
	require.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
}
