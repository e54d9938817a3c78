package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/middleware/guard"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/session"
)

// StorefrontHTTP serves the storefront pages as JSON page models.
type StorefrontHTTP struct {
	API      *apiclient.Client
	Cart     *cart.Store
	Sessions *session.Store
	Checkout *checkout.Flow
	Query    *catalog.Search
	Mirror   *search.Mirror
	Events   *events.Emitter
}

type Deps struct {
	Storefront *StorefrontHTTP
	Guard      *guard.Guard
}

func Register(e *echo.Echo, d *Deps) error {
	h := d.Storefront

	uploads, err := uploadsProxy(h.API.BaseURL())
	if err != nil {
		return err
	}
	e.GET("/uploads/*", uploads)

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.GET("/", h.Home)
	e.GET("/login", h.LoginPage)
	e.GET("/register", h.RegisterPage)
	e.GET("/search", h.Search)

	e.GET("/product/:id", h.Product)
	e.POST("/product/:id/cart", h.ProductAddToCart)
	e.POST("/product/:id/buy", h.ProductBuyNow)

	auth := e.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/register", h.Register)
	auth.POST("/logout", h.Logout)

	user := e.Group("/dashboard/user", d.Guard.RequireRole(models.RoleCustomer))
	user.GET("", h.UserDashboard)
	user.PUT("/search", h.UserSearch)

	cartGroup := e.Group("/cart", d.Guard.RequireSession)
	cartGroup.GET("", h.GetCart)
	cartGroup.DELETE("", h.ClearCart)
	cartGroup.POST("/items", h.AddCartItem)
	cartGroup.PATCH("/items/:id", h.SetCartItemQuantity)
	cartGroup.DELETE("/items/:id", h.RemoveCartItem)

	co := e.Group("/checkout", d.Guard.RequireSession)
	co.GET("", h.CheckoutPage)
	co.POST("", h.Pay)
	co.POST("/confirm", h.ConfirmPayment)
	co.POST("/cancel", h.CancelPayment)

	admin := e.Group("/dashboard/admin", d.Guard.RequireRole(models.RoleAdmin))
	admin.GET("", h.AdminProducts)
	admin.GET("/products", h.AdminProducts)
	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
	admin.GET("/qris", h.QRISList)
	admin.POST("/qris", h.QRISUpload)
	admin.GET("/qris/random", h.QRISRandom)
	admin.DELETE("/qris/:name", h.QRISDelete)
	return nil
}
