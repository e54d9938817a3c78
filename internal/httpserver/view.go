package httpserver

import (
	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/money"
)

const (
	badgeSoldOut = "Habis"
	badgeLow     = "Stok Tipis"
	lowStock     = 5
)

type ProductCard struct {
	models.Product
	ImageURL   string `json:"imageUrl"`
	PriceLabel string `json:"priceLabel"`
	Badge      string `json:"badge,omitempty"`
}

type CartLineView struct {
	models.CartLine
	ImageURL      string `json:"imageUrl,omitempty"`
	SubtotalLabel string `json:"subtotalLabel"`
}

type CartSummary struct {
	Count      int    `json:"count"`
	Total      int64  `json:"total"`
	TotalLabel string `json:"totalLabel"`
}

func stockBadge(stock int) string {
	switch {
	case stock <= 0:
		return badgeSoldOut
	case stock < lowStock:
		return badgeLow
	default:
		return ""
	}
}

func (h *StorefrontHTTP) card(p models.Product) ProductCard {
	return ProductCard{
		Product:    p,
		ImageURL:   apiclient.ImageURL(h.API.BaseURL(), p.Image),
		PriceLabel: money.Rupiah(p.Price),
		Badge:      stockBadge(p.Stock),
	}
}

func (h *StorefrontHTTP) cards(ps []models.Product) []ProductCard {
	out := make([]ProductCard, len(ps))
	for i, p := range ps {
		out[i] = h.card(p)
	}
	return out
}

func (h *StorefrontHTTP) cartLines() []CartLineView {
	lines := h.Cart.Lines()
	out := make([]CartLineView, len(lines))
	for i, l := range lines {
		out[i] = CartLineView{
			CartLine:      l,
			ImageURL:      apiclient.ImageURL(h.API.BaseURL(), l.Image),
			SubtotalLabel: money.Rupiah(l.Subtotal()),
		}
	}
	return out
}

func (h *StorefrontHTTP) cartSummary() CartSummary {
	total := h.Cart.Total()
	return CartSummary{
		Count:      h.Cart.Count(),
		Total:      total,
		TotalLabel: money.Rupiah(total),
	}
}
