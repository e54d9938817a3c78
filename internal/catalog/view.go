package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	SortRecommended = "recommended"
	SortPriceAsc    = "price_asc"
	SortPriceDesc   = "price_desc"
	SortNewest      = "newest"

	CategoryAll = "all"
)

// View filters products by category and query and orders them by sortMode.
// The input slice is never modified.
func View(products []models.Product, query, category, sortMode string) []models.Product {
	return viewAt(products, query, category, sortMode, time.Now())
}

func viewAt(products []models.Product, query, category, sortMode string, now time.Time) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if category != "" && category != CategoryAll && p.Category != category {
			continue
		}
		if q != "" && !matches(p, q) {
			continue
		}
		out = append(out, p)
	}

	switch sortMode {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b models.Product) int {
			return cmpInt64(a.Price, b.Price)
		})
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b models.Product) int {
			return cmpInt64(b.Price, a.Price)
		})
	case SortNewest:
		// products without a timestamp count as created now
		ts := func(p models.Product) time.Time {
			if p.CreatedAt == nil {
				return now
			}
			return *p.CreatedAt
		}
		slices.SortStableFunc(out, func(a, b models.Product) int {
			return ts(b).Compare(ts(a))
		})
	}
	return out
}

func matches(p models.Product, q string) bool {
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.Category), q)
}

// Categories returns the distinct categories in first-seen order.
func Categories(products []models.Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// AdminFilter is the product table filter of the admin dashboard.
func AdminFilter(products []models.Product, search, category string) []models.Product {
	q := strings.ToLower(strings.TrimSpace(search))
	all := category == "" || strings.EqualFold(category, "semua") || category == CategoryAll

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		if !all && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out
}

func Related(products []models.Product, self int64, limit int) []models.Product {
	out := make([]models.Product, 0, limit)
	for _, p := range products {
		if len(out) >= limit {
			break
		}
		if p.ID == self {
			continue
		}
		out = append(out, p)
	}
	return out
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
