package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
)

var (
	ErrMissingID        = errors.New("missing identifier")
	ErrMalformedPayload = errors.New("malformed payload")
)

// ParseProduct maps an untyped product record onto models.Product. Only the
// identifier is required; every other field falls back to a default.
func ParseProduct(v any) (models.Product, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.Product{}, fmt.Errorf("product is %T: %w", v, ErrMalformedPayload)
	}
	if inner, ok := obj["product"].(map[string]any); ok {
		obj = inner
	}

	id, ok := toInt64(obj["id"])
	if !ok {
		return models.Product{}, fmt.Errorf("product: %w", ErrMissingID)
	}

	p := models.Product{
		ID:          id,
		Name:        asString(obj["name"]),
		Description: asString(obj["description"]),
		Price:       nonNegative(obj["price"]),
		Stock:       int(nonNegative(obj["stock"])),
		Category:    asString(obj["category"]),
		CreatedAt:   toTime(obj["createdAt"]),
	}
	if p.Category == "" {
		p.Category = models.DefaultCategory
	}

	image := asString(obj["image"])
	if list, isList := obj["images"].([]any); isList {
		p.Images = make([]string, 0, len(list))
		for _, im := range list {
			if s := asString(im); s != "" {
				p.Images = append(p.Images, s)
			}
		}
	} else if image != "" {
		p.Images = []string{image}
	} else {
		p.Images = []string{}
	}

	switch {
	case len(p.Images) > 0:
		p.Image = p.Images[0]
	case image != "":
		p.Image = image
	default:
		p.Image = models.PlaceholderImage
	}
	return p, nil
}

// ParseProducts accepts a bare array or an object wrapping it under
// "products" or "data". Entries without an identifier are reported in skipped.
func ParseProducts(v any) (products []models.Product, skipped int, err error) {
	if v == nil {
		return []models.Product{}, 0, nil
	}
	list, ok := v.([]any)
	if !ok {
		obj, isObj := v.(map[string]any)
		if !isObj {
			return nil, 0, fmt.Errorf("product list is %T: %w", v, ErrMalformedPayload)
		}
		switch {
		case obj["products"] != nil:
			list, ok = obj["products"].([]any)
		case obj["data"] != nil:
			list, ok = obj["data"].([]any)
		}
		if !ok {
			return nil, 0, fmt.Errorf("product list: %w", ErrMalformedPayload)
		}
	}

	products = make([]models.Product, 0, len(list))
	for _, item := range list {
		p, err := ParseProduct(item)
		if err != nil {
			skipped++
			continue
		}
		products = append(products, p)
	}
	return products, skipped, nil
}

// ParseSession reads the user record of a login/registration answer. With
// allowBare the body itself is used when there is no "user" object.
func ParseSession(v any, allowBare bool) (models.Session, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.Session{}, fmt.Errorf("session is %T: %w", v, ErrMalformedPayload)
	}
	user, ok := obj["user"].(map[string]any)
	if !ok {
		if !allowBare {
			return models.Session{}, fmt.Errorf("session: %w", ErrMalformedPayload)
		}
		user = obj
	}

	id, ok := toInt64(user["id"])
	if !ok {
		return models.Session{}, fmt.Errorf("session: %w", ErrMissingID)
	}

	name := asString(user["name"])
	if name == "" {
		name = asString(user["username"])
	}
	return models.Session{
		ID:    id,
		Name:  name,
		Email: asString(user["email"]),
		Role:  strings.ToLower(strings.TrimSpace(asString(user["role"]))),
	}, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func toFloat(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err = strconv.ParseFloat(s, 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toInt64(v any) (int64, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func nonNegative(v any) int64 {
	f, ok := toFloat(v)
	if !ok || f < 0 {
		return 0
	}
	return int64(math.Round(f))
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(v any) *time.Time {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return &ts
			}
		}
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			ts := time.UnixMilli(ms).UTC()
			return &ts
		}
	}
	return nil
}

// ImageURL resolves an image reference returned by the API against its base URL.
func ImageURL(base, path string) string {
	switch {
	case path == "":
		return ""
	case path == models.PlaceholderImage,
		strings.HasPrefix(path, "http://"),
		strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "/"):
		return base + path
	default:
		return base + "/" + path
	}
}
