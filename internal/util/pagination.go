package util

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	// keeps offset+size within int
	if maxPage := math.MaxInt/size - 1; page > maxPage {
		page = maxPage
	}
	offset = (page - 1) * size
	return offset, size
}

type Meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func NewMeta(page, size int, total int64) Meta {
	if page < 1 {
		page = 1
	}
	offset, limit := Calculate(page, size)
	return Meta{
		Page:       page,
		Size:       limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
		HasPrev:    page > 1,
		HasNext:    int64(offset+limit) < total,
	}
}

// Paginate slices an in-memory result set.
func Paginate[T any](items []T, page, size int) ([]T, Meta) {
	offset, limit := Calculate(page, size)
	meta := NewMeta(page, size, int64(len(items)))
	if offset >= len(items) {
		return []T{}, meta
	}
	end := min(offset+limit, len(items))
	return items[offset:end], meta
}
