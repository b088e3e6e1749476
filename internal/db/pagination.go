package db

import (
	"gorm.io/gorm"
)

// Default page sizes per listing.
const (
	ProductPageSize = 20
	SalePageSize    = 50
	ViewPageSize    = 50

	maxPageSize = 500
)

// Page is one slice of a filtered, ordered listing.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// Paginate counts the rows matched by q, then fetches one page of them with
// project applied (select list and ordering). q must not carry its own
// select or limit. Pages start at 1; a page outside 1..TotalPages yields
// no items but correct totals.
func Paginate[T any](q *gorm.DB, page, pageSize int, project ...func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]T, 0)
	pages := totalPages(total, pageSize)
	if page >= 1 && page <= pages {
		fetch := q
		for _, fn := range project {
			fetch = fn(fetch)
		}
		if err := fetch.
			Limit(pageSize).
			Offset((page - 1) * pageSize).
			Scan(&items).Error; err != nil {
			return nil, err
		}
	}

	return &Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: pages,
	}, nil
}

func totalPages(total int64, pageSize int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// pageSizeOr replaces a missing page size with the listing default.
func pageSizeOr(pageSize, def int) int {
	if pageSize < 1 {
		return def
	}
	return pageSize
}
