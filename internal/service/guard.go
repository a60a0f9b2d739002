// Package service holds the application's business rules. Handlers call into
// it; it calls into repositories.
package service

import (
	"math"

	"scrolla/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	historyLimit    = 50
)

// AssertOwner returns a Forbidden error unless actorID owns the resource.
func AssertOwner(actorID, ownerID uint) error {
	if actorID != ownerID {
		return models.NewForbiddenError("You can only modify your own content")
	}
	return nil
}

// Pagination is a normalised limit/page pair.
type Pagination struct {
	Limit int
	Page  int
}

// NewPagination applies the listing defaults: limit 20 (max 100), page 1.
func NewPagination(limit, page int) Pagination {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	// Keep the offset representable; such pages are empty anyway.
	if last := math.MaxInt32 / limit; page > last {
		page = last
	}
	return Pagination{Limit: limit, Page: page}
}

// Offset is the row offset of the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
