package models

import (
	"errors"
	"math"

	"devmatch/backend/internal/config"
)

// ErrInvalidPage indicates a page number below one.
var ErrInvalidPage = errors.New("models: page must be at least 1")

// ErrPageOutOfRange indicates a page number whose offset would overflow.
var ErrPageOutOfRange = errors.New("models: page number too large")

// MaxPage is the largest page whose offset fits in an int at any allowed limit.
const MaxPage = math.MaxInt/config.MaxPageSize + 1

// Pagination is a validated page request. Limit is always within [1, MaxPageSize].
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination validates the page and clamps the limit.
// A zero limit falls back to the default page size.
func NewPagination(page, limit int) (Pagination, error) {
	if page < 1 {
		return Pagination{}, ErrInvalidPage
	}
	if page > MaxPage {
		return Pagination{}, ErrPageOutOfRange
	}
	switch {
	case limit == 0:
		limit = config.DefaultPageSize
	case limit < 1:
		limit = 1
	case limit > config.MaxPageSize:
		limit = config.MaxPageSize
	}
	return Pagination{Page: page, Limit: limit}, nil
}

// DefaultPagination is the first page with the default size.
func DefaultPagination() Pagination {
	return Pagination{Page: config.DefaultPage, Limit: config.DefaultPageSize}
}

// Offset is the number of rows to skip. It saturates at math.MaxInt for
// hand-built values beyond MaxPage.
func (p Pagination) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Normalized returns p with out-of-range fields replaced by defaults, for
// callers that received a zero-value Pagination.
func (p Pagination) Normalized() Pagination {
	if p.Page < 1 {
		p.Page = config.DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = config.DefaultPageSize
	}
	if p.Limit > config.MaxPageSize {
		p.Limit = config.MaxPageSize
	}
	return p
}
