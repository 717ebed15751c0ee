package services

import (
	"fmt"
	"math"
)

// Pagination defaults.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// PageRequest is a 1-indexed page selection. Zero fields mean "not given"
// and take the defaults.
type PageRequest struct {
	Page    int
	PerPage int
}

// Page is one page of results plus the size of the unpaginated set.
type Page[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Normalize applies defaults and clamps PerPage to maxPerPage. A
// non-positive maxPerPage means MaxPerPage. Negative values are rejected.
func (p PageRequest) Normalize(maxPerPage int) (PageRequest, error) {
	if p.Page < 0 {
		return p, fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidInput, p.Page)
	}
	if p.PerPage < 0 {
		return p, fmt.Errorf("%w: per_page must be >= 1, got %d", ErrInvalidInput, p.PerPage)
	}
	if p.Page > math.MaxInt32 {
		return p, fmt.Errorf("%w: page %d out of range", ErrInvalidInput, p.Page)
	}
	if maxPerPage <= 0 {
		maxPerPage = MaxPerPage
	}
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PerPage == 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p, nil
}

// Window returns LIMIT and OFFSET for a normalized request.
func (p PageRequest) Window() (limit, offset int) {
	return p.PerPage, (p.Page - 1) * p.PerPage
}
