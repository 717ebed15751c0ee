package api

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/HerbHall/markstash/internal/services"
)

// queryInt64 parses an optional integer parameter. An absent or empty
// value yields nil.
func queryInt64(q url.Values, key string) (*int64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer, got %q", services.ErrInvalidInput, key, raw)
	}
	return &v, nil
}

// queryPositive parses an optional parameter that must be >= 1 when
// given. Absent or empty yields 0.
func queryPositive(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", services.ErrInvalidInput, key, raw)
	}
	return v, nil
}

func parsePage(q url.Values) (services.PageRequest, error) {
	page, err := queryPositive(q, "page")
	if err != nil {
		return services.PageRequest{}, err
	}
	perPage, err := queryPositive(q, "per_page")
	if err != nil {
		return services.PageRequest{}, err
	}
	return services.PageRequest{Page: page, PerPage: perPage}, nil
}

func parseFavoriteFilter(q url.Values) (services.FavoriteFilter, error) {
	var f services.FavoriteFilter
	var err error
	f.Search = q.Get("search")
	if f.CategoryID, err = queryInt64(q, "category_id"); err != nil {
		return f, err
	}
	if f.TagID, err = queryInt64(q, "tag_id"); err != nil {
		return f, err
	}
	return f, nil
}
