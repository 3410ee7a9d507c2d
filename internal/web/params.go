package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Paging limits of the show listings.
const (
	DefaultPageLimit   = 20
	MaxPageLimit       = 100
	DefaultRandomLimit = 10
	MaxRandomLimit     = 50
	maxPage            = 1_000_000
	maxSearchTerm      = 100
)

var errInvalidParameter = errors.New("invalid parameter")

func paramError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidParameter, fmt.Sprintf(format, args...))
}

// intParam parses an optional integer query parameter that must lie in
// [lo, hi]. A missing or blank parameter yields def.
func intParam(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, paramError("%s must be an integer between %d and %d", name, lo, hi)
	}
	return v, nil
}

// requiredIntParam is intParam for a parameter that must be present.
func requiredIntParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, paramError("%s required", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, paramError("%s must be an integer", name)
	}
	return v, nil
}

// searchTerm reads a non-blank path parameter. chi hands back the raw
// segment when the request path needed escaping, so it is unescaped here.
func searchTerm(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	term, err := url.PathUnescape(raw)
	if err != nil {
		return "", paramError("%s is not a valid path segment", name)
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return "", paramError("%s required", name)
	}
	if len(term) > maxSearchTerm {
		return "", paramError("%s must be at most %d characters", name, maxSearchTerm)
	}
	return term, nil
}

// pageParams reads page and limit for the paginated listings.
func pageParams(r *http.Request) (page, limit int, err error) {
	if page, err = intParam(r, "page", 1, 1, maxPage); err != nil {
		return 0, 0, err
	}
	if limit, err = intParam(r, "limit", DefaultPageLimit, 1, MaxPageLimit); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage  int   `json:"current_page"`
	ItemsPerPage int   `json:"items_per_page"`
	TotalItems   int64 `json:"total_items"`
	TotalPages   int64 `json:"total_pages"`
}

func paginate(page, limit int, total int64) *Pagination {
	return &Pagination{
		CurrentPage:  page,
		ItemsPerPage: limit,
		TotalItems:   total,
		TotalPages:   (total + int64(limit) - 1) / int64(limit),
	}
}
