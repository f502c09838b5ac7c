package rides

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ride_dispatch/internal/apperr"
)

// PageLimits bounds page sizes.
type PageLimits struct {
	DefaultSize int
	MaxSize     int
}

var DefaultPageLimits = PageLimits{DefaultSize: 10, MaxSize: 100}

// PageRequest addresses one page by 1-based number.
type PageRequest struct {
	Number int
	Size   int
}

// Offset is the number of rows preceding the page. It saturates instead of
// overflowing for absurd page numbers.
func (p PageRequest) Offset() int {
	n := p.Number - 1
	if n <= 0 || p.Size <= 0 {
		return 0
	}
	if n > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return n * p.Size
}

// ParsePage validates the raw page and page_size parameters. Empty values fall
// back to page 1 and the default size; sizes above the maximum are clamped.
func ParsePage(rawPage, rawSize string, limits PageLimits) (PageRequest, error) {
	number, err := positiveInt("page", rawPage, 1)
	if err != nil {
		return PageRequest{}, err
	}
	size, err := positiveInt("page_size", rawSize, limits.DefaultSize)
	if err != nil {
		return PageRequest{}, err
	}
	if limits.MaxSize > 0 && size > limits.MaxSize {
		size = limits.MaxSize
	}
	return PageRequest{Number: number, Size: size}, nil
}

func positiveInt(name, raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperr.Validation(fmt.Sprintf("invalid %s %q: must be a positive integer", name, raw))
	}
	return n, nil
}

// Page is one bounded slice of an ordered result set.
type Page[T any] struct {
	Count   int64
	Number  int
	Size    int
	Results []T
}

// NewPage builds a page, never leaving Results nil.
func NewPage[T any](results []T, count int64, req PageRequest) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{Count: count, Number: req.Number, Size: req.Size, Results: results}
}

// LastPage is the number of the final non-empty page, or 0 for an empty set.
func (p Page[T]) LastPage() int {
	if p.Count <= 0 || p.Size <= 0 {
		return 0
	}
	return int((p.Count + int64(p.Size) - 1) / int64(p.Size))
}

func (p Page[T]) HasNext() bool {
	return p.Number < p.LastPage()
}

// Previous returns the page to link back to. Past the end it points at the
// last real page rather than at another empty one.
func (p Page[T]) Previous() (int, bool) {
	if p.Number <= 1 {
		return 0, false
	}
	prev := p.Number - 1
	if last := p.LastPage(); prev > last {
		prev = max(last, 1)
	}
	return prev, true
}

// SlicePage cuts req's page out of an already ordered slice.
func SlicePage[T any](items []T, req PageRequest) []T {
	start := req.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+req.Size, len(items))
	return items[start:end]
}
