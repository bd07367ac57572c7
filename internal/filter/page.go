package filter

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip. It saturates at math.MaxInt
// instead of wrapping for very large page numbers.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Count returns how many pages of p.Size hold total rows.
func (p Page) Count(total int64) int64 {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	size := int64(p.Size)
	return total/size + min(total%size, 1)
}

// ParsePage reads page and page_size. A missing page_size falls back to
// defaultSize; values above maxSize are clamped.
func ParsePage(values url.Values, defaultSize, maxSize int) (Page, error) {
	p := Page{Number: 1, Size: defaultSize}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, &InvalidFilterError{Param: "page", Value: raw, Reason: "must be a positive integer"}
		}
		p.Number = n
	}

	if raw := strings.TrimSpace(values.Get("page_size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, &InvalidFilterError{Param: "page_size", Value: raw, Reason: "must be a positive integer"}
		}
		p.Size = n
	}

	if maxSize > 0 && p.Size > maxSize {
		p.Size = maxSize
	}
	return p, nil
}
