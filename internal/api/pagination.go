package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/hyperengineering/hydro/internal/service"
	"github.com/hyperengineering/hydro/internal/types"
)

// envelope wraps a service page in the {count, next, previous, results}
// response shape. Links keep every other query parameter of the request.
func envelope[T any](r *http.Request, list *service.List[T]) types.Page[T] {
	p := types.Page[T]{
		Count:   list.Count,
		Results: list.Items,
	}
	if p.Results == nil {
		p.Results = []T{}
	}
	if list.HasNext() {
		link := pageLink(r, list.Page.Number+1)
		p.Next = &link
	}
	if list.HasPrevious() {
		link := pageLink(r, list.Page.Number-1)
		p.Previous = &link
	}
	return p
}

// pageLink returns the absolute URL of the request with page replaced. The
// first page is addressed without a page parameter.
func pageLink(r *http.Request, page int) string {
	u := url.URL{
		Scheme: requestScheme(r),
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	q := r.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
