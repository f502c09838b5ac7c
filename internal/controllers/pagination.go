package controllers

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"ride_dispatch/internal/rides"
)

// PageResponse is the list envelope shared by every listing endpoint.
type PageResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// toPageResponse projects a page and builds its next/previous links from the
// request URL, rewriting only the page parameter.
func toPageResponse[S, T any](c *gin.Context, page rides.Page[S], project func(S) T) PageResponse[T] {
	results := make([]T, len(page.Results))
	for i, item := range page.Results {
		results[i] = project(item)
	}

	resp := PageResponse[T]{Count: page.Count, Results: results}
	if page.HasNext() {
		link := pageLink(c, page.Number+1)
		resp.Next = &link
	}
	if prev, ok := page.Previous(); ok {
		link := pageLink(c, prev)
		resp.Previous = &link
	}
	return resp
}

func pageLink(c *gin.Context, number int) string {
	u := url.URL{
		Scheme: requestScheme(c),
		Host:   c.Request.Host,
		Path:   c.Request.URL.Path,
	}
	q := c.Request.URL.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
