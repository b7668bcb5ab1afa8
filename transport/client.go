// Package transport defines the contract between reconciliation and the
// component that actually talks HTTP to Harbor, plus the interpretation of
// the responses that come back.
package transport

import (
	"context"
	"net/http"
	"net/url"
	"slices"
)

// Client performs one bounded request. Implementations own authentication,
// timeouts and cancellation; they never classify the response.
type Client interface {
	Do(ctx context.Context, request Request) Response
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, request Request) Response

func (f ClientFunc) Do(ctx context.Context, request Request) Response {
	return f(ctx, request)
}

type Request struct {
	Method string
	// Path is relative to the API base URL, e.g. "/projects/12".
	Path  string
	Query url.Values
	// Body is encoded as JSON when non-nil.
	Body any
	// Expect lists the statuses counted as success. Empty means any 2xx.
	Expect []int
}

// Succeeded applies the request's success predicate to response.
func (r Request) Succeeded(response Response) bool {
	if response.Err != nil {
		return false
	}
	if len(r.Expect) == 0 {
		return IsSuccessStatus(response.StatusCode)
	}
	return slices.Contains(r.Expect, response.StatusCode)
}

func Get(path string, query url.Values) Request {
	return Request{Method: http.MethodGet, Path: path, Query: query}
}

// Response is the raw outcome of a request. Err is set when no response
// was received at all.
type Response struct {
	StatusCode int
	Body       []byte
	Err        error
}

func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
