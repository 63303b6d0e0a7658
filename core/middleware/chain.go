package middleware

import (
	"github.com/searchktools/webserver/core/http"
)

// Middleware runs before routing and after the handler.
//
// Before receives the decoded request and returns the request the next hook
// sees; returning nil keeps the current one. After does the same for the
// response. Returning an *http.HTTPError aborts with that response, any
// other error aborts with 500.
type Middleware interface {
	Before(req *http.Request) (*http.Request, error)
	After(resp *http.Response) (*http.Response, error)
}

// Adapter passes requests and responses through unchanged. Embed it to
// implement only one of the hooks.
type Adapter struct{}

func (Adapter) Before(req *http.Request) (*http.Request, error) {
	return req, nil
}

func (Adapter) After(resp *http.Response) (*http.Response, error) {
	return resp, nil
}

// BeforeFunc adapts a function to a Middleware with only a before hook
type BeforeFunc func(req *http.Request) (*http.Request, error)

func (f BeforeFunc) Before(req *http.Request) (*http.Request, error) {
	return f(req)
}

func (f BeforeFunc) After(resp *http.Response) (*http.Response, error) {
	return resp, nil
}

// AfterFunc adapts a function to a Middleware with only an after hook
type AfterFunc func(resp *http.Response) (*http.Response, error)

func (f AfterFunc) Before(req *http.Request) (*http.Request, error) {
	return req, nil
}

func (f AfterFunc) After(resp *http.Response) (*http.Response, error) {
	return f(resp)
}

// Chain is an ordered middleware list that grows at both ends.
//
// Iteration yields the top entries newest first, then the bottom entries
// oldest first. Before and after hooks run in that same order. A Chain is
// built before serving and only read while requests are in flight.
type Chain struct {
	top    []Middleware // in insertion order, iterated backwards
	bottom []Middleware
}

// NewChain creates an empty chain
func NewChain() *Chain {
	return &Chain{
		top:    make([]Middleware, 0, 8),
		bottom: make([]Middleware, 0, 8),
	}
}

// AddTop inserts m ahead of every middleware added so far
func (c *Chain) AddTop(m Middleware) *Chain {
	c.top = append(c.top, m)
	return c
}

// AddBottom inserts m after every middleware added so far
func (c *Chain) AddBottom(m Middleware) *Chain {
	c.bottom = append(c.bottom, m)
	return c
}

// Len returns the number of middlewares
func (c *Chain) Len() int {
	return len(c.top) + len(c.bottom)
}

// Ordered returns the middlewares in execution order
func (c *Chain) Ordered() []Middleware {
	out := make([]Middleware, 0, c.Len())
	for i := len(c.top) - 1; i >= 0; i-- {
		out = append(out, c.top[i])
	}
	return append(out, c.bottom...)
}

// Before runs every before hook in order, stopping at the first error
func (c *Chain) Before(req *http.Request) (*http.Request, error) {
	// Fast path: no middlewares
	if c.Len() == 0 {
		return req, nil
	}

	for i := len(c.top) - 1; i >= 0; i-- {
		next, err := c.top[i].Before(req)
		if err != nil {
			return req, err
		}
		if next != nil {
			req = next
		}
	}
	for _, m := range c.bottom {
		next, err := m.Before(req)
		if err != nil {
			return req, err
		}
		if next != nil {
			req = next
		}
	}
	return req, nil
}

// After runs every after hook in order, stopping at the first error
func (c *Chain) After(resp *http.Response) (*http.Response, error) {
	if c.Len() == 0 {
		return resp, nil
	}

	for _, m := range c.Ordered() {
		next, err := m.After(resp)
		if err != nil {
			return resp, err
		}
		if next != nil {
			resp = next
		}
	}
	return resp, nil
}
