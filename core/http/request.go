package http

import (
	"context"
	"maps"
	"strings"
)

// QueryStringContentType is the synthetic content type used for bodies taken
// from the query string of non POST-like requests.
const QueryStringContentType = "<query-string>"

// Headers holds header values keyed by lower-cased name
type Headers map[string]string

// NewHeaders creates an empty header map
func NewHeaders() Headers {
	return make(Headers)
}

// Get returns the value for key, case-insensitively
func (h Headers) Get(key string) string {
	return h[strings.ToLower(key)]
}

// Set stores value under the lower-cased key
func (h Headers) Set(key, value string) {
	h[strings.ToLower(key)] = value
}

// Add appends value to an existing header, comma separated
func (h Headers) Add(key, value string) {
	key = strings.ToLower(key)
	if existing, ok := h[key]; ok {
		h[key] = existing + ", " + value
		return
	}
	h[key] = value
}

// Del removes a header
func (h Headers) Del(key string) {
	delete(h, strings.ToLower(key))
}

// Request is a parsed HTTP request.
//
// A Request is treated as immutable once the wire reader returns it. Before
// hooks that want to change it return a modified Clone. PathParameters is
// the exception: the connection worker assigns it once, after the route
// table has resolved the request.
type Request struct {
	Method string

	// Path is the route key: the absolute path without its leading '/' and
	// query string. A path ending in '/' resolves to its "index" handler.
	Path string

	// AbsolutePath is the request target exactly as received.
	AbsolutePath string
	Proto        string

	Headers Headers

	RawBody     string
	DecodedBody map[string]any

	PathParameters map[string]string

	bodyFromQuery bool
	ctx           context.Context
}

// NewRequest builds a request the same way the wire reader does. For verbs
// that are not POST-like, a query string on target replaces body.
func NewRequest(method, target string, headers Headers, body string) *Request {
	if headers == nil {
		headers = NewHeaders()
	}
	req := &Request{
		Method:       method,
		Path:         RouteKey(target),
		AbsolutePath: target,
		Proto:        "HTTP/1.1",
		Headers:      headers,
		RawBody:      body,
	}
	if !IsPostLike(method) {
		if _, query, ok := strings.Cut(target, "?"); ok {
			req.RawBody = query
			req.bodyFromQuery = true
		}
	}
	return req
}

// Context returns the request context, never nil
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r carrying ctx
func (r *Request) WithContext(ctx context.Context) *Request {
	r2 := r.Clone()
	r2.ctx = ctx
	return r2
}

// ContentType returns the media type used to decode the raw body, without
// parameters. Query string bodies report QueryStringContentType.
func (r *Request) ContentType() string {
	if r.bodyFromQuery {
		return QueryStringContentType
	}
	ct := r.Headers.Get("content-type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// Clone returns a copy of r whose maps can be modified independently
func (r *Request) Clone() *Request {
	r2 := *r
	r2.Headers = maps.Clone(r.Headers)
	r2.DecodedBody = maps.Clone(r.DecodedBody)
	r2.PathParameters = maps.Clone(r.PathParameters)
	return &r2
}

// RouteKey converts a request target into the key matched by the route
// table: no leading '/', no query, and "index" appended to directory paths.
func RouteKey(target string) string {
	p, _, _ := strings.Cut(target, "?")
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index"
	}
	return p
}

// IsPostLike reports whether the verb carries its parameters in the body
// rather than in the query string.
func IsPostLike(method string) bool {
	switch strings.ToUpper(method) {
	case "POST", "PUT", "PATCH":
		return true
	default:
		return false
	}
}
