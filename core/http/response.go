package http

import (
	"io"
	"slices"
	"strconv"

	"github.com/searchktools/webserver/core/pools"
)

// DefaultContentType is the content type of a fresh Response
const DefaultContentType = "text/html"

// Response is the mutable answer to a Request. Handlers, after hooks and
// the error handler modify it; the worker writes it once.
type Response struct {
	status  int
	Headers Headers
	Body    string
}

// NewResponse creates a 200 text/html response with an empty body
func NewResponse() *Response {
	h := NewHeaders()
	h.Set("content-type", DefaultContentType)
	return &Response{Headers: h}
}

// Status returns the response status, 200 unless one was assigned
func (r *Response) Status() int {
	if r.status == 0 {
		return 200
	}
	return r.status
}

// SetStatus assigns the response status
func (r *Response) SetStatus(code int) {
	r.status = code
}

// HasStatus reports whether a status was explicitly assigned
func (r *Response) HasStatus() bool {
	return r.status != 0
}

// ContentType returns the response content-type header
func (r *Response) ContentType() string {
	return r.Headers.Get("content-type")
}

// WriteTo writes the status line, headers and body to w.
// Headers are written in sorted order followed by content-length.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	buf := pools.AcquireBuffer(len(r.Body) + 256)
	defer pools.ReleaseBuffer(buf)

	b := (*buf)[:0]
	b = append(b, "HTTP/1.1 "...)
	b = strconv.AppendInt(b, int64(r.Status()), 10)
	b = append(b, "\r\n"...)

	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		if k == "content-length" {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b = append(b, k...)
		b = append(b, ": "...)
		b = append(b, r.Headers[k]...)
		b = append(b, "\r\n"...)
	}
	b = append(b, "content-length: "...)
	b = strconv.AppendInt(b, int64(len(r.Body)), 10)
	b = append(b, "\r\n\r\n"...)
	b = append(b, r.Body...)
	*buf = b

	n, err := w.Write(b)
	return int64(n), err
}
