package http

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequestLine = errors.New("invalid request line")
	ErrInvalidHeader      = errors.New("invalid header line")
	ErrInvalidLength      = errors.New("invalid content-length")
	ErrHeaderTooLarge     = errors.New("request header too large")
	ErrBodyTooLarge       = errors.New("request body too large")

	ErrUnsupportedTransferEncoding = errors.New("unsupported transfer-encoding")
)

// ParseError reports a request that could not be read off the wire.
// It is answered with 400 and ends the connection.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("parse request: %v", e.Err)
	}
	return fmt.Sprintf("parse request: %v: %q", e.Err, e.Line)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// HTTPError is a failure that carries its own response. Middleware and
// handlers return one to stop processing with an explicit status.
type HTTPError struct {
	Message string
	Status  int
	Headers Headers
}

// NewHTTPError creates an HTTPError with no extra headers
func NewHTTPError(message string, status int) *HTTPError {
	return &HTTPError{
		Message: message,
		Status:  status,
		Headers: NewHeaders(),
	}
}

// WithHeader sets a header sent along with the error response
func (e *HTTPError) WithHeader(key, value string) *HTTPError {
	if e.Headers == nil {
		e.Headers = NewHeaders()
	}
	e.Headers.Set(key, value)
	return e
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}
