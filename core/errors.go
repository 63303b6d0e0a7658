package core

import (
	"errors"

	"github.com/searchktools/webserver/core/http"
)

// Default error bodies
const (
	BodyBadRequest  = "Error 400 - Bad Request"
	BodyNotFound    = "Error 404 - Not Found"
	BodyServerError = "Error 500 - Internal Server Error"
)

var ErrEngineRunning = errors.New("engine is already serving")

// ErrorHandler maps failures to responses. Implement it on a controller to
// override the engine's handler for that controller's routes.
type ErrorHandler interface {
	// NotFound answers a request no route matched
	NotFound(resp *http.Response)

	// BadRequest answers a request that could not be parsed or decoded
	BadRequest(err error, resp *http.Response)

	// ServerError answers a failed handler or middleware
	ServerError(err error, resp *http.Response)
}

// DefaultErrorHandler sets the status and, when the body is empty, a short
// default body. ServerError keeps a status the handler already assigned.
type DefaultErrorHandler struct{}

func (DefaultErrorHandler) NotFound(resp *http.Response) {
	resp.SetStatus(404)
	if resp.Body == "" {
		resp.Body = BodyNotFound
	}
}

func (DefaultErrorHandler) BadRequest(err error, resp *http.Response) {
	resp.SetStatus(400)
	if resp.Body == "" {
		resp.Body = BodyBadRequest
	}
}

func (DefaultErrorHandler) ServerError(err error, resp *http.Response) {
	if !resp.HasStatus() {
		resp.SetStatus(500)
	}
	if resp.Body == "" {
		resp.Body = BodyServerError
	}
}

// applyHTTPError copies an HTTPError's status, headers and message verbatim
func applyHTTPError(he *http.HTTPError, resp *http.Response) {
	resp.SetStatus(he.Status)
	for k, v := range he.Headers {
		resp.Headers.Set(k, v)
	}
	resp.Body = he.Message
}
