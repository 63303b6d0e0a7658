package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/searchktools/webserver/core/http"
	"github.com/searchktools/webserver/core/router"
)

const readBufferSize = 4096

// serveConn reads one request, answers it and closes the connection
func (e *Engine) serveConn(conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("connection panicked",
				zap.Stringer("remote", conn.RemoteAddr()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	if e.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(e.readTimeout))
	}

	var resp *http.Response
	req, err := http.ReadRequest(bufio.NewReaderSize(conn, readBufferSize), e.maxHeaderBytes, e.maxBodyBytes)
	if err != nil {
		var ne net.Error
		var pe *http.ParseError
		switch {
		case errors.Is(err, io.EOF):
			return
		case errors.As(err, &ne) && ne.Timeout():
			e.logger.Debug("read timeout", zap.Stringer("remote", conn.RemoteAddr()))
			return
		case errors.As(err, &pe):
			e.logger.Debug("malformed request", zap.Stringer("remote", conn.RemoteAddr()), zap.Error(err))
			resp = http.NewResponse()
			e.mapSafely(resp, func(resp *http.Response) {
				e.errors.BadRequest(err, resp)
			})
		default:
			e.logger.Debug("read request", zap.Stringer("remote", conn.RemoteAddr()), zap.Error(err))
			return
		}
	} else {
		resp = e.Process(req.WithContext(e.baseCtx))
	}

	if e.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(e.writeTimeout))
	}
	if _, err := resp.WriteTo(conn); err != nil {
		e.logger.Warn("write response", zap.Stringer("remote", conn.RemoteAddr()), zap.Error(err))
	}
}

// Process runs a parsed request through body decoding, before hooks,
// routing, binding, the handler and after hooks, and returns the response
// to write. Failures at any step are mapped to the response; a panic
// anywhere in the pipeline becomes a server error.
func (e *Engine) Process(req *http.Request) (resp *http.Response) {
	resp = http.NewResponse()

	var (
		route string
		start time.Time
	)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("request panicked",
				zap.String("method", req.Method),
				zap.String("path", req.AbsolutePath),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err := fmt.Errorf("panic: %v", r)
			e.mapSafely(resp, func(resp *http.Response) {
				e.errors.ServerError(err, resp)
			})
		}
		if route != "" {
			e.stats.Record(route, time.Since(start), resp.Status() >= 500)
		}
	}()

	if err := e.decode(req); err != nil {
		e.logger.Debug("decode body", zap.String("content_type", req.ContentType()), zap.Error(err))
		e.errors.BadRequest(err, resp)
		return resp
	}

	req, err := e.middlewares.Before(req)
	if err != nil {
		e.fail(e.errors, err, resp)
		return resp
	}

	entry, params, err := e.routes.Resolve(req.Method, req.Path)
	if err != nil {
		e.errors.NotFound(resp)
	} else {
		route, start = entry.Verb+" "+entry.Pattern, time.Now()
		req.PathParameters = params
		e.invoke(entry, req, resp)
	}

	resp, err = e.middlewares.After(resp)
	if err != nil {
		e.fail(e.errors, err, resp)
	}
	return resp
}

// decode fills DecodedBody from the raw body. An empty body decodes to an
// empty map whatever the content type.
func (e *Engine) decode(req *http.Request) error {
	if req.RawBody == "" {
		req.DecodedBody = map[string]any{}
		return nil
	}
	m, err := e.codecs.Decode(req.ContentType(), req.RawBody)
	if err != nil {
		return err
	}
	req.DecodedBody = m
	return nil
}

func (e *Engine) invoke(entry *router.Entry, req *http.Request, resp *http.Response) {
	eh := e.errorHandlerFor(entry)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("handler panicked",
				zap.String("route", entry.Pattern),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			eh.ServerError(fmt.Errorf("handler panic: %v", r), resp)
		}
	}()

	args, err := e.binder.Bind(entry.Handler, req, resp)
	if err != nil {
		e.fail(eh, err, resp)
		return
	}

	result, err := entry.Handler.Call(args)
	if err != nil {
		e.fail(eh, err, resp)
		return
	}
	if !entry.Handler.HasResult() {
		return
	}

	body, err := e.codecs.Encode(resp.ContentType(), result)
	if err != nil {
		e.fail(eh, err, resp)
		return
	}
	resp.Body = body
}

// fail maps err onto resp. HTTPErrors are used verbatim, anything else goes
// to the error handler as a server error.
func (e *Engine) fail(eh ErrorHandler, err error, resp *http.Response) {
	var he *http.HTTPError
	if errors.As(err, &he) {
		applyHTTPError(he, resp)
		return
	}
	e.logger.Error("request failed", zap.Error(err))
	eh.ServerError(err, resp)
}

// mapSafely runs an error handler seam on resp. If the seam itself panics,
// resp becomes a plain 500.
func (e *Engine) mapSafely(resp *http.Response, seam func(*http.Response)) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("error handler panicked", zap.Any("panic", r), zap.Stack("stack"))
			resp.SetStatus(500)
			resp.Body = BodyServerError
		}
	}()
	seam(resp)
}

func (e *Engine) errorHandlerFor(entry *router.Entry) ErrorHandler {
	if eh, ok := entry.Handler.Controller().(ErrorHandler); ok {
		return eh
	}
	return e.errors
}
