package middleware

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/searchktools/webserver/core/http"
)

// Common middleware implementations

// PoweredBy sets the x-powered-by header on every response
func PoweredBy(value string) Middleware {
	return AfterFunc(func(resp *http.Response) (*http.Response, error) {
		resp.Headers.Set("x-powered-by", value)
		return resp, nil
	})
}

// RequestID numbers responses with an x-request-id header
func RequestID() Middleware {
	var counter atomic.Uint64

	return AfterFunc(func(resp *http.Response) (*http.Response, error) {
		resp.Headers.Set("x-request-id", strconv.FormatUint(counter.Add(1), 10))
		return resp, nil
	})
}

type cors struct{}

// CORS adds CORS headers and answers preflight OPTIONS requests with 204
func CORS() Middleware {
	return cors{}
}

func (cors) Before(req *http.Request) (*http.Request, error) {
	if req.Method == "OPTIONS" {
		he := http.NewHTTPError("", 204)
		setCORS(he.Headers)
		return nil, he
	}
	return req, nil
}

func (cors) After(resp *http.Response) (*http.Response, error) {
	setCORS(resp.Headers)
	return resp, nil
}

func setCORS(h http.Headers) {
	h.Set("access-control-allow-origin", "*")
	h.Set("access-control-allow-methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("access-control-allow-headers", "Content-Type, Authorization")
}

// RateLimiter rejects requests beyond requestsPerSecond with 429
func RateLimiter(requestsPerSecond int) Middleware {
	var (
		tokens     int
		lastRefill time.Time
		mu         sync.Mutex
	)

	tokens = requestsPerSecond
	lastRefill = time.Now()

	return BeforeFunc(func(req *http.Request) (*http.Request, error) {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(lastRefill) >= time.Second {
			tokens = requestsPerSecond
			lastRefill = now
		}

		if tokens > 0 {
			tokens--
			return req, nil
		}

		return nil, http.NewHTTPError("Too Many Requests", 429).
			WithHeader("retry-after", "1")
	})
}

type logger struct {
	log *zap.Logger
}

// Logger logs every request before routing and its status after the handler
func Logger(log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return logger{log: log}
}

func (l logger) Before(req *http.Request) (*http.Request, error) {
	l.log.Info("request",
		zap.String("method", req.Method),
		zap.String("path", req.AbsolutePath),
	)
	return req, nil
}

func (l logger) After(resp *http.Response) (*http.Response, error) {
	l.log.Info("response",
		zap.Int("status", resp.Status()),
		zap.Int("body_bytes", len(resp.Body)),
	)
	return resp, nil
}
