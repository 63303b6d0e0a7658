package core

import (
	"time"

	"go.uber.org/zap"

	"github.com/searchktools/webserver/core/codec"
)

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithErrorHandler replaces DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(e *Engine) {
		if h != nil {
			e.errors = h
		}
	}
}

// WithCodecs replaces the default codec registry
func WithCodecs(r *codec.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.codecs = r
		}
	}
}

// WithReadTimeout bounds reading one request. Zero disables the deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.readTimeout = d
	}
}

// WithWriteTimeout bounds writing one response. Zero disables the deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.writeTimeout = d
	}
}

// WithMaxHeaderBytes caps the request line plus headers. Zero or less
// disables the cap.
func WithMaxHeaderBytes(n int) Option {
	return func(e *Engine) {
		e.maxHeaderBytes = n
	}
}

// WithMaxBodyBytes caps the declared content-length; larger requests are
// answered with 400. Zero or less disables the cap.
func WithMaxBodyBytes(n int) Option {
	return func(e *Engine) {
		e.maxBodyBytes = n
	}
}
