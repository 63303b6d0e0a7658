package core

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/searchktools/webserver/core/bind"
	"github.com/searchktools/webserver/core/codec"
	"github.com/searchktools/webserver/core/http"
	"github.com/searchktools/webserver/core/middleware"
	"github.com/searchktools/webserver/core/observability"
	"github.com/searchktools/webserver/core/router"
)

// Engine owns the route table, the middleware chain and the codecs, and
// serves one goroutine per accepted connection.
//
// Routes, middlewares and codecs are registered before Serve or Run; once
// the engine is serving they are read without locking and further
// registration fails with ErrEngineRunning.
type Engine struct {
	routes      *router.Table
	middlewares *middleware.Chain
	codecs      *codec.Registry
	binder      *bind.Binder
	errors      ErrorHandler
	logger      *zap.Logger
	stats       *observability.Monitor

	maxHeaderBytes int
	maxBodyBytes   int
	readTimeout    time.Duration
	writeTimeout   time.Duration

	baseCtx context.Context
	running atomic.Bool

	mu        sync.Mutex
	ln        net.Listener
	done      chan struct{}
	closeOnce sync.Once
	conns     sync.WaitGroup
}

// NewEngine creates a new engine instance
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		routes:         router.NewTable(),
		middlewares:    middleware.NewChain(),
		codecs:         codec.NewRegistry(),
		errors:         DefaultErrorHandler{},
		logger:         zap.NewNop(),
		stats:          observability.NewMonitor(),
		maxHeaderBytes: http.DefaultMaxHeaderBytes,
		maxBodyBytes:   http.DefaultMaxBodyBytes,
		baseCtx:        context.Background(),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.binder = bind.NewBinder(e.codecs)
	return e
}

// Mount registers every route of c
func (e *Engine) Mount(c *router.Controller) error {
	if e.running.Load() {
		return ErrEngineRunning
	}
	return e.routes.Mount(c)
}

// Handle registers fn for verb and path outside of any controller
func (e *Engine) Handle(verb, path string, fn any, params ...string) error {
	return e.Mount(router.NewController("", nil).Handle([]string{verb}, path, fn, params...))
}

// GET registers a GET route
func (e *Engine) GET(path string, fn any, params ...string) error {
	return e.Handle("GET", path, fn, params...)
}

// POST registers a POST route
func (e *Engine) POST(path string, fn any, params ...string) error {
	return e.Handle("POST", path, fn, params...)
}

// PUT registers a PUT route
func (e *Engine) PUT(path string, fn any, params ...string) error {
	return e.Handle("PUT", path, fn, params...)
}

// DELETE registers a DELETE route
func (e *Engine) DELETE(path string, fn any, params ...string) error {
	return e.Handle("DELETE", path, fn, params...)
}

// PATCH registers a PATCH route
func (e *Engine) PATCH(path string, fn any, params ...string) error {
	return e.Handle("PATCH", path, fn, params...)
}

// Use appends m to the bottom of the middleware chain
func (e *Engine) Use(m middleware.Middleware) error {
	if e.running.Load() {
		return ErrEngineRunning
	}
	e.middlewares.AddBottom(m)
	return nil
}

// UseTop inserts m at the top of the middleware chain
func (e *Engine) UseTop(m middleware.Middleware) error {
	if e.running.Load() {
		return ErrEngineRunning
	}
	e.middlewares.AddTop(m)
	return nil
}

// RegisterCodec adds or replaces the codec for contentType
func (e *Engine) RegisterCodec(contentType string, c codec.Codec) error {
	if e.running.Load() {
		return ErrEngineRunning
	}
	e.codecs.Register(contentType, c)
	return nil
}

// Routes returns the route table
func (e *Engine) Routes() *router.Table {
	return e.routes
}

// Stats returns the per-route request statistics. Routes are keyed by
// verb and pattern, e.g. "GET staticUrl/:file". A request is recorded once
// the after hooks ran and counts as failed if its final status is 5xx.
func (e *Engine) Stats() *observability.Monitor {
	return e.stats
}

// Addr returns the listener address, or nil before serving
func (e *Engine) Addr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ln == nil {
		return nil
	}
	return e.ln.Addr()
}

// Serve accepts connections on ln until Close is called. Each connection
// is handled start to finish by its own goroutine.
func (e *Engine) Serve(ln net.Listener) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrEngineRunning
	}

	e.mu.Lock()
	e.ln = ln
	e.mu.Unlock()

	select {
	case <-e.done:
		// Close raced ahead of Serve
		ln.Close()
		return nil
	default:
	}

	e.logger.Info("listening",
		zap.Stringer("addr", ln.Addr()),
		zap.Int("routes", e.routes.Len()),
		zap.Int("middlewares", e.middlewares.Len()),
	)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if e.isClosed() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				e.logger.Warn("accept", zap.Error(err))
				continue
			}
			return err
		}

		e.conns.Add(1)
		go func() {
			defer e.conns.Done()
			e.serveConn(conn)
		}()
	}
}

// Run listens on addr and serves until ctx is cancelled or Close is
// called, then waits for in-flight connections.
func (e *Engine) Run(ctx context.Context, addr string) error {
	if e.running.Load() {
		return ErrEngineRunning
	}

	lc := net.ListenConfig{Control: control}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	e.baseCtx = ctx

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.Serve(ln)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-e.done:
		}
		return e.Close()
	})

	err = g.Wait()
	e.conns.Wait()
	return err
}

// Close stops the accept loop. Connections already accepted finish.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.done)

		e.mu.Lock()
		ln := e.ln
		e.mu.Unlock()

		if ln != nil {
			if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
				err = cerr
			}
		}
		e.logger.Info("closed")
	})
	return err
}

func (e *Engine) isClosed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}
