package app

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/searchktools/webserver/config"
	"github.com/searchktools/webserver/core"
)

// App ties a configuration, a logger and an engine together
type App struct {
	cfg    *config.Config
	engine *core.Engine
	logger *zap.Logger
}

// New creates an application instance. The engine is configured from cfg;
// opts are applied after, so they win.
func New(cfg *config.Config, logger *zap.Logger, opts ...core.Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := []core.Option{
		core.WithLogger(logger),
		core.WithReadTimeout(cfg.ReadTimeout),
		core.WithWriteTimeout(cfg.WriteTimeout),
		core.WithMaxHeaderBytes(cfg.MaxHeaderBytes),
		core.WithMaxBodyBytes(cfg.MaxBodyBytes),
	}

	return &App{
		cfg:    cfg,
		engine: core.NewEngine(append(base, opts...)...),
		logger: logger,
	}
}

// Engine returns the underlying engine for route registration
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Run serves until ctx is cancelled or the process gets SIGINT or SIGTERM
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting server",
		zap.Int("port", a.cfg.Port),
		zap.String("env", a.cfg.Env),
	)

	err := a.engine.Run(ctx, a.cfg.Addr())
	if err != nil {
		a.logger.Error("server stopped", zap.Error(err))
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

// NewLogger builds a production logger for the production environment and
// a development logger otherwise, at cfg.LogLevel.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
