package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/vk/gmtrain/internal/config"
	"github.com/vk/gmtrain/internal/ctxlog"
	"github.com/vk/gmtrain/internal/hcl"
	"github.com/vk/gmtrain/internal/pipeline"
	"github.com/vk/gmtrain/internal/registry"
	"github.com/vk/gmtrain/internal/report"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	resolver   *config.Resolver
	pipeline   pipeline.Pipeline
	reporters  []report.Reporter
	httpServer *http.Server
	stage      atomic.Value
}

// Option customizes an App.
type Option func(*App)

// WithRegistry replaces the benchmark architecture registry.
func WithRegistry(r *registry.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithPipeline replaces the external trainer pipeline.
func WithPipeline(p pipeline.Pipeline) Option {
	return func(a *App) { a.pipeline = p }
}

// WithReporter adds a progress reporter next to the log reporter.
func WithReporter(r report.Reporter) Option {
	return func(a *App) { a.reporters = append(a.reporters, r) }
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and registry.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		ctx:       ctx,
		outW:      outW,
		logger:    logger,
		config:    cfg,
		resolver:  config.NewResolver(map[string]config.Loader{hcl.Extension: hcl.NewLoader()}),
		reporters: []report.Reporter{report.Log{}},
	}
	a.setStage("starting")
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = registry.Default()
	}

	// A mismatch between registered constructors is a programmer error.
	if err := a.registry.Validate(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.", "datasets", a.registry.Families())
	return a
}

// Stage names what the app is currently doing.
func (a *App) Stage() string {
	s, _ := a.stage.Load().(string)
	return s
}

func (a *App) setStage(s string) {
	a.stage.Store(s)
	a.logger.Debug("Stage changed.", "stage", s)
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
