// Package app provides the small module-runner the daemon command composes
// its long-running pieces from (the daemon's accept loop, the config
// watcher). Each module runs for the lifetime of the process; the first one
// to fail cancels the rest.
package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Module is a long-running piece of the daemon process. Start blocks until
// ctx is cancelled or the module fails.
type Module interface {
	Start(context.Context) error
}

// ModuleFunc adapts a plain function to Module, the way http.HandlerFunc
// adapts a function to http.Handler.
type ModuleFunc func(context.Context) error

func (f ModuleFunc) Start(ctx context.Context) error { return f(ctx) }

type App struct {
	modules []Module
}

type Option func(*App)

func WithModules(ms ...Module) Option {
	return func(a *App) { a.modules = append(a.modules, ms...) }
}

func New(opts ...Option) *App {
	a := &App{}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run starts every module concurrently and blocks until ctx is cancelled or
// any module returns an error, in which case the remaining modules are
// cancelled via the shared context and Run returns that error.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range a.modules {
		m := m
		g.Go(func() error { return m.Start(gctx) })
	}
	return g.Wait()
}
