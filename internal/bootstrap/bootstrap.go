// Package bootstrap runs a long-lived process until it fails or is asked to stop.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook is called once during shutdown with a context bounded by the shutdown timeout.
type Hook func(ctx context.Context) error

// App owns the shutdown sequence of a process.
type App struct {
	shutdownTimeout time.Duration
	signals         []os.Signal

	mu    sync.Mutex
	hooks []Hook
}

// New creates an App that stops on SIGINT or SIGTERM and gives hooks up to shutdownTimeout.
func New(shutdownTimeout time.Duration) *App {
	return &App{
		shutdownTimeout: shutdownTimeout,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
}

// AddShutdownHook registers fn. Hooks run in reverse registration order.
func (a *App) AddShutdownHook(fn Hook) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, fn)
}

// Run executes run until it returns or a stop signal arrives.
// The hooks run on both paths; their errors are joined with the error of run, if any.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, a.signals...)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	select {
	case <-ctx.Done():
		slog.Default().Info("shutting down", "timeout", a.shutdownTimeout)
		return a.shutdown()
	case err := <-errCh:
		if err != nil {
			slog.Default().Error("run failed, shutting down", "error", err)
		}
		return errors.Join(err, a.shutdown())
	}
}

func (a *App) shutdown() error {
	ctx := context.Background()
	if a.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.shutdownTimeout)
		defer cancel()
	}

	a.mu.Lock()
	hooks := make([]Hook, len(a.hooks))
	copy(hooks, a.hooks)
	a.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
