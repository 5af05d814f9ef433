package serverapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"comics-graphql/internal/logging"
)

type releaser struct {
	component string
	release   func(context.Context) error
}

// cleanupStack releases components in the reverse of the order they were
// acquired, so the HTTP server stops before the store and the store before
// the database handle and telemetry exporters.
type cleanupStack struct {
	items []releaser
}

func (s *cleanupStack) push(component string, release func(context.Context) error) {
	s.items = append(s.items, releaser{component: component, release: release})
}

// run releases every component even when some fail, and returns the joined
// failures.
func (s *cleanupStack) run(ctx context.Context, logger *logging.Logger) error {
	var errs []error
	for i := len(s.items) - 1; i >= 0; i-- {
		item := s.items[i]
		started := time.Now()
		err := item.release(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", item.component, err))
		}
		if logger == nil {
			continue
		}
		if err != nil {
			logger.Warn("release failed",
				slog.String("component", item.component),
				slog.String("error", err.Error()),
			)
			continue
		}
		logger.Debug("released",
			slog.String("component", item.component),
			slog.Duration("took", time.Since(started)),
		)
	}
	s.items = nil
	return errors.Join(errs...)
}

// Shutdown drains the server and releases everything Init acquired. Only
// the first call does work; later calls return its result.
func (a *App) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a.shutdownOnce.Do(func() {
		a.stateMu.Lock()
		stack := a.cleanup
		a.cleanup = cleanupStack{}
		a.started = false
		a.initialized = false
		a.stateMu.Unlock()

		a.logger.Info("shutting down", slog.Int("components", len(stack.items)))
		a.shutdownErr = stack.run(ctx, a.logger)
	})

	return a.shutdownErr
}
