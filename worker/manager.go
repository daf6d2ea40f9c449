package worker

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Worker is a long-running loop that returns when ctx is cancelled.
type Worker interface {
	Name() string
	Start(ctx context.Context) error
}

// Manager starts and supervises a set of workers.
type Manager struct {
	workers []Worker
}

func NewManager(ws ...Worker) *Manager {
	return &Manager{workers: ws}
}

// Start runs every worker until ctx is cancelled. A worker failing early
// cancels the others; its error is returned once all have exited.
func (m *Manager) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range m.workers {
		g.Go(func() error {
			slog.Info("worker: starting", "worker", w.Name())
			err := w.Start(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("worker: exited with error", "worker", w.Name(), "error", err)
				return err
			}
			slog.Info("worker: stopped", "worker", w.Name())
			return nil
		})
	}
	return g.Wait()
}
