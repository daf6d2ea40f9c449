package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Refresher recomputes the hot index. *ranking.Engine implements it.
type Refresher interface {
	RefreshHotness(ctx context.Context) (int, error)
}

// DecayRefresher periodically rewrites hot scores so that videos without new
// votes keep sinking as they age.
type DecayRefresher struct {
	Engine   Refresher
	Interval time.Duration
	Clock    clockwork.Clock
}

func (w *DecayRefresher) Name() string { return "decay-refresher" }

func (w *DecayRefresher) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 15 * time.Minute
	}
	if w.Clock == nil {
		w.Clock = clockwork.NewRealClock()
	}

	// initial run
	w.runOnce(ctx)

	t := w.Clock.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.Chan():
			w.runOnce(ctx)
		}
	}
}

func (w *DecayRefresher) runOnce(ctx context.Context) {
	start := w.Clock.Now()
	n, err := w.Engine.RefreshHotness(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("decay-refresher: refresh error", "refreshed", n, "error", err)
		}
		return
	}
	slog.Info("decay-refresher: completed", "refreshed", n, "took", w.Clock.Since(start))
}
