package redisclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"videorank/internal/metrics"
	"videorank/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// BreakerSettings configures BreakerHook.
type BreakerSettings struct {
	Name        string
	MaxFailures uint32        // consecutive failures that open the breaker
	OpenTimeout time.Duration // time spent open before probing again
}

// BreakerHook fails commands fast with model.ErrBackendUnavailable while
// Redis keeps failing. Reply errors and redis.Nil count as successes: the
// server answered.
type BreakerHook struct {
	cb *gobreaker.CircuitBreaker
}

var _ redis.Hook = (*BreakerHook)(nil)

func NewBreakerHook(s BreakerSettings) *BreakerHook {
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	maxFailures := s.MaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis:" + s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: answered,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("redis: circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerStateChanges.WithLabelValues(to.String()).Inc()
			metrics.CircuitBreakerState.Set(stateValue(to))
		},
	})
	return &BreakerHook{cb: cb}
}

// answered reports whether err says nothing about Redis health: a reply was
// produced, or the caller gave up first. Caller deadlines are treated like
// cancellation; a stuck server still trips the breaker through the client's
// own read/dial timeouts, which surface as net errors.
func answered(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var rerr redis.Error
	return errors.As(err, &rerr)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// DialHook is a pass-through; dial failures surface through the commands that triggered them.
func (h *BreakerHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *BreakerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		_, err := h.cb.Execute(func() (interface{}, error) {
			return nil, next(ctx, cmd)
		})
		return h.translate(err)
	}
}

func (h *BreakerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		_, err := h.cb.Execute(func() (interface{}, error) {
			return nil, next(ctx, cmds)
		})
		return h.translate(err)
	}
}

func (h *BreakerHook) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", model.ErrBackendUnavailable, err)
	}
	return err
}

// State returns the current breaker state.
func (h *BreakerHook) State() gobreaker.State {
	return h.cb.State()
}

// Counts returns the breaker counters for the current generation.
func (h *BreakerHook) Counts() gobreaker.Counts {
	return h.cb.Counts()
}
