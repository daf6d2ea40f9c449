package redisclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"videorank/internal/model"

	"github.com/redis/go-redis/v9"
)

// Classify marks connection-class failures with model.ErrBackendUnavailable.
// The original error stays in the chain; everything else is returned as is.
func Classify(err error) error {
	if err == nil || errors.Is(err, model.ErrBackendUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%w: %w", model.ErrBackendUnavailable, err)
	}
	return err
}
