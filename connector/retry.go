package connector

import (
	"context"
	"time"
)

func connectWithRetry(ctx context.Context, cfg RetryConfig, connect func(context.Context) (Connection, error)) (Connection, error) {
	delay := cfg.BaseDelay
	if delay == 0 {
		delay = time.Second
	}
	attempts := cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		var conn Connection
		conn, err = connect(ctx)
		if err == nil {
			return conn, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay *= 2
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}
	return nil, err
}
