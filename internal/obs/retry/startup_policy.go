package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// StartupPolicy covers infrastructure that may come up after us
// (Postgres during a rolling deploy). Delivery paths never retry; only
// process bootstrap does.
func StartupPolicy(name string, log *zap.Logger) Policy {
	return Policy{
		Name:     name,
		Attempts: 8,
		Backoff:  ExpoJitter{Base: 250 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("startup retry", zap.String("dep", name), zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("startup retries exhausted", zap.String("dep", name), zap.Error(err))
			}
		},
	}
}
