package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/lueurxax/courtside/internal/common"
	"github.com/lueurxax/courtside/internal/log"
	"github.com/lueurxax/courtside/internal/xapi"
)

const (
	attemptKey = "attempt"
	delayKey   = "delay"
	opKey      = "op"
)

// Operation performs one upstream request.
type Operation func(ctx context.Context) ([]common.Record, error)

// Fetcher runs an Operation with bounded exponential backoff on rate-limit
// failures. Any other failure propagates immediately.
type Fetcher interface {
	Do(ctx context.Context, op string, operation Operation) ([]common.Record, error)
}

type fetcher struct {
	maxAttempts int
	baseDelay   time.Duration
	capDelay    time.Duration

	log log.Logger
}

func (f *fetcher) Do(ctx context.Context, op string, operation Operation) ([]common.Record, error) {
	var lastErr error

	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		records, err := operation(ctx)
		if err == nil {
			return records, nil
		}

		var statusErr *xapi.StatusError
		if !errors.As(err, &statusErr) || !statusErr.RateLimited() {
			return nil, err
		}

		lastErr = err

		if attempt == f.maxAttempts-1 {
			break
		}

		delay := f.backoff(attempt, statusErr.RetryAfter)

		f.log.
			WithField(opKey, op).
			WithField(attemptKey, attempt+1).
			WithField(delayKey, delay).
			Warn("rate limited, backing off")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, &ExhaustedError{Op: op, Attempts: f.maxAttempts, Err: lastErr}
}

// backoff doubles the base delay per attempt up to the cap; a reset hint from
// the upstream wins when it is longer.
func (f *fetcher) backoff(attempt int, retryAfter time.Duration) time.Duration {
	delay := f.baseDelay << attempt
	if delay > f.capDelay || delay <= 0 {
		delay = f.capDelay
	}

	if retryAfter > delay {
		if retryAfter > f.capDelay {
			return f.capDelay
		}

		return retryAfter
	}

	return delay
}

func New(cfg Config, logger log.Logger) Fetcher {
	return &fetcher{
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		capDelay:    cfg.CapDelay,
		log:         logger,
	}
}
