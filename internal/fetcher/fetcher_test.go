package fetcher

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/courtside/internal/common"
	"github.com/lueurxax/courtside/internal/log"
	"github.com/lueurxax/courtside/internal/xapi"
)

func testFetcher(maxAttempts int) Fetcher {
	return New(Config{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		CapDelay:    time.Millisecond * 10,
	}, log.NewLogger(logrus.New()))
}

func rateLimited() error {
	return &xapi.StatusError{Code: http.StatusTooManyRequests, Message: "429 Too Many Requests"}
}

func TestDo(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		calls := 0
		records, err := testFetcher(3).Do(context.Background(), "NBA", func(context.Context) ([]common.Record, error) {
			calls++
			return []common.Record{{ID: "1"}}, nil
		})
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Equal(t, 1, calls)
	})

	t.Run("rate limit clears after attempt 2 of 3", func(t *testing.T) {
		calls := 0
		records, err := testFetcher(3).Do(context.Background(), "NBA", func(context.Context) ([]common.Record, error) {
			calls++
			if calls < 2 {
				return nil, rateLimited()
			}
			return []common.Record{{ID: "1"}, {ID: "2"}}, nil
		})
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, 2, calls)
	})

	t.Run("exhausts after exactly max attempts", func(t *testing.T) {
		calls := 0
		_, err := testFetcher(3).Do(context.Background(), "NBA", func(context.Context) ([]common.Record, error) {
			calls++
			return nil, rateLimited()
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)

		var exhausted *ExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, "NBA", exhausted.Op)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.True(t, xapi.IsRateLimit(exhausted.Err))
	})

	t.Run("non rate limit failure is not retried", func(t *testing.T) {
		calls := 0
		wantErr := &xapi.StatusError{Code: http.StatusBadGateway, Message: "boom"}
		_, err := testFetcher(5).Do(context.Background(), "NBA", func(context.Context) ([]common.Record, error) {
			calls++
			return nil, wantErr
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)

		var exhausted *ExhaustedError
		assert.False(t, errors.As(err, &exhausted))
	})

	t.Run("not found is not retried", func(t *testing.T) {
		calls := 0
		_, err := testFetcher(5).Do(context.Background(), "nosuchaccount", func(context.Context) ([]common.Record, error) {
			calls++
			return nil, xapi.ErrNotFound
		})
		require.ErrorIs(t, err, xapi.ErrNotFound)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops the backoff wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		f := New(Config{MaxAttempts: 3, BaseDelay: time.Minute, CapDelay: time.Minute}, log.NewLogger(logrus.New()))

		go func() {
			time.Sleep(time.Millisecond * 10)
			cancel()
		}()

		_, err := f.Do(ctx, "NBA", func(context.Context) ([]common.Record, error) {
			return nil, rateLimited()
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestBackoff(t *testing.T) {
	f := &fetcher{baseDelay: time.Second, capDelay: time.Minute, log: log.NewLogger(logrus.New())}

	assert.Equal(t, time.Second, f.backoff(0, 0))
	assert.Equal(t, time.Second*2, f.backoff(1, 0))
	assert.Equal(t, time.Second*32, f.backoff(5, 0))
	// capped
	assert.Equal(t, time.Minute, f.backoff(10, 0))
	// very large attempt indexes must not overflow below the cap
	assert.Equal(t, time.Minute, f.backoff(62, 0))
	// upstream reset hint wins when longer, still capped
	assert.Equal(t, time.Second*30, f.backoff(0, time.Second*30))
	assert.Equal(t, time.Minute, f.backoff(0, time.Hour))
}
