package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const leaseKey = "courtside:poll-lease"

type redisSetter interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Lease gates a poll cycle when several instances share one store: only the
// holder of the redis key polls upstream for the current interval.
type Lease struct {
	client redisSetter
	holder string
	ttl    time.Duration
}

func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, leaseKey, l.holder, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire poll lease: %w", err)
	}

	return ok, nil
}

func NewLease(client redisSetter, ttl time.Duration) *Lease {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "courtside"
	}

	return &Lease{
		client: client,
		holder: fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		ttl:    ttl,
	}
}
