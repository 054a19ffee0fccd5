package poller

import (
	"context"
	"time"

	"github.com/lueurxax/courtside/internal/common"
	"github.com/lueurxax/courtside/internal/fetcher"
	"github.com/lueurxax/courtside/internal/log"
)

//go:generate mockgen -source=poller.go -destination=mocks/mock_poller.go -package=mocks

const (
	accountKey = "account"
	countKey   = "count"
)

// Result is the outcome for one account within a FetchAll pass. Records and
// Err are mutually exclusive.
type Result struct {
	Account string
	Records []common.Record
	Err     error
}

type Poller interface {
	FetchAccount(ctx context.Context, name string) ([]common.Record, error)
	FetchAll(ctx context.Context, accounts []string) []Result
}

type api interface {
	RecentTweets(ctx context.Context, account string, limit int) ([]common.Record, error)
}

type retrier interface {
	Do(ctx context.Context, op string, operation fetcher.Operation) ([]common.Record, error)
}

type poller struct {
	api     api
	fetcher retrier

	limit        int
	accountDelay time.Duration

	log log.Logger
}

func (p *poller) FetchAccount(ctx context.Context, name string) ([]common.Record, error) {
	records, err := p.fetcher.Do(ctx, name, func(ctx context.Context) ([]common.Record, error) {
		return p.api.RecentTweets(ctx, name, p.limit)
	})
	if err != nil {
		return nil, err
	}

	// The account stamp always comes from the configured name, not from
	// whatever the upstream denormalized into the payload.
	for i := range records {
		records[i].Account = name
	}

	p.log.WithField(accountKey, name).WithField(countKey, len(records)).Debug("fetched account")

	return records, nil
}

// FetchAll walks the configured accounts in order. One account failing never
// aborts the rest, and the inter-account delay keeps the aggregate request
// rate under the upstream limit.
func (p *poller) FetchAll(ctx context.Context, accounts []string) []Result {
	results := make([]Result, 0, len(accounts))

	for i, name := range accounts {
		records, err := p.FetchAccount(ctx, name)
		if err != nil {
			p.log.WithError(err).WithField(accountKey, name).Error("fetch account")
		}

		results = append(results, Result{Account: name, Records: records, Err: err})

		if i == len(accounts)-1 {
			break
		}

		select {
		case <-ctx.Done():
			p.log.WithError(ctx.Err()).Warn("fetch all interrupted")
			return results
		case <-time.After(p.accountDelay):
		}
	}

	return results
}

func New(client api, f retrier, cfg Config, logger log.Logger) Poller {
	return &poller{
		api:          client,
		fetcher:      f,
		limit:        cfg.MaxTweets,
		accountDelay: cfg.AccountDelay,
		log:          logger,
	}
}
