package xapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	twitterscraper "github.com/lueurxax/twitter-scraper"

	"github.com/lueurxax/courtside/internal/common"
	"github.com/lueurxax/courtside/internal/log"
)

const (
	tooManyRequests = "429 Too Many Requests"
	notFound        = "not found"
	userIDTTL       = time.Hour * 24
	accountKey      = "account"
	queryKey        = "query"
)

// Client is the authenticated upstream capability the poller and the search
// endpoint consume. Failures carry structured status codes, see StatusError.
type Client interface {
	ResolveUserID(ctx context.Context, name string) (string, error)
	RecentTweets(ctx context.Context, account string, limit int) ([]common.Record, error)
	Search(ctx context.Context, query string, limit int) ([]common.Record, error)
}

type client struct {
	scraper *twitterscraper.Scraper
	userIDs *cache.Cache[string]

	log log.Logger
}

func (c *client) ResolveUserID(ctx context.Context, name string) (string, error) {
	if id, err := c.userIDs.Get(ctx, name); err == nil {
		return id, nil
	}

	profile, err := c.scraper.GetProfile(ctx, name)
	if err != nil {
		return "", convertError(err)
	}

	if err = c.userIDs.Set(ctx, name, profile.UserID, store.WithCost(1), store.WithExpiration(userIDTTL)); err != nil {
		c.log.WithError(err).WithField(accountKey, name).Warn("cache user id")
	}

	return profile.UserID, nil
}

func (c *client) RecentTweets(ctx context.Context, account string, limit int) ([]common.Record, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Resolution validates the account and primes the cache before the
	// timeline query; unknown accounts fail here with ErrNotFound.
	if _, err := c.ResolveUserID(ctx, account); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("from:%s -filter:retweets -filter:replies", account)

	c.log.WithField(accountKey, account).Debug("fetching recent tweets")

	return c.collect(c.scraper.SearchTweets(ctx, query, limit), account, limit)
}

func (c *client) Search(ctx context.Context, query string, limit int) ([]common.Record, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.log.WithField(queryKey, query).Debug("searching")

	return c.collect(c.scraper.SearchTweets(ctx, query, limit), "", limit)
}

// collect drains a scraper result channel into Records. The account stamp
// comes from the caller, never from the upstream payload.
func (c *client) collect(tweetsCh <-chan *twitterscraper.TweetResult, account string, limit int) ([]common.Record, error) {
	records := make([]common.Record, 0, limit)

	for tweet := range tweetsCh {
		if tweet.Error != nil {
			return nil, convertError(tweet.Error)
		}

		if tweet.IsRetweet || tweet.IsReply {
			continue
		}

		stamp := account
		if stamp == "" {
			stamp = tweet.Username
		}

		records = append(records, common.Record{
			ID:        tweet.ID,
			Text:      tweet.Text,
			CreatedAt: tweet.TimeParsed,
			Account:   stamp,
		})

		if len(records) >= limit {
			break
		}
	}

	return records, nil
}

// convertError maps scraper failures to the structured error taxonomy. The
// scraper reports throttling as a bare "429 Too Many Requests" string.
func convertError(err error) error {
	msg := err.Error()

	if strings.Contains(msg, tooManyRequests) {
		return &StatusError{Code: http.StatusTooManyRequests, Message: msg}
	}

	if strings.Contains(msg, notFound) {
		return ErrNotFound
	}

	return &StatusError{Code: http.StatusBadGateway, Message: msg}
}

func NewClient(scraper *twitterscraper.Scraper, userIDs *cache.Cache[string], logger log.Logger) Client {
	return &client{scraper: scraper, userIDs: userIDs, log: logger}
}
