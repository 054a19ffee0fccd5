package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	ristrettoStore "github.com/eko/gocache/store/ristretto/v4"
	"github.com/kelseyhightower/envconfig"
	twitterscraper "github.com/lueurxax/twitter-scraper"
	"github.com/sirupsen/logrus"
	"go.elastic.co/ecslogrus"

	"github.com/lueurxax/courtside/internal/fetcher"
	"github.com/lueurxax/courtside/internal/log"
	"github.com/lueurxax/courtside/internal/poller"
	"github.com/lueurxax/courtside/internal/store"
	"github.com/lueurxax/courtside/internal/xapi"
)

const (
	pkgKey = "pkg"

	cacheNumCounters = 10000
	cacheMaxCost     = 1000
	cacheBufferItems = 64
)

type config struct {
	LoggerLevel logrus.Level `envconfig:"LOG_LEVEL" default:"info"`
	LogToEcs    bool         `envconfig:"LOG_TO_ECS" default:"false"`
	DatabaseURL string       `envconfig:"DATABASE_URL" default:"courtside.db"`
}

// One-shot backfill: fetch a single account's recent tweets and store them,
// without starting the server or the poll loop.
func main() {
	account := flag.String("account", "", "account name to fetch")
	flag.Parse()

	if *account == "" {
		panic("account flag is required")
	}

	// init main config
	cfg := new(config)
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}

	// init logger
	logrusLogger := logrus.New()
	logrusLogger.SetLevel(cfg.LoggerLevel)
	logrusLogger.SetFormatter(&nested.Formatter{
		FieldsOrder:     []string{pkgKey},
		TimestampFormat: "01-02|15:04:05",
	})

	if cfg.LogToEcs {
		logrusLogger.SetFormatter(&ecslogrus.Formatter{})
	}

	logger := log.NewLogger(logrusLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DatabaseURL, logger.WithField(pkgKey, "store"))
	if err != nil {
		panic(err)
	}

	st := store.New(db, logger.WithField(pkgKey, "store"))
	if err = st.Migrate(ctx); err != nil {
		panic(err)
	}

	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		panic(err)
	}

	userIDs := cache.New[string](ristrettoStore.NewRistretto(ristrettoCache))

	scraper := twitterscraper.New()
	if err = xapi.Auth(ctx, scraper, xapi.GetConfig(), logger.WithField(pkgKey, "xapi")); err != nil {
		panic(err)
	}

	client := xapi.NewClient(scraper, userIDs, logger.WithField(pkgKey, "xapi"))
	retrier := fetcher.New(fetcher.GetConfig(), logger.WithField(pkgKey, "fetcher"))
	p := poller.New(client, retrier, poller.GetConfig(), logger.WithField(pkgKey, "poller"))

	records, err := p.FetchAccount(ctx, *account)
	if err != nil {
		panic(err)
	}

	inserted, err := st.UpsertBatch(ctx, records)
	if err != nil {
		panic(err)
	}

	logger.
		WithField("account", *account).
		WithField("fetched", len(records)).
		WithField("inserted", inserted).
		Info("account fetched")
}
