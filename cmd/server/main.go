package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	ristrettoStore "github.com/eko/gocache/store/ristretto/v4"
	"github.com/kelseyhightower/envconfig"
	twitterscraper "github.com/lueurxax/twitter-scraper"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.elastic.co/ecslogrus"

	"github.com/lueurxax/courtside/internal/api"
	"github.com/lueurxax/courtside/internal/broadcaster"
	"github.com/lueurxax/courtside/internal/fetcher"
	"github.com/lueurxax/courtside/internal/log"
	"github.com/lueurxax/courtside/internal/poller"
	"github.com/lueurxax/courtside/internal/scheduler"
	"github.com/lueurxax/courtside/internal/scheduler/metrics"
	"github.com/lueurxax/courtside/internal/store"
	"github.com/lueurxax/courtside/internal/xapi"
)

var version = "dev"

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

func main() {
	printVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *printVersion {
		fmt.Println(version)
		return
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

	pollerCfg := poller.GetConfig()
	p := poller.New(client, retrier, pollerCfg, logger.WithField(pkgKey, "poller"))

	hub := broadcaster.NewHub(logger.WithField(pkgKey, "broadcaster"))

	registry := prometheus.NewRegistry()
	mon := metrics.NewMetrics(registry, st, logger.WithField(pkgKey, "metrics"))

	go mon.Start(ctx)

	schedCfg := scheduler.GetConfig()

	schedLogger := logger.WithField(pkgKey, "scheduler")
	sched := scheduler.NewWithOptions(p, st, hub, pollerCfg.Accounts, schedCfg, nil, mon, schedLogger)

	if schedCfg.RedisURL != "" {
		opts, err := redis.ParseURL(schedCfg.RedisURL)
		if err != nil {
			panic(err)
		}

		lease := scheduler.NewLease(redis.NewClient(opts), schedCfg.Interval)
		sched = scheduler.NewWithOptions(p, st, hub, pollerCfg.Accounts, schedCfg, lease, mon, schedLogger)
	}
	if err = sched.Start(ctx); err != nil {
		panic(err)
	}

	srv := api.New(st, p, hub, client, registry, api.GetConfig(), logger.WithField(pkgKey, "api"))

	logger.Info("service started")

	if err = srv.Run(ctx); err != nil {
		panic(err)
	}
}
