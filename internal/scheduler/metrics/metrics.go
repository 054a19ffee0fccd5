package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lueurxax/courtside/internal/log"
)

const (
	reportInterval = time.Second * 10
	countLabel     = "count"
)

type repo interface {
	Count(ctx context.Context) (int64, error)
}

// Metrics reports poll-cycle counters and a gauge of the stored tweet count.
type Metrics interface {
	Start(ctx context.Context)
	CycleStarted()
	AccountFailed(account string)
	BatchStored(account string, inserted int64)
}

type metrics struct {
	repo

	storedTweets   prometheus.Gauge
	cycles         prometheus.Counter
	insertedTweets *prometheus.CounterVec
	accountErrors  *prometheus.CounterVec

	log log.Logger
}

func (m *metrics) Start(ctx context.Context) {
	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := m.repo.Count(ctx)
			if err != nil {
				m.log.WithError(err).Error(countLabel)

				continue
			}

			m.storedTweets.Set(float64(count))
		}
	}
}

func (m *metrics) CycleStarted() {
	m.cycles.Inc()
}

func (m *metrics) AccountFailed(account string) {
	m.accountErrors.WithLabelValues(account).Inc()
}

func (m *metrics) BatchStored(account string, inserted int64) {
	m.insertedTweets.WithLabelValues(account).Add(float64(inserted))
}

func NewMetrics(registerer prometheus.Registerer, r repo, logger log.Logger) Metrics {
	m := &metrics{
		repo: r,
		storedTweets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "courtside_stored_tweets",
			Help: "Number of tweets currently stored.",
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courtside_poll_cycles_total",
			Help: "Number of poll cycles started.",
		}),
		insertedTweets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courtside_inserted_tweets_total",
			Help: "Number of newly inserted tweets per account.",
		}, []string{"account"}),
		accountErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courtside_account_errors_total",
			Help: "Number of failed account fetch/store steps per account.",
		}, []string{"account"}),
		log: logger,
	}

	registerer.MustRegister(m.storedTweets, m.cycles, m.insertedTweets, m.accountErrors)

	return m
}
