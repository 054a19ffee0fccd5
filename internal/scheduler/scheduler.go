package scheduler

import (
	"context"
	"time"

	"github.com/lueurxax/courtside/internal/common"
	"github.com/lueurxax/courtside/internal/log"
	pollerPkg "github.com/lueurxax/courtside/internal/poller"
)

const (
	accountKey = "account"
	countKey   = "count"
)

// Scheduler drives the poll cycle: fetch all accounts, persist each account's
// batch, broadcast it. One cycle at a time; a tick arriving mid-cycle waits.
type Scheduler interface {
	Start(ctx context.Context) error
	RunCycle(ctx context.Context)
}

type poller interface {
	FetchAll(ctx context.Context, accounts []string) []pollerPkg.Result
}

type repo interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	UpsertBatch(ctx context.Context, records []common.Record) (int64, error)
}

type hub interface {
	Broadcast(records []common.Record)
}

type cycleLease interface {
	Acquire(ctx context.Context) (bool, error)
}

type monitor interface {
	CycleStarted()
	AccountFailed(account string)
	BatchStored(account string, inserted int64)
}

type scheduler struct {
	poller
	repo
	hub

	accounts []string
	interval time.Duration
	lease    cycleLease
	monitor  monitor

	log log.Logger
}

// Start verifies storage, ensures the schema, runs one cycle immediately and
// then re-runs on the interval until ctx is cancelled. Storage being
// unreachable here is the one fatal startup failure.
func (s *scheduler) Start(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return err
	}

	if err := s.repo.Migrate(ctx); err != nil {
		return err
	}

	go s.loop(ctx)

	return nil
}

// loop is the single worker driving polling; running cycles inline here is
// what serializes them.
func (s *scheduler) loop(ctx context.Context) {
	s.RunCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

func (s *scheduler) RunCycle(ctx context.Context) {
	if s.lease != nil {
		ok, err := s.lease.Acquire(ctx)
		if err != nil {
			s.log.WithError(err).Error("poll lease")
			return
		}

		if !ok {
			s.log.Debug("poll lease held elsewhere, skipping cycle")
			return
		}
	}

	s.monitor.CycleStarted()
	s.log.Debug("poll cycle started")

	for _, result := range s.poller.FetchAll(ctx, s.accounts) {
		if result.Err != nil {
			s.monitor.AccountFailed(result.Account)
			continue
		}

		if len(result.Records) == 0 {
			continue
		}

		inserted, err := s.repo.UpsertBatch(ctx, result.Records)
		if err != nil {
			s.log.WithError(err).WithField(accountKey, result.Account).Error("store batch")
			s.monitor.AccountFailed(result.Account)

			continue
		}

		s.hub.Broadcast(result.Records)
		s.monitor.BatchStored(result.Account, inserted)

		s.log.
			WithField(accountKey, result.Account).
			WithField(countKey, len(result.Records)).
			Info("poll cycle stored and broadcast batch")
	}
}

type nopMonitor struct{}

func (nopMonitor) CycleStarted()             {}
func (nopMonitor) AccountFailed(string)      {}
func (nopMonitor) BatchStored(string, int64) {}

func New(p poller, r repo, h hub, accounts []string, cfg Config, logger log.Logger) Scheduler {
	return NewWithOptions(p, r, h, accounts, cfg, nil, nil, logger)
}

func NewWithOptions(
	p poller,
	r repo,
	h hub,
	accounts []string,
	cfg Config,
	lease cycleLease,
	mon monitor,
	logger log.Logger,
) Scheduler {
	if mon == nil {
		mon = nopMonitor{}
	}

	return &scheduler{
		poller:   p,
		repo:     r,
		hub:      h,
		accounts: accounts,
		interval: cfg.Interval,
		lease:    lease,
		monitor:  mon,
		log:      logger,
	}
}
