package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lueurxax/courtside/internal/broadcaster"
	"github.com/lueurxax/courtside/internal/common"
	"github.com/lueurxax/courtside/internal/log"
)

const (
	snapshotWindow  = time.Hour * 24
	searchLimit     = 50
	shutdownTimeout = time.Second * 5
)

type store interface {
	Ping(ctx context.Context) error
	UpsertBatch(ctx context.Context, records []common.Record) (int64, error)
	QueryRecent(ctx context.Context, since time.Time) ([]common.Record, error)
}

type poller interface {
	FetchAccount(ctx context.Context, name string) ([]common.Record, error)
}

type hub interface {
	Subscribe(ctx context.Context, conn broadcaster.Conn, snapshot []common.Record) *broadcaster.Subscriber
	Unsubscribe(sub *broadcaster.Subscriber)
	Broadcast(records []common.Record)
}

type searcher interface {
	Search(ctx context.Context, query string, limit int) ([]common.Record, error)
}

// Server is the HTTP surface: the REST endpoints, the live socket at the
// root, and the prometheus scrape target.
type Server interface {
	Run(ctx context.Context) error
	Router() *gin.Engine
}

type server struct {
	addr string

	store    store
	poller   poller
	hub      hub
	searcher searcher
	registry prometheus.Gatherer

	log log.Logger
}

func (s *server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleSocket)
	router.GET("/healthz", s.handleHealth)
	router.GET("/api/tweets", s.handleTweets)
	router.GET("/api/fetch-account/:account", s.handleFetchAccount)
	router.POST("/api/search-tweets", s.handleSearch)

	if s.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	return router
}

func (s *server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: time.Second * 10,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Error("server shutdown")
		}
	}()

	s.log.WithField("addr", s.addr).Info("listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func New(
	st store,
	p poller,
	h hub,
	se searcher,
	registry prometheus.Gatherer,
	cfg Config,
	logger log.Logger,
) Server {
	return &server{
		addr:     cfg.ListenAddr,
		store:    st,
		poller:   p,
		hub:      h,
		searcher: se,
		registry: registry,
		log:      logger,
	}
}
