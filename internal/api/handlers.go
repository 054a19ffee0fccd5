package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lueurxax/courtside/internal/common"
	"github.com/lueurxax/courtside/internal/fetcher"
	"github.com/lueurxax/courtside/internal/xapi"
)

const accountKey = "account"

func (s *server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *server) handleTweets(c *gin.Context) {
	records, err := s.store.QueryRecent(c.Request.Context(), time.Now().Add(-snapshotWindow))
	if err != nil {
		s.log.WithError(err).Error("query recent")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})

		return
	}

	if records == nil {
		records = []common.Record{}
	}

	c.JSON(http.StatusOK, records)
}

// handleFetchAccount triggers an out-of-band fetch+store for one account and
// pushes the result to live subscribers, same path a poll cycle takes.
func (s *server) handleFetchAccount(c *gin.Context) {
	account := c.Param("account")
	ctx := c.Request.Context()

	records, err := s.poller.FetchAccount(ctx, account)
	if err != nil {
		s.log.WithError(err).WithField(accountKey, account).Error("fetch account")
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})

		return
	}

	if _, err = s.store.UpsertBatch(ctx, records); err != nil {
		s.log.WithError(err).WithField(accountKey, account).Error("store batch")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})

		return
	}

	if len(records) > 0 {
		s.hub.Broadcast(records)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("fetched %d tweets for %s", len(records), account),
	})
}

func (s *server) handleSearch(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	records, err := s.searcher.Search(c.Request.Context(), req.Query, searchLimit)
	if err != nil {
		s.log.WithError(err).Error("search tweets")
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

func statusFor(err error) int {
	var exhausted *fetcher.ExhaustedError
	if xapi.IsRateLimit(err) || errors.As(err, &exhausted) {
		return http.StatusTooManyRequests
	}

	if errors.Is(err, xapi.ErrNotFound) {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}
