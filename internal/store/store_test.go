package store

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lueurxax/courtside/internal/common"
	"github.com/lueurxax/courtside/internal/log"
)

func newTestStore(t *testing.T) Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	st := New(db, log.NewLogger(logrus.New()))
	require.NoError(t, st.Migrate(context.Background()))

	return st
}

func record(id, account string, createdAt time.Time) common.Record {
	return common.Record{ID: id, Text: "text " + id, CreatedAt: createdAt, Account: account}
}

func TestUpsertBatch(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("inserts new records", func(t *testing.T) {
		st := newTestStore(t)

		inserted, err := st.UpsertBatch(ctx, []common.Record{
			record("1", "NBA", now),
			record("2", "NBA", now.Add(time.Minute)),
		})
		require.NoError(t, err)
		assert.EqualValues(t, 2, inserted)
	})

	t.Run("conflicting ids are skipped and never overwritten", func(t *testing.T) {
		st := newTestStore(t)

		_, err := st.UpsertBatch(ctx, []common.Record{record("1", "NBA", now)})
		require.NoError(t, err)

		// same id re-fetched with different content, e.g. an overlapping poll window
		inserted, err := st.UpsertBatch(ctx, []common.Record{
			{ID: "1", Text: "mutated", CreatedAt: now.Add(time.Hour), Account: "espn"},
			record("2", "espn", now.Add(time.Minute)),
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, inserted)

		records, err := st.QueryRecent(ctx, now.Add(-time.Hour))
		require.NoError(t, err)
		require.Len(t, records, 2)

		byID := map[string]common.Record{}
		for _, r := range records {
			byID[r.ID] = r
		}

		assert.Equal(t, "text 1", byID["1"].Text)
		assert.Equal(t, "NBA", byID["1"].Account)
		assert.True(t, byID["1"].CreatedAt.Equal(now))
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		st := newTestStore(t)

		inserted, err := st.UpsertBatch(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, inserted)
	})

	t.Run("migrate twice is idempotent", func(t *testing.T) {
		st := newTestStore(t)
		require.NoError(t, st.Migrate(ctx))
	})
}

func TestQueryRecent(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	st := newTestStore(t)

	_, err := st.UpsertBatch(ctx, []common.Record{
		record("old", "NBA", now.Add(-time.Hour*25)),
		record("boundary", "NBA", now.Add(-time.Hour*24)),
		record("mid", "espn", now.Add(-time.Hour)),
		record("fresh", "NBA", now),
	})
	require.NoError(t, err)

	since := now.Add(-time.Hour * 24)

	records, err := st.QueryRecent(ctx, since)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// newest first, nothing at or before the cutoff
	assert.Equal(t, "fresh", records[0].ID)
	assert.Equal(t, "mid", records[1].ID)

	for _, r := range records {
		assert.True(t, r.CreatedAt.After(since))
	}
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	count, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = st.UpsertBatch(ctx, []common.Record{record("1", "NBA", time.Now().UTC())})
	require.NoError(t, err)

	count, err = st.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
