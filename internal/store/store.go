package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lueurxax/courtside/internal/common"
	"github.com/lueurxax/courtside/internal/log"
)

const (
	batchSize    = 100
	insertedKey  = "inserted"
	maxIdleConns = 10
	maxOpenConns = 50
)

// Store owns the persisted tweet records.
type Store interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	UpsertBatch(ctx context.Context, records []common.Record) (int64, error)
	QueryRecent(ctx context.Context, since time.Time) ([]common.Record, error)
	Count(ctx context.Context) (int64, error)
}

type store struct {
	db *gorm.DB

	log log.Logger
}

func (s *store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&tweet{}); err != nil {
		return fmt.Errorf("migrate tweets table: %w", err)
	}

	return nil
}

func (s *store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// UpsertBatch commits the whole batch in one transaction. Records whose id
// already exists are skipped and never overwritten; the returned count is the
// number of rows actually inserted.
func (s *store) UpsertBatch(ctx context.Context, records []common.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([]tweet, len(records))
	for i, record := range records {
		rows[i] = recordToRow(record)
	}

	var inserted int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).CreateInBatches(rows, batchSize)
		if result.Error != nil {
			return result.Error
		}

		inserted = result.RowsAffected

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("upsert batch: %w", err)
	}

	s.log.WithField(insertedKey, inserted).Debug("stored batch")

	return inserted, nil
}

func (s *store) QueryRecent(ctx context.Context, since time.Time) ([]common.Record, error) {
	rows := make([]tweet, 0)

	err := s.db.WithContext(ctx).
		Where("created_at > ?", since).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}

	records := make([]common.Record, len(rows))
	for i, row := range rows {
		records[i] = rowToRecord(row)
	}

	return records, nil
}

func (s *store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&tweet{}).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// Open connects to postgres when databaseURL looks like a connection string,
// and falls back to a local sqlite file otherwise so the service can run
// without a configured database.
func Open(databaseURL string, logger log.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	if strings.HasPrefix(databaseURL, "postgres://") || strings.Contains(databaseURL, "host=") {
		dialector = postgres.Open(databaseURL)
	} else {
		logger.WithField("path", databaseURL).Warn("no postgres url configured, using sqlite")
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func New(db *gorm.DB, logger log.Logger) Store {
	return &store{db: db, log: logger}
}
