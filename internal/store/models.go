package store

import (
	"time"

	"github.com/lueurxax/courtside/internal/common"
)

type tweet struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Text      string    `gorm:"column:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index"`
	Account   string    `gorm:"column:account;not null"`
}

func (tweet) TableName() string {
	return "tweets"
}

func recordToRow(record common.Record) tweet {
	return tweet{
		ID:        record.ID,
		Text:      record.Text,
		CreatedAt: record.CreatedAt,
		Account:   record.Account,
	}
}

func rowToRecord(row tweet) common.Record {
	return common.Record{
		ID:        row.ID,
		Text:      row.Text,
		CreatedAt: row.CreatedAt,
		Account:   row.Account,
	}
}
