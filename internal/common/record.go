package common

import (
	"fmt"
	"time"
)

// Record is one normalized fetched tweet. ID is the upstream identifier and
// stays stable across re-fetches; everything else is immutable once stored.
type Record struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Account   string    `json:"account"`
}

func (r Record) String() string {
	return fmt.Sprintf(
		"Record{ID: %s, Account: %s, CreatedAt: %s}",
		r.ID, r.Account, r.CreatedAt.Format(time.RFC3339),
	)
}
