/**
 * @description
 * This file defines the read-mostly list models served straight from the
 * managed data store: a contributor's own pending clips and their earnings
 * transaction history. Both lists are keyset-paginated and read-only.
 */
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingClip is a clip the contributor recorded that has not yet passed
// validation consensus.
type PendingClip struct {
	ID         string    `json:"id"`
	Sentence   string    `json:"sentence"`
	Language   string    `json:"language"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TransactionEntry is one row of the contributor's earnings ledger.
type TransactionEntry struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"` // e.g. 'reward', 'withdrawal', 'top_up'
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Page wraps a list slice with the cursor for the next page. An empty
// NextCursor means the listing is exhausted.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}
