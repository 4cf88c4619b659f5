/**
 * @description
 * This file defines the `Repository` interface for the read-mostly lists the
 * orchestrator serves straight from the managed data store: a contributor's
 * pending clips and their earnings transaction history. Defining an
 * interface decouples the orchestration logic from PostgreSQL and keeps the
 * lists fakeable in tests.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: For the list models.
 */

package store

import (
	"context"

	"github.com/my-edutu/monetization-service/internal/domain"
)

// Repository defines the paginated read operations against the data store.
// Both listings are keyset-paginated with an opaque cursor; an empty cursor
// starts from the newest row.
type Repository interface {
	ListPendingClips(ctx context.Context, userID string, limit int, cursor string) (*domain.Page[domain.PendingClip], error)
	ListTransactions(ctx context.Context, userID string, limit int, cursor string) (*domain.Page[domain.TransactionEntry], error)
}
