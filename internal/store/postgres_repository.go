/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. Both listings are ordered newest-first and keyset-paginated on
 * (created_at, id), with the cursor carried as an opaque base64 token so
 * clients cannot construct or reorder it.
 *
 * @dependencies
 * - context, encoding/base64, errors, fmt, strings, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the list models.
 */

package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/my-edutu/monetization-service/internal/domain"
)

var ErrInvalidCursor = errors.New("invalid pagination cursor")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// encodeCursor packs the keyset position into an opaque token.
func encodeCursor(createdAt time.Time, id string) string {
	raw := fmt.Sprintf("%s|%s", createdAt.UTC().Format(time.RFC3339Nano), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor unpacks an opaque cursor token.
func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", ErrInvalidCursor
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", ErrInvalidCursor
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", ErrInvalidCursor
	}
	return createdAt, parts[1], nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// ListPendingClips lists the contributor's clips that have not yet passed
// validation consensus, newest first.
func (r *PostgresRepository) ListPendingClips(ctx context.Context, userID string, limit int, cursor string) (*domain.Page[domain.PendingClip], error) {
	limit = clampLimit(limit)

	query := `
		SELECT id, sentence, language, status, recorded_at
		FROM clips
		WHERE user_id = $1 AND status = 'pending'
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2`
	args := []interface{}{userID, limit + 1}

	if cursor != "" {
		after, afterID, err := decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		query = `
			SELECT id, sentence, language, status, recorded_at
			FROM clips
			WHERE user_id = $1 AND status = 'pending'
			  AND (recorded_at, id) < ($2, $3)
			ORDER BY recorded_at DESC, id DESC
			LIMIT $4`
		args = []interface{}{userID, after, afterID, limit + 1}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending clips: %w", err)
	}
	defer rows.Close()

	var clips []domain.PendingClip
	for rows.Next() {
		var clip domain.PendingClip
		if err := rows.Scan(&clip.ID, &clip.Sentence, &clip.Language, &clip.Status, &clip.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending clip: %w", err)
		}
		clips = append(clips, clip)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := &domain.Page[domain.PendingClip]{Items: clips}
	if len(clips) > limit {
		page.Items = clips[:limit]
		last := page.Items[limit-1]
		page.NextCursor = encodeCursor(last.RecordedAt, last.ID)
	}
	return page, nil
}

// ListTransactions lists the contributor's earnings ledger, newest first.
func (r *PostgresRepository) ListTransactions(ctx context.Context, userID string, limit int, cursor string) (*domain.Page[domain.TransactionEntry], error) {
	limit = clampLimit(limit)

	query := `
		SELECT id, type, amount, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	args := []interface{}{userID, limit + 1}

	if cursor != "" {
		after, afterID, err := decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		query = `
			SELECT id, type, amount, description, created_at
			FROM transactions
			WHERE user_id = $1
			  AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`
		args = []interface{}{userID, after, afterID, limit + 1}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var entries []domain.TransactionEntry
	for rows.Next() {
		var entry domain.TransactionEntry
		if err := rows.Scan(&entry.ID, &entry.Type, &entry.Amount, &entry.Description, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := &domain.Page[domain.TransactionEntry]{Items: entries}
	if len(entries) > limit {
		page.Items = entries[:limit]
		last := page.Items[limit-1]
		page.NextCursor = encodeCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}
