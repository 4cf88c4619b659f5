/**
 * @description
 * This file implements the earnings aggregator: it combines the balance and
 * earnings endpoints into a single view model and derives withdrawal
 * eligibility. Fetch failures propagate to the caller so the app renders an
 * explicit error state; money fields are never zero-filled on failure.
 */
package app

import (
	"context"
	"fmt"

	"github.com/my-edutu/monetization-service/internal/domain"
)

// EarningsOverview fetches the earnings summary and the authoritative
// withdrawal balance and merges them. TrustScore and ValidatorTier pass
// through untouched; nothing here gates a write action on them.
func (s *Service) EarningsOverview(ctx context.Context, token string) (*domain.EarningsOverview, error) {
	earnings, err := s.platform.GetEarningsSummary(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch earnings summary: %w", err)
	}

	balance, err := s.platform.GetBalanceSummary(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balance summary: %w", err)
	}

	return &domain.EarningsOverview{
		Balance:       *balance,
		TotalEarned:   earnings.TotalEarned,
		TrustScore:    earnings.TrustScore,
		ValidatorTier: earnings.ValidatorTier,
		CanWithdraw:   balance.AvailableBalance.GreaterThanOrEqual(domain.MinimumWithdrawal),
	}, nil
}

// WithdrawalHistory lists past withdrawal records.
func (s *Service) WithdrawalHistory(ctx context.Context, token string, limit int) ([]domain.WithdrawalRecord, error) {
	return s.platform.GetWithdrawalHistory(ctx, token, limit)
}

// Balance fetches the current withdrawal balance without touching any
// session state.
func (s *Service) Balance(ctx context.Context, token string) (*domain.BalanceSummary, error) {
	return s.platform.GetBalanceSummary(ctx, token)
}
