/**
 * @description
 * This file implements the bank linking resolver. Automatic resolution
 * verifies a 10-digit account number against a selected bank through the
 * external registry; the manual fallback path submits unverified details
 * that await asynchronous human approval upstream.
 *
 * Key features:
 * - Precondition violations (no bank, malformed number) fail locally before
 *   any network call is issued.
 * - A resolve that yields an empty account name is a failure, never a
 *   partial success.
 * - Linking replaces any existing association; local linked state is only
 *   cleared after the server confirms an unlink.
 */
package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/my-edutu/monetization-service/internal/domain"
	"github.com/my-edutu/monetization-service/pkg/platformapi"
	"github.com/my-edutu/monetization-service/pkg/rabbitmq"
)

const accountNumberLength = 10

// validAccountNumber reports whether the input is exactly ten ASCII digits.
func validAccountNumber(accountNumber string) bool {
	if len(accountNumber) != accountNumberLength {
		return false
	}
	for _, r := range accountNumber {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Banks fetches the bank registry.
func (s *Service) Banks(ctx context.Context) ([]domain.Bank, error) {
	return s.platform.ListBanks(ctx)
}

// ResolveAccount verifies an account number against a bank code. The
// preconditions are checked locally and short-circuit without a network
// call when violated.
func (s *Service) ResolveAccount(ctx context.Context, token, userID, bankCode, accountNumber string) (*domain.BankResolveResult, error) {
	bankCode = strings.TrimSpace(bankCode)
	accountNumber = strings.TrimSpace(accountNumber)
	if bankCode == "" {
		return nil, ErrBankNotSelected
	}
	if !validAccountNumber(accountNumber) {
		return nil, ErrInvalidAccountNumber
	}

	if s.limiter != nil && s.resolveLimitPerMin > 0 {
		decision, err := s.limiter.ConsumeRateLimit(ctx, "bank_resolve", userID, s.resolveLimitPerMin, time.Minute)
		if err != nil {
			log.Printf("level=warn component=bank_resolver msg=\"rate limiter unavailable; allowing resolve\" user_id=%s err=%v", userID, err)
		} else if !decision.Allowed {
			log.Printf("level=warn component=bank_resolver outcome=throttled user_id=%s count=%d retry_after_s=%.0f", userID, decision.Count, decision.RetryAfter.Seconds())
			return nil, platformapi.ErrRateLimited
		}
	}

	result, err := s.platform.ResolveBank(ctx, token, domain.ResolveBankRequest{
		BankCode:      bankCode,
		AccountNumber: accountNumber,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.AccountName) == "" {
		// The registry answered but produced no holder name. Treat as a
		// verification failure rather than surfacing a nameless account.
		return nil, platformapi.ErrVerificationFailed
	}
	return result, nil
}

// LinkResolvedBank links a verified account as the payout destination,
// replacing any existing association.
func (s *Service) LinkResolvedBank(ctx context.Context, token, userID string, resolved domain.BankResolveResult) (*domain.LinkedBank, error) {
	linked, err := s.platform.LinkBank(ctx, token, domain.LinkBankRequest{
		BankCode:      resolved.BankCode,
		BankName:      resolved.BankName,
		AccountNumber: resolved.AccountNumber,
		AccountName:   resolved.AccountName,
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, "bank.linked", rabbitmq.BankLinkedEvent{
		UserID:      userID,
		BankName:    linked.BankName,
		AccountLast: linked.AccountNumberLast4,
		Manual:      false,
		Timestamp:   time.Now().UTC(),
	})
	return linked, nil
}

// LinkManualBank submits the manual fallback record. All three fields must
// be present before any network call; the result is flagged as pending
// asynchronous approval, never as immediately linked.
func (s *Service) LinkManualBank(ctx context.Context, token, userID string, req domain.ManualLinkRequest) (*domain.LinkedBank, error) {
	if strings.TrimSpace(req.BankName) == "" ||
		strings.TrimSpace(req.AccountName) == "" ||
		strings.TrimSpace(req.AccountNumber) == "" {
		return nil, ErrManualFieldsMissing
	}
	req.Manual = true

	linked, err := s.platform.LinkBank(ctx, token, req)
	if err != nil {
		return nil, fmt.Errorf("manual bank link failed: %w", err)
	}
	linked.PendingApproval = true
	s.publishEvent(ctx, "bank.manual_pending", rabbitmq.BankLinkedEvent{
		UserID:      userID,
		BankName:    linked.BankName,
		AccountLast: linked.AccountNumberLast4,
		Manual:      true,
		Timestamp:   time.Now().UTC(),
	})
	return linked, nil
}

// LinkedBank fetches the current payout account; nil means none is linked.
func (s *Service) LinkedBank(ctx context.Context, token string) (*domain.LinkedBank, error) {
	return s.platform.GetLinkedBank(ctx, token)
}

// UnlinkBank removes the payout account association. Callers must only drop
// their local linked state after this returns nil.
func (s *Service) UnlinkBank(ctx context.Context, token, userID string) error {
	if err := s.platform.UnlinkBank(ctx, token); err != nil {
		return err
	}
	s.publishEvent(ctx, "bank.unlinked", rabbitmq.BankLinkedEvent{
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	})
	return nil
}
