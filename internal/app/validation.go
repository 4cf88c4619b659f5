/**
 * @description
 * This file implements the clip-validation passthroughs. Consensus and
 * reward computation are upstream concerns; these methods carry typed
 * payloads through the gateway client and keep each result attributable to
 * the clip it was submitted for, including under concurrent submissions.
 */
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/my-edutu/monetization-service/internal/domain"
)

// SubmitValidation posts one verdict. Concurrent submissions for distinct
// clips are independent; the result echoes the clip id it belongs to.
func (s *Service) SubmitValidation(ctx context.Context, token string, sub domain.ValidationSubmission) (*domain.ValidationResult, error) {
	if strings.TrimSpace(sub.ClipID) == "" {
		return nil, fmt.Errorf("clip id is required")
	}
	result, err := s.platform.SubmitValidation(ctx, token, sub)
	if err != nil {
		return nil, err
	}
	if result.ClipID == "" {
		// Older platform builds omit the echo; pin the result to the
		// submitted clip so callers can never cross-assign outcomes.
		result.ClipID = sub.ClipID
	}
	return result, nil
}

// FlagClip reports a clip for human review.
func (s *Service) FlagClip(ctx context.Context, token string, flag domain.FlagRequest) error {
	if strings.TrimSpace(flag.ClipID) == "" {
		return fmt.Errorf("clip id is required")
	}
	return s.platform.FlagClip(ctx, token, flag)
}

// ValidationQueue fetches pending clips for the validator.
func (s *Service) ValidationQueue(ctx context.Context, token string, limit int) ([]domain.QueueClip, error) {
	return s.platform.GetValidationQueue(ctx, token, limit)
}

// ValidationHistory fetches the validator's past verdicts.
func (s *Service) ValidationHistory(ctx context.Context, token string, limit int) ([]domain.ValidationHistoryEntry, error) {
	return s.platform.GetValidationHistory(ctx, token, limit)
}

// CreateRemix asks the platform to derive a new prompt from a clip.
func (s *Service) CreateRemix(ctx context.Context, token string, req domain.RemixRequest) error {
	if strings.TrimSpace(req.ClipID) == "" {
		return fmt.Errorf("clip id is required")
	}
	return s.platform.CreateRemix(ctx, token, req)
}

// RemixStats fetches the contributor's remix activity summary.
func (s *Service) RemixStats(ctx context.Context, token string) (*domain.RemixStats, error) {
	return s.platform.GetRemixStats(ctx, token)
}

// InitTopUp starts a wallet top-up checkout with the payment provider.
func (s *Service) InitTopUp(ctx context.Context, token string, req domain.TopUpRequest) (*domain.TopUpSession, error) {
	return s.platform.InitTopUp(ctx, token, req)
}
