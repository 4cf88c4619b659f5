/**
 * @description
 * This file implements the badge progress engine: it normalizes the raw
 * counters returned by the platform into clamped, display-ready progress
 * projections, and guards certificate retrieval behind the earned check.
 *
 * Key features:
 * - percentage = clamp(round(current/target*100), 0, 100); a zero target
 *   never divides, and an earned badge always reads 100.
 * - A server-reported earned flag is authoritative over the locally
 *   recomputed ratio.
 * - The progress list carries only not-yet-earned badges; entries that
 *   arrive already satisfied are folded into the earned count.
 */
package app

import (
	"context"
	"math"

	"github.com/my-edutu/monetization-service/internal/domain"
)

// computeProgress normalizes one raw progress entry.
func computeProgress(entry domain.BadgeProgress) domain.BadgeProgress {
	earned := entry.IsEarned
	if !earned && entry.TargetValue > 0 && entry.CurrentValue >= entry.TargetValue {
		earned = true
	}

	var pct int
	switch {
	case earned:
		pct = 100
	case entry.TargetValue <= 0:
		pct = 0
	default:
		pct = int(math.Round(float64(entry.CurrentValue) / float64(entry.TargetValue) * 100))
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	entry.IsEarned = earned
	entry.Percentage = pct
	return entry
}

// normalizeProgressSummary recomputes every entry, drops those that are
// earned, and reconciles the earned count with what was dropped. earned
// never exceeds total.
func normalizeProgressSummary(raw domain.BadgeProgressSummary) domain.BadgeProgressSummary {
	out := domain.BadgeProgressSummary{
		Earned: raw.Earned,
		Total:  raw.Total,
	}
	for _, entry := range raw.Progress {
		norm := computeProgress(entry)
		if norm.IsEarned {
			// The server listed a satisfied badge in the progress set;
			// count it as earned rather than displaying a full bar.
			if out.Earned < out.Total {
				out.Earned++
			}
			continue
		}
		out.Progress = append(out.Progress, norm)
	}
	if out.Total < out.Earned {
		out.Total = out.Earned
	}
	return out
}

// BadgeCatalog fetches the static badge catalog.
func (s *Service) BadgeCatalog(ctx context.Context) ([]domain.Badge, error) {
	return s.platform.ListBadges(ctx)
}

// UserBadges fetches the public earned set of any user.
func (s *Service) UserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	return s.platform.GetUserBadges(ctx, userID)
}

// MyBadges fetches the authenticated contributor's earned badges.
func (s *Service) MyBadges(ctx context.Context, token string) ([]domain.UserBadge, error) {
	return s.platform.GetMyBadges(ctx, token)
}

// MyBadgeProgress fetches and normalizes the trophy-case projection.
func (s *Service) MyBadgeProgress(ctx context.Context, token string) (*domain.BadgeProgressSummary, error) {
	raw, err := s.platform.GetMyBadgeProgress(ctx, token)
	if err != nil {
		return nil, err
	}
	summary := normalizeProgressSummary(*raw)
	return &summary, nil
}

// BadgeCertificate fetches the shareable certificate for an earned badge.
// Requesting one for an unearned badge fails with ErrBadgeNotEarned before
// any certificate call is made.
func (s *Service) BadgeCertificate(ctx context.Context, token, badgeID string) (string, error) {
	earned, err := s.platform.GetMyBadges(ctx, token)
	if err != nil {
		return "", err
	}
	found := false
	for _, badge := range earned {
		if badge.ID == badgeID {
			found = true
			break
		}
	}
	if !found {
		return "", ErrBadgeNotEarned
	}
	return s.platform.GetBadgeCertificate(ctx, token, badgeID)
}
