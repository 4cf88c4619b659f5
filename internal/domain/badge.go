/**
 * @description
 * This file defines the domain models for achievement badges: the static
 * catalog entity, the earned association, and the derived progress
 * projections computed by the badge progress engine.
 */
package domain

import "time"

// BadgeCategory groups badges by the activity that earns them.
type BadgeCategory string

const (
	CategoryContributor BadgeCategory = "contributor"
	CategoryValidator   BadgeCategory = "validator"
	CategoryGame        BadgeCategory = "game"
	CategorySocial      BadgeCategory = "social"
)

// BadgeTier is the metal tier of a tiered badge.
type BadgeTier string

const (
	BadgeBronze   BadgeTier = "bronze"
	BadgeSilver   BadgeTier = "silver"
	BadgeGold     BadgeTier = "gold"
	BadgePlatinum BadgeTier = "platinum"
	BadgeDiamond  BadgeTier = "diamond"
)

// Badge is a static catalog entry. RequirementType and RequirementValue
// describe the counter a contributor must satisfy to earn it.
type Badge struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	ImageURL         string        `json:"image_url"`
	Category         BadgeCategory `json:"category"`
	Tier             BadgeTier     `json:"tier,omitempty"`
	RequirementType  string        `json:"requirement_type,omitempty"`
	RequirementValue int           `json:"requirement_value,omitempty"`
}

// UserBadge is a badge a contributor has earned. Created server-side when a
// requirement is met; never mutated here.
type UserBadge struct {
	Badge
	EarnedAt time.Time `json:"earned_at"`
}

// BadgeProgress is the derived completion state of one badge. Recomputed on
// every fetch, never persisted.
type BadgeProgress struct {
	Badge        Badge `json:"badge"`
	CurrentValue int   `json:"current_value"`
	TargetValue  int   `json:"target_value"`
	Percentage   int   `json:"percentage"`
	IsEarned     bool  `json:"is_earned"`
}

// BadgeProgressSummary is the trophy-case projection. Progress lists only
// badges that are not yet fully earned; earned badges are counted in Earned
// and omitted from the list.
type BadgeProgressSummary struct {
	Earned   int             `json:"earned"`
	Total    int             `json:"total"`
	Progress []BadgeProgress `json:"progress"`
}
