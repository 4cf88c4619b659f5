/**
 * @description
 * This file defines the domain models for the clip-validation surface: queue
 * entries, submitted verdicts, validation history, remixes, and top-ups.
 * Consensus and reward computation happen upstream; these models only carry
 * the data between the app and the platform API.
 */
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QueueClip is one pending clip awaiting validation.
type QueueClip struct {
	ClipID      string    `json:"clip_id"`
	AudioURL    string    `json:"audio_url"`
	Sentence    string    `json:"sentence"`
	Language    string    `json:"language"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ValidationSubmission is a validator's verdict on a single clip.
type ValidationSubmission struct {
	ClipID  string `json:"clip_id"`
	Approve bool   `json:"approve"`
	Comment string `json:"comment,omitempty"`
}

// ValidationResult is the upstream acknowledgement of a submitted verdict.
// Reward is zero until consensus finalizes the validation server-side.
type ValidationResult struct {
	ClipID   string          `json:"clip_id"`
	Accepted bool            `json:"accepted"`
	Reward   decimal.Decimal `json:"reward"`
}

// ValidationHistoryEntry is one row of the validator's past activity.
type ValidationHistoryEntry struct {
	ClipID      string          `json:"clip_id"`
	Approved    bool            `json:"approved"`
	Reward      decimal.Decimal `json:"reward"`
	Status      string          `json:"status"`
	ValidatedAt time.Time       `json:"validated_at"`
}

// FlagRequest reports a clip for human review instead of a verdict.
type FlagRequest struct {
	ClipID string `json:"clip_id"`
	Reason string `json:"reason"`
}

// RemixRequest asks the platform to derive a new prompt from an existing clip.
type RemixRequest struct {
	ClipID   string `json:"clip_id"`
	Style    string `json:"style"`
	Language string `json:"language,omitempty"`
}

// RemixStats summarizes a contributor's remix activity.
type RemixStats struct {
	TotalRemixes  int             `json:"total_remixes"`
	TotalPlays    int             `json:"total_plays"`
	RemixEarnings decimal.Decimal `json:"remix_earnings"`
}

// TopUpRequest initiates a wallet top-up through the payment provider.
type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TopUpSession carries the provider checkout reference for a top-up.
type TopUpSession struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
}
