/**
 * @description
 * This file defines the domain models for contributor earnings and wallet
 * balances. These structs are the uniform internal representation of the
 * upstream platform API's earnings and balance payloads.
 *
 * @notes
 * - Monetary values use shopspring/decimal. The platform pays out in whole
 *   currency units with two decimal places; float64 is not acceptable for
 *   money fields.
 * - TotalBalance is reported by the backend and is authoritative. The client
 *   never recomputes it from available + pending.
 */
package domain

import "github.com/shopspring/decimal"

// MinimumWithdrawal is the smallest amount a contributor may withdraw,
// inclusive. The 5.00 floor is enforced again server-side.
var MinimumWithdrawal = decimal.NewFromFloat(5.00)

// ValidatorTier is the server-computed reputation tier of a validator.
// It influences reward multipliers upstream and is read-only here.
type ValidatorTier string

const (
	TierBronze ValidatorTier = "bronze"
	TierSilver ValidatorTier = "silver"
	TierGold   ValidatorTier = "gold"
)

// BalanceSummary mirrors the response of the withdrawals balance endpoint.
type BalanceSummary struct {
	AvailableBalance decimal.Decimal `json:"available_balance"`
	PendingBalance   decimal.Decimal `json:"pending_balance"`
	TotalBalance     decimal.Decimal `json:"total_balance"`
	Currency         string          `json:"currency"`
}

// EarningsSummary mirrors the response of the monetization earnings endpoint.
type EarningsSummary struct {
	Balance       decimal.Decimal `json:"balance"`
	TotalEarned   decimal.Decimal `json:"total_earned"`
	TrustScore    int             `json:"trust_score"`
	ValidatorTier ValidatorTier   `json:"validator_tier"`
}

// EarningsOverview is the merged view model served to the app: the balance
// and earnings payloads reconciled into one structure, plus the derived
// withdrawal eligibility flag. TrustScore and ValidatorTier are informational
// only; no orchestrator write path is gated on them.
type EarningsOverview struct {
	Balance       BalanceSummary  `json:"balance"`
	TotalEarned   decimal.Decimal `json:"total_earned"`
	TrustScore    int             `json:"trust_score"`
	ValidatorTier ValidatorTier   `json:"validator_tier"`
	CanWithdraw   bool            `json:"can_withdraw"`
}
