/**
 * @description
 * This file defines the domain models for the withdrawal workflow: the
 * request submitted to the platform API, the receipt returned to the
 * contributor, and the history record shape.
 *
 * @notes
 * - A WithdrawalRequest is constructed at the confirmation step, submitted
 *   once, and never mutated after submission. A fresh user intent requires a
 *   fresh idempotency key so a retried submission cannot pay out twice.
 */
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStep identifies a step of the withdrawal workflow.
type WithdrawalStep string

const (
	StepBank    WithdrawalStep = "bank"
	StepAmount  WithdrawalStep = "amount"
	StepConfirm WithdrawalStep = "confirm"
)

// WithdrawalRequest is the payload posted to the withdrawals endpoint.
type WithdrawalRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	BankCode       string          `json:"bank_code"`
	AccountNumber  string          `json:"account_number"`
	AccountName    string          `json:"account_name"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// WithdrawalReceipt carries the reference identifier returned by a
// successful submission. It is always surfaced to the contributor.
type WithdrawalReceipt struct {
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
}

// WithdrawalRecord is one entry of the withdrawal history list.
type WithdrawalRecord struct {
	Reference   string          `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
	BankName    string          `json:"bank_name"`
	AccountLast string          `json:"account_last4"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WithdrawalSummary is the read-only confirmation view combining the
// resolved account and the validated amount.
type WithdrawalSummary struct {
	Amount  decimal.Decimal   `json:"amount"`
	Account BankResolveResult `json:"account"`
}
