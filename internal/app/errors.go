/**
 * @description
 * This file defines the sentinel errors raised by the orchestrator services.
 * Handlers branch on these with errors.Is to pick status codes and
 * user-facing messages; none of them is ever swallowed into a default value.
 */
package app

import "errors"

var (
	// ErrBankNotSelected means a resolve was attempted without a bank chosen.
	ErrBankNotSelected = errors.New("no bank selected")
	// ErrInvalidAccountNumber means the account number is not exactly ten digits.
	ErrInvalidAccountNumber = errors.New("account number must be exactly 10 digits")
	// ErrManualFieldsMissing means a manual link was submitted with empty fields.
	ErrManualFieldsMissing = errors.New("manual linking requires bank name, account name and account number")
	// ErrResolveSuperseded means a resolve completed after its selection changed.
	ErrResolveSuperseded = errors.New("bank resolve superseded by a newer attempt")

	// ErrSessionNotFound means no withdrawal session exists for the user.
	ErrSessionNotFound = errors.New("no active withdrawal session")
	// ErrInvalidTransition means the requested step change is not allowed.
	ErrInvalidTransition = errors.New("invalid withdrawal step transition")
	// ErrOperationInFlight means a verification or submission is already pending.
	ErrOperationInFlight = errors.New("another operation is already in flight")
	// ErrBelowMinimum means the amount is under the withdrawal floor.
	ErrBelowMinimum = errors.New("amount is below the minimum withdrawal")
	// ErrInsufficientFunds means the amount exceeds the available balance.
	ErrInsufficientFunds = errors.New("amount exceeds available balance")
	// ErrInvalidAmount means the amount input is not a valid positive number.
	ErrInvalidAmount = errors.New("amount must be a positive number")

	// ErrBadgeNotEarned means a certificate was requested for an unearned badge.
	ErrBadgeNotEarned = errors.New("badge has not been earned")
)
