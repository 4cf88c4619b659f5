/**
 * @description
 * This file defines the domain models for bank linking: the bank registry
 * reference data, account resolution results, and the contributor's linked
 * payout account.
 *
 * @notes
 * - A full account number is only held in memory for the duration of an
 *   active linking or withdrawal flow. LinkedBank keeps the last four digits
 *   only; the full number is never retained after linking.
 */
package domain

// Bank is one entry of the bank registry. Immutable reference data, fetched
// once per session from the bank list endpoint.
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Slug string `json:"slug"`
}

// BankResolveResult is the outcome of verifying an account number against a
// bank code via the external registry. It is ephemeral: produced by a resolve
// call and discarded with the workflow instance that requested it.
type BankResolveResult struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
}

// LinkedBank is the contributor's currently linked payout account. A nil
// *LinkedBank means no bank is linked.
type LinkedBank struct {
	BankName           string `json:"bank_name"`
	BankCode           string `json:"bank_code"`
	AccountNumberLast4 string `json:"account_number_last4"`
	AccountName        string `json:"account_name"`
	// PendingApproval is true for manually submitted accounts that bypassed
	// registry verification and await human review server-side.
	PendingApproval bool `json:"pending_approval"`
}

// LinkBankRequest is the payload for linking a verified account.
type LinkBankRequest struct {
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// ManualLinkRequest is the payload for the manual fallback path. It bypasses
// registry verification and must be flagged upstream as requiring
// asynchronous approval.
type ManualLinkRequest struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	Manual        bool   `json:"manual"`
}

// ResolveBankRequest is the payload for the bank resolve endpoint.
type ResolveBankRequest struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
}

// MaskAccountNumber reduces a full account number to its last four digits.
func MaskAccountNumber(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return accountNumber
	}
	return accountNumber[len(accountNumber)-4:]
}
