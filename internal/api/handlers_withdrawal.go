/**
 * @description
 * This file contains the HTTP handlers for the withdrawal workflow: session
 * lifecycle, bank verification, amount entry, confirmation, and submission.
 * Each handler maps one workflow operation onto the state machine; none of
 * them retries a failed write on the contributor's behalf.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

type resolveAccountRequest struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
}

type setAmountRequest struct {
	Amount string `json:"amount"`
}

// StartWithdrawalHandler opens (or replaces) the caller's withdrawal session.
func (h *Handlers) StartWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	userID, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	view, err := h.service.StartWithdrawal(r.Context(), token, userID)
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusCreated, view)
}

// SessionHandler returns the current snapshot of the caller's session.
func (h *Handlers) SessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.identity(w, r)
	if !ok {
		return
	}

	view, err := h.service.Session(userID)
	if err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// ResolveAccountHandler runs the bank step's account verification.
func (h *Handlers) ResolveAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req resolveAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", false)
		return
	}

	view, err := h.service.ResolveSessionAccount(r.Context(), token, userID, req.BankCode, req.AccountNumber)
	if err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// InvalidateResolveHandler marks any in-flight verification stale. The app
// calls this when the contributor changes the selected bank or account.
func (h *Handlers) InvalidateResolveHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.identity(w, r)
	if !ok {
		return
	}

	if err := h.service.InvalidateResolve(userID); err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAmountHandler validates the amount step and advances to confirm.
func (h *Handlers) SetAmountHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req setAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", false)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Enter a valid amount.", false)
		return
	}

	view, err := h.service.SetWithdrawalAmount(userID, amount)
	if err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// RefreshBalanceHandler re-fetches the session's balance snapshot. This is
// the explicit refresh control for the amount step.
func (h *Handlers) RefreshBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	view, err := h.service.RefreshSessionBalance(r.Context(), token, userID)
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// BackHandler steps the session backwards one step.
func (h *Handlers) BackHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.identity(w, r)
	if !ok {
		return
	}

	view, err := h.service.Back(userID)
	if err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// SubmitWithdrawalHandler performs the terminal submission and returns the
// payout receipt.
func (h *Handlers) SubmitWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	userID, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	receipt, err := h.service.SubmitWithdrawal(r.Context(), token, userID)
	if err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	log.Printf("level=info component=api endpoint=submit_withdrawal outcome=accepted user_id=%s reference=%s", userID, receipt.Reference)
	h.writeJSON(w, http.StatusOK, receipt)
}

// AbandonSessionHandler tears down the caller's session.
func (h *Handlers) AbandonSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.identity(w, r)
	if !ok {
		return
	}

	h.service.AbandonWithdrawal(userID)
	w.WriteHeader(http.StatusNoContent)
}

// WithdrawalHistoryHandler lists past withdrawals.
func (h *Handlers) WithdrawalHistoryHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	records, err := h.service.WithdrawalHistory(r.Context(), token, queryLimit(r, 20))
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

// BalanceHandler returns the current withdrawal balance.
func (h *Handlers) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	balance, err := h.service.Balance(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, balance)
}
