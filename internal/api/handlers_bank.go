/**
 * @description
 * This file contains the HTTP handlers for bank linking outside of the
 * withdrawal workflow: listing the registry, inspecting the linked payout
 * account, the manual fallback submission, and unlinking.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/my-edutu/monetization-service/internal/domain"
)

// BankListHandler returns the bank registry. Public, no auth.
func (h *Handlers) BankListHandler(w http.ResponseWriter, r *http.Request) {
	banks, err := h.service.Banks(r.Context())
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, banks)
}

// LinkedBankHandler returns the current payout account, or 204 when none is
// linked.
func (h *Handlers) LinkedBankHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	linked, err := h.service.LinkedBank(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	if linked == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, linked)
}

// ResolveBankHandler verifies an account outside a withdrawal session, for
// the standalone bank-linking screen.
func (h *Handlers) ResolveBankHandler(w http.ResponseWriter, r *http.Request) {
	userID, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req resolveAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", false)
		return
	}

	result, err := h.service.ResolveAccount(r.Context(), token, userID, req.BankCode, req.AccountNumber)
	if err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// LinkBankHandler links a verified account as the payout destination.
func (h *Handlers) LinkBankHandler(w http.ResponseWriter, r *http.Request) {
	userID, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	var resolved domain.BankResolveResult
	if err := json.NewDecoder(r.Body).Decode(&resolved); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", false)
		return
	}

	linked, err := h.service.LinkResolvedBank(r.Context(), token, userID, resolved)
	if err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	h.writeJSON(w, http.StatusOK, linked)
}

// LinkManualBankHandler submits the manual fallback record. The response is
// a pending association awaiting asynchronous approval, not a linked one.
func (h *Handlers) LinkManualBankHandler(w http.ResponseWriter, r *http.Request) {
	userID, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req domain.ManualLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", false)
		return
	}

	linked, err := h.service.LinkManualBank(r.Context(), token, userID, req)
	if err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	h.writeJSON(w, http.StatusAccepted, linked)
}

// UnlinkBankHandler removes the payout account association.
func (h *Handlers) UnlinkBankHandler(w http.ResponseWriter, r *http.Request) {
	userID, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	if err := h.service.UnlinkBank(r.Context(), token, userID); err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
