/**
 * @description
 * This file contains the HTTP handlers for the validation and earnings
 * surface: the earnings overview, validation queue and verdicts, clip
 * flagging, remixes, top-ups, and the read-mostly lists served from the
 * data store.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/my-edutu/monetization-service/internal/domain"
)

// EarningsOverviewHandler returns the merged earnings/balance view model.
func (h *Handlers) EarningsOverviewHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	overview, err := h.service.EarningsOverview(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, overview)
}

// ValidationQueueHandler returns pending clips for the validator.
func (h *Handlers) ValidationQueueHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	clips, err := h.service.ValidationQueue(r.Context(), token, queryLimit(r, 10))
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, clips)
}

// SubmitValidationHandler posts one verdict.
func (h *Handlers) SubmitValidationHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	var sub domain.ValidationSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", false)
		return
	}

	result, err := h.service.SubmitValidation(r.Context(), token, sub)
	if err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// FlagClipHandler reports a clip for human review.
func (h *Handlers) FlagClipHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	var flag domain.FlagRequest
	if err := json.NewDecoder(r.Body).Decode(&flag); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", false)
		return
	}

	if err := h.service.FlagClip(r.Context(), token, flag); err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidationHistoryHandler returns the validator's past verdicts.
func (h *Handlers) ValidationHistoryHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	entries, err := h.service.ValidationHistory(r.Context(), token, queryLimit(r, 20))
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// CreateRemixHandler derives a new prompt from an existing clip.
func (h *Handlers) CreateRemixHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req domain.RemixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", false)
		return
	}

	if err := h.service.CreateRemix(r.Context(), token, req); err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// RemixStatsHandler returns the contributor's remix activity summary.
func (h *Handlers) RemixStatsHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	stats, err := h.service.RemixStats(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// TopUpHandler starts a wallet top-up checkout.
func (h *Handlers) TopUpHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req domain.TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", false)
		return
	}

	session, err := h.service.InitTopUp(r.Context(), token, req)
	if err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	h.writeJSON(w, http.StatusOK, session)
}

// PendingClipsHandler lists the caller's clips awaiting consensus.
func (h *Handlers) PendingClipsHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.identity(w, r)
	if !ok {
		return
	}

	page, err := h.service.PendingClips(r.Context(), userID, queryLimit(r, 20), r.URL.Query().Get("cursor"))
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// TransactionHistoryHandler lists the caller's earnings ledger.
func (h *Handlers) TransactionHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.identity(w, r)
	if !ok {
		return
	}

	page, err := h.service.TransactionHistory(r.Context(), userID, queryLimit(r, 20), r.URL.Query().Get("cursor"))
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// AppConfigHandler passes a remote configuration value through. Public.
func (h *Handlers) AppConfigHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		h.writeError(w, http.StatusBadRequest, "Config key is required", false)
		return
	}

	value, err := h.service.AppConfig(r.Context(), key)
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, value)
}
