/**
 * @description
 * This file contains the HTTP handlers for the badge surface: the public
 * catalog, per-user earned sets, the authenticated trophy-case projection,
 * and certificate retrieval.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// BadgeCatalogHandler returns the static badge catalog. Public, no auth.
func (h *Handlers) BadgeCatalogHandler(w http.ResponseWriter, r *http.Request) {
	badges, err := h.service.BadgeCatalog(r.Context())
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, badges)
}

// UserBadgesHandler returns any user's public earned set. Public, no auth.
func (h *Handlers) UserBadgesHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "User id is required", false)
		return
	}

	badges, err := h.service.UserBadges(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, badges)
}

// MyBadgesHandler returns the caller's earned badges.
func (h *Handlers) MyBadgesHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	badges, err := h.service.MyBadges(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, badges)
}

// MyBadgeProgressHandler returns the normalized trophy-case projection.
func (h *Handlers) MyBadgeProgressHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}

	summary, err := h.service.MyBadgeProgress(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, err, true)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

type certificateResponse struct {
	CertificateURL string `json:"certificate_url"`
}

// BadgeCertificateHandler returns the shareable certificate for an earned
// badge. An unearned badge id gets a distinguishable error, never a URL.
func (h *Handlers) BadgeCertificateHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.identity(w, r)
	if !ok {
		return
	}
	badgeID := chi.URLParam(r, "id")
	if badgeID == "" {
		h.writeError(w, http.StatusBadRequest, "Badge id is required", false)
		return
	}

	url, err := h.service.BadgeCertificate(r.Context(), token, badgeID)
	if err != nil {
		h.writeServiceError(w, err, false)
		return
	}
	h.writeJSON(w, http.StatusOK, certificateResponse{CertificateURL: url})
}
