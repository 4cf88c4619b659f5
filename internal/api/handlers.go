/**
 * @description
 * This file contains the shared plumbing for the HTTP handlers: the handler
 * struct, response helpers, and the mapping from orchestrator errors to
 * HTTP status codes and user-facing messages. The endpoint-specific
 * handlers live in the handlers_*.go files alongside it.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http: Standard Go libraries.
 * - internal/app, pkg/platformapi: Service logic and the error taxonomy.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/my-edutu/monetization-service/internal/app"
	"github.com/my-edutu/monetization-service/internal/store"
	"github.com/my-edutu/monetization-service/pkg/platformapi"
)

// Handlers holds the orchestrator service that handlers call into.
type Handlers struct {
	service *app.Service
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *app.Service) *Handlers {
	return &Handlers{service: service}
}

type errorResponse struct {
	Error string `json:"error"`
	// Retryable tells the app whether a retry affordance makes sense. Reads
	// are retryable; failed writes require an explicit re-trigger.
	Retryable bool `json:"retryable"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
		}
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string, retryable bool) {
	h.writeJSON(w, status, errorResponse{Error: message, Retryable: retryable})
}

// writeServiceError maps orchestrator and platform errors onto HTTP
// responses. Money fields are never zero-filled: every failure becomes an
// explicit error payload.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error, retryable bool) {
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		h.writeError(w, http.StatusNotFound, "No active withdrawal session.", false)
	case errors.Is(err, app.ErrInvalidTransition):
		h.writeError(w, http.StatusConflict, "This step is not available right now.", false)
	case errors.Is(err, app.ErrOperationInFlight):
		h.writeError(w, http.StatusConflict, "Another operation is still in progress.", false)
	case errors.Is(err, app.ErrBankNotSelected):
		h.writeError(w, http.StatusBadRequest, "Select a bank before verifying the account.", false)
	case errors.Is(err, app.ErrInvalidAccountNumber):
		h.writeError(w, http.StatusBadRequest, "Account number must be exactly 10 digits.", false)
	case errors.Is(err, app.ErrManualFieldsMissing):
		h.writeError(w, http.StatusBadRequest, "Bank name, account name and account number are all required.", false)
	case errors.Is(err, store.ErrInvalidCursor):
		h.writeError(w, http.StatusBadRequest, "Invalid pagination cursor.", false)
	case errors.Is(err, app.ErrResolveSuperseded):
		h.writeError(w, http.StatusConflict, "Verification was superseded by a newer attempt.", false)
	case errors.Is(err, app.ErrInvalidAmount):
		h.writeError(w, http.StatusBadRequest, "Enter a valid amount.", false)
	case errors.Is(err, app.ErrBelowMinimum):
		h.writeError(w, http.StatusUnprocessableEntity, "The minimum withdrawal is 5.00.", false)
	case errors.Is(err, app.ErrInsufficientFunds), errors.Is(err, platformapi.ErrInsufficientBalance):
		h.writeError(w, http.StatusUnprocessableEntity, "Amount exceeds your available balance.", false)
	case errors.Is(err, app.ErrBadgeNotEarned):
		h.writeError(w, http.StatusForbidden, "This badge has not been earned yet.", false)
	case errors.Is(err, platformapi.ErrAuthenticationRequired):
		h.writeError(w, http.StatusUnauthorized, "Your session has expired. Please sign in again.", false)
	case errors.Is(err, platformapi.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "Not found.", false)
	case errors.Is(err, platformapi.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, "Too many attempts. Please wait a moment.", true)
	case errors.Is(err, platformapi.ErrVerificationFailed):
		h.writeError(w, http.StatusUnprocessableEntity, "We could not verify that account. Check the details and try again.", false)
	case errors.Is(err, platformapi.ErrValidationFailed):
		h.writeError(w, http.StatusBadRequest, "The platform rejected the request.", false)
	case errors.Is(err, platformapi.ErrNetworkUnavailable):
		h.writeError(w, http.StatusBadGateway, "The platform is unreachable. Please try again.", retryable)
	default:
		log.Printf("level=error component=api msg=\"unhandled service error\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.", retryable)
	}
}

// identity pulls the authenticated user id and bearer token, failing the
// request if the middleware did not run.
func (h *Handlers) identity(w http.ResponseWriter, r *http.Request) (userID, token string, ok bool) {
	userID, ok = GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context", false)
		return "", "", false
	}
	token, ok = GetBearerToken(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get bearer token from context", false)
		return "", "", false
	}
	return userID, token, true
}

// queryLimit parses the ?limit= parameter with a sane default.
func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
