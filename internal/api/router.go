/**
 * @description
 * This file sets up the HTTP router for the monetization service. It defines
 * the API endpoints, associates them with their corresponding handlers, and
 * applies the standard and authentication middleware.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the app-facing surface.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes creates and returns the router for the monetization service.
func Routes(h *Handlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Public endpoints: reference data and public badge views.
	r.Get("/bank/list", h.BankListHandler)
	r.Get("/badges", h.BadgeCatalogHandler)
	r.Get("/badges/user/{id}", h.UserBadgesHandler)
	r.Get("/config/{key}", h.AppConfigHandler)

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		// Earnings and validation
		r.Get("/monetization/earnings", h.EarningsOverviewHandler)
		r.Get("/monetization/queue", h.ValidationQueueHandler)
		r.Post("/monetization/validate", h.SubmitValidationHandler)
		r.Post("/monetization/flag", h.FlagClipHandler)
		r.Get("/monetization/history", h.ValidationHistoryHandler)
		r.Post("/monetization/remix", h.CreateRemixHandler)
		r.Get("/monetization/remix/stats", h.RemixStatsHandler)
		r.Post("/payments/top-up", h.TopUpHandler)

		// Badges
		r.Get("/badges/me", h.MyBadgesHandler)
		r.Get("/badges/me/progress", h.MyBadgeProgressHandler)
		r.Get("/badges/{id}/certificate", h.BadgeCertificateHandler)

		// Bank linking
		r.Get("/bank/linked", h.LinkedBankHandler)
		r.Post("/bank/resolve", h.ResolveBankHandler)
		r.Post("/bank/link", h.LinkBankHandler)
		r.Post("/bank/link/manual", h.LinkManualBankHandler)
		r.Delete("/bank/unlink", h.UnlinkBankHandler)

		// Withdrawal workflow
		r.Post("/withdrawals/session", h.StartWithdrawalHandler)
		r.Get("/withdrawals/session", h.SessionHandler)
		r.Delete("/withdrawals/session", h.AbandonSessionHandler)
		r.Post("/withdrawals/session/resolve", h.ResolveAccountHandler)
		r.Post("/withdrawals/session/resolve/invalidate", h.InvalidateResolveHandler)
		r.Post("/withdrawals/session/amount", h.SetAmountHandler)
		r.Post("/withdrawals/session/refresh-balance", h.RefreshBalanceHandler)
		r.Post("/withdrawals/session/back", h.BackHandler)
		r.Post("/withdrawals/session/submit", h.SubmitWithdrawalHandler)
		r.Get("/withdrawals", h.WithdrawalHistoryHandler)
		r.Get("/withdrawals/balance", h.BalanceHandler)

		// Read-mostly lists
		r.Get("/clips/pending", h.PendingClipsHandler)
		r.Get("/transactions", h.TransactionHistoryHandler)
	})

	return r
}
