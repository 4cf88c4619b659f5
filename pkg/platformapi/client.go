/**
 * @description
 * This package provides a typed client for the upstream platform API. It
 * encapsulates authenticated HTTP requests, response envelope unwrapping,
 * and the mapping of failures to the typed error taxonomy, so that the
 * orchestrator components see one consistent shape per operation.
 *
 * Key features:
 * - Bearer credentials are attached per call when the endpoint requires auth.
 * - Both envelope styles ({success, data} and bare payloads) are unwrapped
 *   centrally; a body with success=false is a failure even on HTTP 200.
 * - No retries and no caching; idempotent retry policy belongs to callers.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http, time: Standard Go libraries.
 * - internal/domain: Request/response models.
 */
package platformapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/my-edutu/monetization-service/internal/domain"
)

// Client is a client for the platform API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new platform API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// envelope is the platform's optional response wrapper. Success is a pointer
// so a bare payload (no success field) is distinguishable from success=false.
type envelope struct {
	Success        *bool           `json:"success,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	CertificateURL string          `json:"certificateUrl,omitempty"`
	Error          string          `json:"error,omitempty"`
	Message        string          `json:"message,omitempty"`
}

// do executes one request. token may be empty for endpoints that do not
// require auth. target may be nil when the caller ignores the payload.
func (c *Client) do(ctx context.Context, method, path, token string, body, target interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Kind: ErrNetworkUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: ErrNetworkUnavailable, Status: resp.StatusCode, Message: err.Error()}
	}

	var env envelope
	envParsed := json.Unmarshal(respBody, &env) == nil

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := kindForStatus(resp.StatusCode)
		apiErr := &APIError{Kind: kind, Status: resp.StatusCode}
		if envParsed {
			apiErr.Code = env.Error
			apiErr.Message = env.Message
			apiErr.Kind = kindForCode(env.Error, kind)
		}
		log.Printf("level=warn component=platformapi method=%s path=%s status=%d code=%q", method, path, resp.StatusCode, apiErr.Code)
		return apiErr
	}

	// A 2xx body carrying success=false still signals failure.
	if envParsed && env.Success != nil && !*env.Success {
		kind := kindForCode(env.Error, ErrValidationFailed)
		log.Printf("level=warn component=platformapi method=%s path=%s status=%d msg=\"success=false envelope\" code=%q", method, path, resp.StatusCode, env.Error)
		return &APIError{Kind: kind, Status: resp.StatusCode, Code: env.Error, Message: env.Message}
	}

	if target == nil {
		return nil
	}

	// Unwrap {success, data} when present, otherwise decode the bare payload.
	payload := respBody
	if envParsed && env.Success != nil && env.Data != nil {
		payload = env.Data
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("failed to decode response payload: %w", err)
	}
	return nil
}

// --- Badges ---

// ListBadges fetches the static badge catalog. No auth required.
func (c *Client) ListBadges(ctx context.Context) ([]domain.Badge, error) {
	var badges []domain.Badge
	if err := c.do(ctx, http.MethodGet, "/badges", "", nil, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

// GetUserBadges fetches the public earned set of any user. No auth required.
func (c *Client) GetUserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	var badges []domain.UserBadge
	if err := c.do(ctx, http.MethodGet, "/badges/user/"+url.PathEscape(userID), "", nil, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

// GetMyBadges fetches the authenticated user's earned badges.
func (c *Client) GetMyBadges(ctx context.Context, token string) ([]domain.UserBadge, error) {
	var badges []domain.UserBadge
	if err := c.do(ctx, http.MethodGet, "/badges/me", token, nil, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

// GetMyBadgeProgress fetches the raw progress counters for the
// authenticated user.
func (c *Client) GetMyBadgeProgress(ctx context.Context, token string) (*domain.BadgeProgressSummary, error) {
	var summary domain.BadgeProgressSummary
	if err := c.do(ctx, http.MethodGet, "/badges/me/progress", token, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetBadgeCertificate fetches the shareable certificate URL for an earned
// badge. The response uses the {success, certificateUrl} envelope.
func (c *Client) GetBadgeCertificate(ctx context.Context, token, badgeID string) (string, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/badges/"+url.PathEscape(badgeID)+"/certificate", token, nil, &env); err != nil {
		return "", err
	}
	if env.CertificateURL == "" {
		return "", &APIError{Kind: ErrNotFound, Message: "certificate url missing from response"}
	}
	return env.CertificateURL, nil
}

// --- Monetization ---

// SubmitValidation posts a validator's verdict on a clip.
func (c *Client) SubmitValidation(ctx context.Context, token string, sub domain.ValidationSubmission) (*domain.ValidationResult, error) {
	var result domain.ValidationResult
	if err := c.do(ctx, http.MethodPost, "/monetization/validate", token, sub, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FlagClip reports a clip for human review.
func (c *Client) FlagClip(ctx context.Context, token string, flag domain.FlagRequest) error {
	return c.do(ctx, http.MethodPost, "/monetization/flag", token, flag, nil)
}

// GetValidationQueue fetches pending clips awaiting validation.
func (c *Client) GetValidationQueue(ctx context.Context, token string, limit int) ([]domain.QueueClip, error) {
	var clips []domain.QueueClip
	path := "/monetization/queue?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &clips); err != nil {
		return nil, err
	}
	return clips, nil
}

// GetValidationHistory fetches the validator's past verdicts.
func (c *Client) GetValidationHistory(ctx context.Context, token string, limit int) ([]domain.ValidationHistoryEntry, error) {
	var entries []domain.ValidationHistoryEntry
	path := "/monetization/history?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetEarningsSummary fetches balance, lifetime earnings, and trust tier.
func (c *Client) GetEarningsSummary(ctx context.Context, token string) (*domain.EarningsSummary, error) {
	var summary domain.EarningsSummary
	if err := c.do(ctx, http.MethodGet, "/monetization/earnings", token, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// CreateRemix derives a new prompt from an existing clip.
func (c *Client) CreateRemix(ctx context.Context, token string, req domain.RemixRequest) error {
	return c.do(ctx, http.MethodPost, "/monetization/remix", token, req, nil)
}

// GetRemixStats fetches the contributor's remix activity summary.
func (c *Client) GetRemixStats(ctx context.Context, token string) (*domain.RemixStats, error) {
	var stats domain.RemixStats
	if err := c.do(ctx, http.MethodGet, "/monetization/remix/stats", token, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// --- Payments ---

// InitTopUp starts a wallet top-up through the payment provider.
func (c *Client) InitTopUp(ctx context.Context, token string, req domain.TopUpRequest) (*domain.TopUpSession, error) {
	var session domain.TopUpSession
	if err := c.do(ctx, http.MethodPost, "/payments/top-up", token, req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// --- Withdrawals ---

// RequestWithdrawal submits a payout request. Callers supply the idempotency
// key; this client never retries on their behalf.
func (c *Client) RequestWithdrawal(ctx context.Context, token string, req domain.WithdrawalRequest) (*domain.WithdrawalReceipt, error) {
	var receipt domain.WithdrawalReceipt
	if err := c.do(ctx, http.MethodPost, "/withdrawals", token, req, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// GetWithdrawalHistory fetches past withdrawal records.
func (c *Client) GetWithdrawalHistory(ctx context.Context, token string, limit int) ([]domain.WithdrawalRecord, error) {
	var records []domain.WithdrawalRecord
	path := "/withdrawals?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetBalanceSummary fetches the authoritative withdrawal balance.
func (c *Client) GetBalanceSummary(ctx context.Context, token string) (*domain.BalanceSummary, error) {
	var summary domain.BalanceSummary
	if err := c.do(ctx, http.MethodGet, "/withdrawals/balance", token, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// --- Bank ---

// ListBanks fetches the bank registry. No auth required.
func (c *Client) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	var banks []domain.Bank
	if err := c.do(ctx, http.MethodGet, "/bank/list", "", nil, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

// ResolveBank verifies an account number against a bank code via the
// external registry and returns the legal account holder name.
func (c *Client) ResolveBank(ctx context.Context, token string, req domain.ResolveBankRequest) (*domain.BankResolveResult, error) {
	var result domain.BankResolveResult
	if err := c.do(ctx, http.MethodPost, "/bank/resolve", token, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LinkBank associates a payout account with the authenticated user,
// replacing any existing association.
func (c *Client) LinkBank(ctx context.Context, token string, req interface{}) (*domain.LinkedBank, error) {
	var linked domain.LinkedBank
	if err := c.do(ctx, http.MethodPost, "/bank/link", token, req, &linked); err != nil {
		return nil, err
	}
	return &linked, nil
}

// GetLinkedBank fetches the current payout account; nil when none is linked.
func (c *Client) GetLinkedBank(ctx context.Context, token string) (*domain.LinkedBank, error) {
	var linked domain.LinkedBank
	err := c.do(ctx, http.MethodGet, "/bank/linked", token, nil, &linked)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if linked.BankCode == "" && linked.AccountNumberLast4 == "" {
		return nil, nil
	}
	return &linked, nil
}

// UnlinkBank removes the payout account association.
func (c *Client) UnlinkBank(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/bank/unlink", token, nil, nil)
}

// --- Config ---

// GetAppConfig fetches a remote configuration value. No auth required.
func (c *Client) GetAppConfig(ctx context.Context, key string) (json.RawMessage, error) {
	var value json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/config/"+url.PathEscape(key), "", nil, &value); err != nil {
		return nil, err
	}
	return value, nil
}
