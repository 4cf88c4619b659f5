/**
 * @description
 * This file contains the core orchestrator service for the monetization
 * surface. The `Service` struct coordinates the platform API client, the
 * read-mostly list repository, the Redis idempotency store, and the message
 * broker, and owns the in-memory withdrawal sessions.
 *
 * Key features:
 * - One Service instance serves all users; per-user workflow state lives in
 *   withdrawal sessions keyed by user id.
 * - All upstream calls carry the caller's bearer token; the service never
 *   holds credentials of its own.
 *
 * @dependencies
 * - context, sync: Standard Go libraries.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Event publishing.
 */
package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/my-edutu/monetization-service/internal/domain"
	"github.com/my-edutu/monetization-service/internal/store"
	"github.com/my-edutu/monetization-service/pkg/rabbitmq"
)

// PlatformClient is the slice of the platform API the orchestrator uses.
// It is satisfied by *platformapi.Client and faked in tests.
type PlatformClient interface {
	ListBadges(ctx context.Context) ([]domain.Badge, error)
	GetUserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error)
	GetMyBadges(ctx context.Context, token string) ([]domain.UserBadge, error)
	GetMyBadgeProgress(ctx context.Context, token string) (*domain.BadgeProgressSummary, error)
	GetBadgeCertificate(ctx context.Context, token, badgeID string) (string, error)

	SubmitValidation(ctx context.Context, token string, sub domain.ValidationSubmission) (*domain.ValidationResult, error)
	FlagClip(ctx context.Context, token string, flag domain.FlagRequest) error
	GetValidationQueue(ctx context.Context, token string, limit int) ([]domain.QueueClip, error)
	GetValidationHistory(ctx context.Context, token string, limit int) ([]domain.ValidationHistoryEntry, error)
	GetEarningsSummary(ctx context.Context, token string) (*domain.EarningsSummary, error)
	CreateRemix(ctx context.Context, token string, req domain.RemixRequest) error
	GetRemixStats(ctx context.Context, token string) (*domain.RemixStats, error)
	InitTopUp(ctx context.Context, token string, req domain.TopUpRequest) (*domain.TopUpSession, error)

	RequestWithdrawal(ctx context.Context, token string, req domain.WithdrawalRequest) (*domain.WithdrawalReceipt, error)
	GetWithdrawalHistory(ctx context.Context, token string, limit int) ([]domain.WithdrawalRecord, error)
	GetBalanceSummary(ctx context.Context, token string) (*domain.BalanceSummary, error)

	ListBanks(ctx context.Context) ([]domain.Bank, error)
	ResolveBank(ctx context.Context, token string, req domain.ResolveBankRequest) (*domain.BankResolveResult, error)
	LinkBank(ctx context.Context, token string, req interface{}) (*domain.LinkedBank, error)
	GetLinkedBank(ctx context.Context, token string) (*domain.LinkedBank, error)
	UnlinkBank(ctx context.Context, token string) error

	GetAppConfig(ctx context.Context, key string) (json.RawMessage, error)
}

// IdempotencyStore records withdrawal receipts by idempotency key so a
// replayed submission short-circuits to the recorded receipt instead of
// creating a second payout.
type IdempotencyStore interface {
	GetReceipt(ctx context.Context, key string) (*domain.WithdrawalReceipt, error)
	PutReceipt(ctx context.Context, key string, receipt *domain.WithdrawalReceipt, ttl time.Duration) error
}

// ThrottleDecision is the outcome of consuming one rate limit slot.
type ThrottleDecision struct {
	Allowed    bool
	Count      int
	Remaining  int
	RetryAfter time.Duration
}

// ResolveRateLimiter throttles bank resolve attempts per user.
type ResolveRateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (ThrottleDecision, error)
}

// Service provides the orchestration logic for the monetization surface.
type Service struct {
	platform    PlatformClient
	repo        store.Repository
	events      rabbitmq.Publisher
	idempotency IdempotencyStore

	limiter            ResolveRateLimiter
	resolveLimitPerMin int
	idempotencyTTL     time.Duration

	mu       sync.Mutex
	sessions map[string]*WithdrawalSession
}

// NewService creates a new orchestrator service instance. events and
// idempotency may be nil; the corresponding features degrade.
func NewService(platform PlatformClient, repo store.Repository, events rabbitmq.Publisher, idempotency IdempotencyStore) *Service {
	return &Service{
		platform:       platform,
		repo:           repo,
		events:         events,
		idempotency:    idempotency,
		idempotencyTTL: 24 * time.Hour,
		sessions:       make(map[string]*WithdrawalSession),
	}
}

// SetResolveRateLimiter wires the per-user bank resolve throttle.
func (s *Service) SetResolveRateLimiter(limiter ResolveRateLimiter, perMinute int) {
	s.limiter = limiter
	s.resolveLimitPerMin = perMinute
}

// SetIdempotencyTTL overrides how long submitted receipts are remembered.
func (s *Service) SetIdempotencyTTL(ttl time.Duration) {
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// AppConfig passes a remote configuration value through to the app.
func (s *Service) AppConfig(ctx context.Context, key string) (json.RawMessage, error) {
	return s.platform.GetAppConfig(ctx, key)
}

// PendingClips lists the contributor's clips awaiting validation consensus.
func (s *Service) PendingClips(ctx context.Context, userID string, limit int, cursor string) (*domain.Page[domain.PendingClip], error) {
	return s.repo.ListPendingClips(ctx, userID, limit, cursor)
}

// TransactionHistory lists the contributor's earnings ledger entries.
func (s *Service) TransactionHistory(ctx context.Context, userID string, limit int, cursor string) (*domain.Page[domain.TransactionEntry], error) {
	return s.repo.ListTransactions(ctx, userID, limit, cursor)
}
