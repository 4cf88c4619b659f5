package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/my-edutu/monetization-service/internal/domain"
)

func decimalFrom(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// memoryIdempotencyStore is an in-process IdempotencyStore for tests.
type memoryIdempotencyStore struct {
	mu       sync.Mutex
	receipts map[string]*domain.WithdrawalReceipt
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{receipts: make(map[string]*domain.WithdrawalReceipt)}
}

func (m *memoryIdempotencyStore) GetReceipt(ctx context.Context, key string) (*domain.WithdrawalReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.receipts[key], nil
}

func (m *memoryIdempotencyStore) PutReceipt(ctx context.Context, key string, receipt *domain.WithdrawalReceipt, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts[key] = receipt
	return nil
}

// fakePlatform satisfies PlatformClient for tests. Each method delegates to
// an optional function field and counts its calls, so tests can assert that
// locally rejected inputs never reach the network layer.
type fakePlatform struct {
	mu    sync.Mutex
	calls map[string]int

	listBanksFn         func(ctx context.Context) ([]domain.Bank, error)
	resolveBankFn       func(ctx context.Context, token string, req domain.ResolveBankRequest) (*domain.BankResolveResult, error)
	linkBankFn          func(ctx context.Context, token string, req interface{}) (*domain.LinkedBank, error)
	getLinkedBankFn     func(ctx context.Context, token string) (*domain.LinkedBank, error)
	unlinkBankFn        func(ctx context.Context, token string) error
	balanceFn           func(ctx context.Context, token string) (*domain.BalanceSummary, error)
	earningsFn          func(ctx context.Context, token string) (*domain.EarningsSummary, error)
	requestWithdrawalFn func(ctx context.Context, token string, req domain.WithdrawalRequest) (*domain.WithdrawalReceipt, error)
	withdrawalHistoryFn func(ctx context.Context, token string, limit int) ([]domain.WithdrawalRecord, error)
	listBadgesFn        func(ctx context.Context) ([]domain.Badge, error)
	userBadgesFn        func(ctx context.Context, userID string) ([]domain.UserBadge, error)
	myBadgesFn          func(ctx context.Context, token string) ([]domain.UserBadge, error)
	badgeProgressFn     func(ctx context.Context, token string) (*domain.BadgeProgressSummary, error)
	certificateFn       func(ctx context.Context, token, badgeID string) (string, error)
	submitValidationFn  func(ctx context.Context, token string, sub domain.ValidationSubmission) (*domain.ValidationResult, error)
	flagClipFn          func(ctx context.Context, token string, flag domain.FlagRequest) error
	validationQueueFn   func(ctx context.Context, token string, limit int) ([]domain.QueueClip, error)
	validationHistoryFn func(ctx context.Context, token string, limit int) ([]domain.ValidationHistoryEntry, error)
	createRemixFn       func(ctx context.Context, token string, req domain.RemixRequest) error
	remixStatsFn        func(ctx context.Context, token string) (*domain.RemixStats, error)
	initTopUpFn         func(ctx context.Context, token string, req domain.TopUpRequest) (*domain.TopUpSession, error)
	appConfigFn         func(ctx context.Context, key string) (json.RawMessage, error)
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{calls: make(map[string]int)}
}

func (f *fakePlatform) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

func (f *fakePlatform) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakePlatform) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	f.record("ListBanks")
	if f.listBanksFn != nil {
		return f.listBanksFn(ctx)
	}
	return []domain.Bank{{Name: "First Bank", Code: "011", Slug: "first-bank"}}, nil
}

func (f *fakePlatform) ResolveBank(ctx context.Context, token string, req domain.ResolveBankRequest) (*domain.BankResolveResult, error) {
	f.record("ResolveBank")
	if f.resolveBankFn != nil {
		return f.resolveBankFn(ctx, token, req)
	}
	return &domain.BankResolveResult{
		AccountNumber: req.AccountNumber,
		AccountName:   "ADA OBI",
		BankCode:      req.BankCode,
		BankName:      "First Bank",
	}, nil
}

func (f *fakePlatform) LinkBank(ctx context.Context, token string, req interface{}) (*domain.LinkedBank, error) {
	f.record("LinkBank")
	if f.linkBankFn != nil {
		return f.linkBankFn(ctx, token, req)
	}
	return &domain.LinkedBank{BankName: "First Bank", BankCode: "011", AccountNumberLast4: "6789", AccountName: "ADA OBI"}, nil
}

func (f *fakePlatform) GetLinkedBank(ctx context.Context, token string) (*domain.LinkedBank, error) {
	f.record("GetLinkedBank")
	if f.getLinkedBankFn != nil {
		return f.getLinkedBankFn(ctx, token)
	}
	return nil, nil
}

func (f *fakePlatform) UnlinkBank(ctx context.Context, token string) error {
	f.record("UnlinkBank")
	if f.unlinkBankFn != nil {
		return f.unlinkBankFn(ctx, token)
	}
	return nil
}

func (f *fakePlatform) GetBalanceSummary(ctx context.Context, token string) (*domain.BalanceSummary, error) {
	f.record("GetBalanceSummary")
	if f.balanceFn != nil {
		return f.balanceFn(ctx, token)
	}
	return &domain.BalanceSummary{
		AvailableBalance: decimalFrom("25.00"),
		PendingBalance:   decimalFrom("0.00"),
		TotalBalance:     decimalFrom("25.00"),
		Currency:         "USD",
	}, nil
}

func (f *fakePlatform) GetEarningsSummary(ctx context.Context, token string) (*domain.EarningsSummary, error) {
	f.record("GetEarningsSummary")
	if f.earningsFn != nil {
		return f.earningsFn(ctx, token)
	}
	return &domain.EarningsSummary{
		Balance:       decimalFrom("25.00"),
		TotalEarned:   decimalFrom("140.50"),
		TrustScore:    82,
		ValidatorTier: domain.TierSilver,
	}, nil
}

func (f *fakePlatform) RequestWithdrawal(ctx context.Context, token string, req domain.WithdrawalRequest) (*domain.WithdrawalReceipt, error) {
	f.record("RequestWithdrawal")
	if f.requestWithdrawalFn != nil {
		return f.requestWithdrawalFn(ctx, token, req)
	}
	return &domain.WithdrawalReceipt{Reference: "wd_test_ref", Amount: req.Amount, Status: "processing"}, nil
}

func (f *fakePlatform) GetWithdrawalHistory(ctx context.Context, token string, limit int) ([]domain.WithdrawalRecord, error) {
	f.record("GetWithdrawalHistory")
	if f.withdrawalHistoryFn != nil {
		return f.withdrawalHistoryFn(ctx, token, limit)
	}
	return nil, nil
}

func (f *fakePlatform) ListBadges(ctx context.Context) ([]domain.Badge, error) {
	f.record("ListBadges")
	if f.listBadgesFn != nil {
		return f.listBadgesFn(ctx)
	}
	return nil, nil
}

func (f *fakePlatform) GetUserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	f.record("GetUserBadges")
	if f.userBadgesFn != nil {
		return f.userBadgesFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakePlatform) GetMyBadges(ctx context.Context, token string) ([]domain.UserBadge, error) {
	f.record("GetMyBadges")
	if f.myBadgesFn != nil {
		return f.myBadgesFn(ctx, token)
	}
	return nil, nil
}

func (f *fakePlatform) GetMyBadgeProgress(ctx context.Context, token string) (*domain.BadgeProgressSummary, error) {
	f.record("GetMyBadgeProgress")
	if f.badgeProgressFn != nil {
		return f.badgeProgressFn(ctx, token)
	}
	return &domain.BadgeProgressSummary{}, nil
}

func (f *fakePlatform) GetBadgeCertificate(ctx context.Context, token, badgeID string) (string, error) {
	f.record("GetBadgeCertificate")
	if f.certificateFn != nil {
		return f.certificateFn(ctx, token, badgeID)
	}
	return "https://cdn.example.com/certificates/" + badgeID + ".png", nil
}

func (f *fakePlatform) SubmitValidation(ctx context.Context, token string, sub domain.ValidationSubmission) (*domain.ValidationResult, error) {
	f.record("SubmitValidation")
	if f.submitValidationFn != nil {
		return f.submitValidationFn(ctx, token, sub)
	}
	return &domain.ValidationResult{ClipID: sub.ClipID, Accepted: true}, nil
}

func (f *fakePlatform) FlagClip(ctx context.Context, token string, flag domain.FlagRequest) error {
	f.record("FlagClip")
	if f.flagClipFn != nil {
		return f.flagClipFn(ctx, token, flag)
	}
	return nil
}

func (f *fakePlatform) GetValidationQueue(ctx context.Context, token string, limit int) ([]domain.QueueClip, error) {
	f.record("GetValidationQueue")
	if f.validationQueueFn != nil {
		return f.validationQueueFn(ctx, token, limit)
	}
	return nil, nil
}

func (f *fakePlatform) GetValidationHistory(ctx context.Context, token string, limit int) ([]domain.ValidationHistoryEntry, error) {
	f.record("GetValidationHistory")
	if f.validationHistoryFn != nil {
		return f.validationHistoryFn(ctx, token, limit)
	}
	return nil, nil
}

func (f *fakePlatform) CreateRemix(ctx context.Context, token string, req domain.RemixRequest) error {
	f.record("CreateRemix")
	if f.createRemixFn != nil {
		return f.createRemixFn(ctx, token, req)
	}
	return nil
}

func (f *fakePlatform) GetRemixStats(ctx context.Context, token string) (*domain.RemixStats, error) {
	f.record("GetRemixStats")
	if f.remixStatsFn != nil {
		return f.remixStatsFn(ctx, token)
	}
	return &domain.RemixStats{}, nil
}

func (f *fakePlatform) InitTopUp(ctx context.Context, token string, req domain.TopUpRequest) (*domain.TopUpSession, error) {
	f.record("InitTopUp")
	if f.initTopUpFn != nil {
		return f.initTopUpFn(ctx, token, req)
	}
	return &domain.TopUpSession{Reference: "tp_test_ref", CheckoutURL: "https://pay.example.com/tp_test_ref"}, nil
}

func (f *fakePlatform) GetAppConfig(ctx context.Context, key string) (json.RawMessage, error) {
	f.record("GetAppConfig")
	if f.appConfigFn != nil {
		return f.appConfigFn(ctx, key)
	}
	return json.RawMessage(`{}`), nil
}
