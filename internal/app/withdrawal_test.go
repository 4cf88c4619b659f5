package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/my-edutu/monetization-service/internal/domain"
	"github.com/my-edutu/monetization-service/pkg/platformapi"
)

const (
	testToken  = "test-token"
	testUserID = "user-1"
)

func newTestService(platform *fakePlatform) *Service {
	return NewService(platform, nil, nil, nil)
}

func startSession(t *testing.T, svc *Service) *SessionView {
	t.Helper()
	view, err := svc.StartWithdrawal(context.Background(), testToken, testUserID)
	if err != nil {
		t.Fatalf("unexpected error starting session: %v", err)
	}
	return view
}

func advanceToAmount(t *testing.T, svc *Service) {
	t.Helper()
	startSession(t, svc)
	if _, err := svc.ResolveSessionAccount(context.Background(), testToken, testUserID, "011", "0123456789"); err != nil {
		t.Fatalf("unexpected error resolving account: %v", err)
	}
}

func TestStartWithdrawalLoadsBankStep(t *testing.T) {
	svc := newTestService(newFakePlatform())

	view := startSession(t, svc)

	if view.Step != domain.StepBank {
		t.Fatalf("expected initial step %q, got %q", domain.StepBank, view.Step)
	}
	if len(view.Banks) == 0 {
		t.Fatal("expected bank registry to be loaded")
	}
	if view.Balance == nil {
		t.Fatal("expected balance snapshot to be loaded")
	}
}

func TestStartWithdrawalRejectsBalanceBelowFloor(t *testing.T) {
	platform := newFakePlatform()
	platform.balanceFn = func(ctx context.Context, token string) (*domain.BalanceSummary, error) {
		return &domain.BalanceSummary{AvailableBalance: decimalFrom("4.99")}, nil
	}
	svc := newTestService(platform)

	_, err := svc.StartWithdrawal(context.Background(), testToken, testUserID)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, sessionErr := svc.Session(testUserID); !errors.Is(sessionErr, ErrSessionNotFound) {
		t.Fatalf("expected no session after rejected start, got %v", sessionErr)
	}
}

func TestResolveAdvancesToAmountStep(t *testing.T) {
	svc := newTestService(newFakePlatform())
	startSession(t, svc)

	view, err := svc.ResolveSessionAccount(context.Background(), testToken, testUserID, "011", "0123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != domain.StepAmount {
		t.Fatalf("expected step %q, got %q", domain.StepAmount, view.Step)
	}
	if view.Resolved == nil || view.Resolved.AccountName == "" {
		t.Fatal("expected resolved account on the session")
	}
}

func TestResolveFailureKeepsBankStep(t *testing.T) {
	platform := newFakePlatform()
	platform.resolveBankFn = func(ctx context.Context, token string, req domain.ResolveBankRequest) (*domain.BankResolveResult, error) {
		return nil, platformapi.ErrVerificationFailed
	}
	svc := newTestService(platform)
	startSession(t, svc)

	_, err := svc.ResolveSessionAccount(context.Background(), testToken, testUserID, "011", "0123456789")
	if !errors.Is(err, platformapi.ErrVerificationFailed) {
		t.Fatalf("expected verification failure, got %v", err)
	}

	view, err := svc.Session(testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != domain.StepBank {
		t.Fatalf("expected session to remain in %q, got %q", domain.StepBank, view.Step)
	}
}

func TestResolveRejectsInvalidInputBeforeNetwork(t *testing.T) {
	tests := []struct {
		name          string
		bankCode      string
		accountNumber string
		wantErr       error
	}{
		{name: "missing bank", bankCode: "", accountNumber: "0123456789", wantErr: ErrBankNotSelected},
		{name: "short number", bankCode: "011", accountNumber: "012345678", wantErr: ErrInvalidAccountNumber},
		{name: "long number", bankCode: "011", accountNumber: "01234567890", wantErr: ErrInvalidAccountNumber},
		{name: "non-digit number", bankCode: "011", accountNumber: "01234S6789", wantErr: ErrInvalidAccountNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := newFakePlatform()
			svc := newTestService(platform)
			startSession(t, svc)

			_, err := svc.ResolveSessionAccount(context.Background(), testToken, testUserID, tt.bankCode, tt.accountNumber)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if platform.callCount("ResolveBank") != 0 {
				t.Fatal("expected no resolve call for locally rejected input")
			}
		})
	}
}

func TestStaleResolveCompletionIsDiscarded(t *testing.T) {
	svc := newTestService(newFakePlatform())
	startSession(t, svc)

	sess, token, err := svc.beginResolve(testUserID, "011", "0123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The contributor changes the selection while the first verification is
	// still in flight.
	if err := svc.InvalidateResolve(testUserID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.completeResolve(sess, token, &domain.BankResolveResult{AccountName: "STALE NAME"}, nil)
	if !errors.Is(err, ErrResolveSuperseded) {
		t.Fatalf("expected ErrResolveSuperseded, got %v", err)
	}

	view, err := svc.Session(testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != domain.StepBank {
		t.Fatalf("expected stale completion to leave step %q, got %q", domain.StepBank, view.Step)
	}
	if view.Resolved != nil {
		t.Fatal("expected stale resolve result to be discarded")
	}
}

func TestConcurrentResolveTriggerIsRejected(t *testing.T) {
	svc := newTestService(newFakePlatform())
	startSession(t, svc)

	if _, _, err := svc.beginResolve(testUserID, "011", "0123456789"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := svc.beginResolve(testUserID, "011", "0123456789"); !errors.Is(err, ErrOperationInFlight) {
		t.Fatalf("expected ErrOperationInFlight, got %v", err)
	}
}

func TestResolveForReplacedSessionIsDiscarded(t *testing.T) {
	svc := newTestService(newFakePlatform())
	startSession(t, svc)

	oldSess, oldToken, err := svc.beginResolve(testUserID, "011", "0123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The contributor restarts the workflow while the first verification is
	// still in flight, then verifies a different account in the new session.
	startSession(t, svc)
	newSess, newToken, err := svc.beginResolve(testUserID, "058", "9876543210")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The abandoned session's verification lands first. Its token collides
	// with the new session's, but it must not touch the new session.
	_, err = svc.completeResolve(oldSess, oldToken, &domain.BankResolveResult{
		AccountNumber: "0123456789",
		AccountName:   "ABANDONED SESSION NAME",
		BankCode:      "011",
	}, nil)
	if !errors.Is(err, ErrResolveSuperseded) {
		t.Fatalf("expected ErrResolveSuperseded, got %v", err)
	}

	view, err := svc.Session(testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != domain.StepBank {
		t.Fatalf("expected the new session to stay in %q, got %q", domain.StepBank, view.Step)
	}
	if view.Resolved != nil {
		t.Fatalf("expected no resolve result on the new session, got %+v", view.Resolved)
	}
	// The new session's verification is still in flight, so it stays busy.
	if _, _, err := svc.beginResolve(testUserID, "058", "9876543210"); !errors.Is(err, ErrOperationInFlight) {
		t.Fatalf("expected ErrOperationInFlight while the new resolve is outstanding, got %v", err)
	}

	// The new session's own verification still completes normally.
	view, err = svc.completeResolve(newSess, newToken, &domain.BankResolveResult{
		AccountNumber: "9876543210",
		AccountName:   "CURRENT SESSION NAME",
		BankCode:      "058",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != domain.StepAmount {
		t.Fatalf("expected step %q, got %q", domain.StepAmount, view.Step)
	}
	if view.Resolved == nil || view.Resolved.AccountName != "CURRENT SESSION NAME" {
		t.Fatalf("expected the new session's own result, got %+v", view.Resolved)
	}
}

func TestSetWithdrawalAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{name: "accepts amount above floor", amount: "10.00"},
		{name: "accepts amount equal to floor", amount: "5.00"},
		{name: "accepts full balance", amount: "25.00"},
		{name: "rejects amount below floor", amount: "4.99", wantErr: ErrBelowMinimum},
		{name: "rejects zero amount", amount: "0", wantErr: ErrInvalidAmount},
		{name: "rejects negative amount", amount: "-5.00", wantErr: ErrInvalidAmount},
		{name: "rejects amount over balance", amount: "25.01", wantErr: ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newFakePlatform())
			advanceToAmount(t, svc)

			view, err := svc.SetWithdrawalAmount(testUserID, decimalFrom(tt.amount))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				current, sessionErr := svc.Session(testUserID)
				if sessionErr != nil {
					t.Fatalf("unexpected error: %v", sessionErr)
				}
				if current.Step != domain.StepAmount {
					t.Fatalf("expected rejected amount to leave step %q, got %q", domain.StepAmount, current.Step)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if view.Step != domain.StepConfirm {
				t.Fatalf("expected step %q, got %q", domain.StepConfirm, view.Step)
			}
			if view.Summary == nil {
				t.Fatal("expected confirmation summary")
			}
			if !view.Summary.Amount.Equal(decimalFrom(tt.amount)) {
				t.Fatalf("expected summary amount %s, got %s", tt.amount, view.Summary.Amount)
			}
		})
	}
}

func TestAmountFloorCheckedBeforeBalance(t *testing.T) {
	platform := newFakePlatform()
	platform.balanceFn = func(ctx context.Context, token string) (*domain.BalanceSummary, error) {
		return &domain.BalanceSummary{AvailableBalance: decimalFrom("6.00")}, nil
	}
	svc := newTestService(platform)
	advanceToAmount(t, svc)

	// 3.00 violates both the floor and nothing else; it must surface the
	// floor error, not a generic one.
	_, err := svc.SetWithdrawalAmount(testUserID, decimalFrom("3.00"))
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
}

func TestBackTransitions(t *testing.T) {
	svc := newTestService(newFakePlatform())
	advanceToAmount(t, svc)
	if _, err := svc.SetWithdrawalAmount(testUserID, decimalFrom("10.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := svc.Back(testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != domain.StepAmount {
		t.Fatalf("expected confirm to step back to %q, got %q", domain.StepAmount, view.Step)
	}
	if view.Resolved == nil {
		t.Fatal("expected resolved account to survive confirm -> amount")
	}

	view, err = svc.Back(testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != domain.StepBank {
		t.Fatalf("expected amount to step back to %q, got %q", domain.StepBank, view.Step)
	}

	if _, err := svc.Back(testUserID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected no back transition from the bank step, got %v", err)
	}
}

func TestSubmitWithdrawalTearsDownSession(t *testing.T) {
	svc := newTestService(newFakePlatform())
	advanceToAmount(t, svc)
	if _, err := svc.SetWithdrawalAmount(testUserID, decimalFrom("10.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	receipt, err := svc.SubmitWithdrawal(context.Background(), testToken, testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Reference == "" {
		t.Fatal("expected a receipt reference")
	}
	if _, err := svc.Session(testUserID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session teardown after submission, got %v", err)
	}
}

func TestSubmitFailureKeepsConfirmStepForRetry(t *testing.T) {
	platform := newFakePlatform()
	submitErr := errors.New("gateway timeout")
	platform.requestWithdrawalFn = func(ctx context.Context, token string, req domain.WithdrawalRequest) (*domain.WithdrawalReceipt, error) {
		return nil, submitErr
	}
	svc := newTestService(platform)
	advanceToAmount(t, svc)
	if _, err := svc.SetWithdrawalAmount(testUserID, decimalFrom("10.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SubmitWithdrawal(context.Background(), testToken, testUserID); !errors.Is(err, submitErr) {
		t.Fatalf("expected submit error to propagate, got %v", err)
	}

	view, err := svc.Session(testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != domain.StepConfirm {
		t.Fatalf("expected failed submit to stay in %q, got %q", domain.StepConfirm, view.Step)
	}

	// No automatic retry happened.
	if platform.callCount("RequestWithdrawal") != 1 {
		t.Fatalf("expected exactly one submission attempt, got %d", platform.callCount("RequestWithdrawal"))
	}
}

func TestIdempotencyKeyReusedAcrossRetrySameAmount(t *testing.T) {
	platform := newFakePlatform()
	var keys []string
	attempt := 0
	platform.requestWithdrawalFn = func(ctx context.Context, token string, req domain.WithdrawalRequest) (*domain.WithdrawalReceipt, error) {
		keys = append(keys, req.IdempotencyKey)
		attempt++
		if attempt == 1 {
			return nil, errors.New("transient failure")
		}
		return &domain.WithdrawalReceipt{Reference: "wd_retry_ref", Amount: req.Amount, Status: "processing"}, nil
	}
	svc := newTestService(platform)
	advanceToAmount(t, svc)
	if _, err := svc.SetWithdrawalAmount(testUserID, decimalFrom("10.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SubmitWithdrawal(context.Background(), testToken, testUserID); err == nil {
		t.Fatal("expected first submission to fail")
	}
	if _, err := svc.SubmitWithdrawal(context.Background(), testToken, testUserID); err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}

	if len(keys) != 2 {
		t.Fatalf("expected two submission attempts, got %d", len(keys))
	}
	if keys[0] == "" {
		t.Fatal("expected a non-empty idempotency key")
	}
	if keys[0] != keys[1] {
		t.Fatalf("expected retry to reuse the idempotency key, got %q then %q", keys[0], keys[1])
	}
}

func TestIdempotencyKeyRemintedWhenAmountChanges(t *testing.T) {
	platform := newFakePlatform()
	var keys []string
	platform.requestWithdrawalFn = func(ctx context.Context, token string, req domain.WithdrawalRequest) (*domain.WithdrawalReceipt, error) {
		keys = append(keys, req.IdempotencyKey)
		return nil, errors.New("transient failure")
	}
	svc := newTestService(platform)
	advanceToAmount(t, svc)

	if _, err := svc.SetWithdrawalAmount(testUserID, decimalFrom("10.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SubmitWithdrawal(context.Background(), testToken, testUserID); err == nil {
		t.Fatal("expected submission to fail")
	}

	// Go back and pick a different amount: a new intent, a new key.
	if _, err := svc.Back(testUserID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SetWithdrawalAmount(testUserID, decimalFrom("15.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SubmitWithdrawal(context.Background(), testToken, testUserID); err == nil {
		t.Fatal("expected submission to fail")
	}

	if len(keys) != 2 {
		t.Fatalf("expected two submission attempts, got %d", len(keys))
	}
	if keys[0] == keys[1] {
		t.Fatal("expected a fresh idempotency key after the amount changed")
	}
}

func TestDuplicateSubmissionShortCircuitsOnRecordedReceipt(t *testing.T) {
	platform := newFakePlatform()
	recorded := &domain.WithdrawalReceipt{Reference: "wd_recorded", Amount: decimalFrom("10.00"), Status: "processing"}
	store := newMemoryIdempotencyStore()
	store.receipts["replayed-key"] = recorded
	svc := NewService(platform, nil, nil, store)
	advanceToAmount(t, svc)
	if _, err := svc.SetWithdrawalAmount(testUserID, decimalFrom("10.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Pin the session to the key the store already holds a receipt for,
	// modelling a replay of an already processed intent.
	svc.mu.Lock()
	svc.sessions[testUserID].idempotencyKey = "replayed-key"
	svc.mu.Unlock()

	receipt, err := svc.SubmitWithdrawal(context.Background(), testToken, testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Reference != recorded.Reference {
		t.Fatalf("expected recorded receipt %q, got %q", recorded.Reference, receipt.Reference)
	}
	if platform.callCount("RequestWithdrawal") != 0 {
		t.Fatalf("expected the replay to skip the platform call, got %d calls", platform.callCount("RequestWithdrawal"))
	}
	if _, err := svc.Session(testUserID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session teardown after short-circuit, got %v", err)
	}
}

func TestSubmissionRecordsReceiptByKey(t *testing.T) {
	platform := newFakePlatform()
	var submittedKey string
	platform.requestWithdrawalFn = func(ctx context.Context, token string, req domain.WithdrawalRequest) (*domain.WithdrawalReceipt, error) {
		submittedKey = req.IdempotencyKey
		return &domain.WithdrawalReceipt{Reference: "wd_new", Amount: req.Amount, Status: "processing"}, nil
	}
	store := newMemoryIdempotencyStore()
	svc := NewService(platform, nil, nil, store)
	advanceToAmount(t, svc)
	if _, err := svc.SetWithdrawalAmount(testUserID, decimalFrom("10.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SubmitWithdrawal(context.Background(), testToken, testUserID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if submittedKey == "" {
		t.Fatal("expected a non-empty idempotency key on the wire")
	}
	if store.receipts[submittedKey] == nil {
		t.Fatal("expected receipt to be recorded under the submitted key")
	}
}

func TestRefreshAfterAbandonIsDiscarded(t *testing.T) {
	svc := newTestService(newFakePlatform())
	startSession(t, svc)

	svc.AbandonWithdrawal(testUserID)

	if _, err := svc.RefreshSessionBalance(context.Background(), testToken, testUserID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected refresh after abandon to fail, got %v", err)
	}
}

func TestRefreshBalanceUpdatesSnapshot(t *testing.T) {
	platform := newFakePlatform()
	available := "25.00"
	platform.balanceFn = func(ctx context.Context, token string) (*domain.BalanceSummary, error) {
		return &domain.BalanceSummary{AvailableBalance: decimalFrom(available)}, nil
	}
	svc := newTestService(platform)
	startSession(t, svc)

	available = "40.00"
	view, err := svc.RefreshSessionBalance(context.Background(), testToken, testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.Balance.AvailableBalance.Equal(decimalFrom("40.00")) {
		t.Fatalf("expected refreshed balance 40.00, got %s", view.Balance.AvailableBalance)
	}
}

func TestRefreshForReplacedSessionIsDiscarded(t *testing.T) {
	platform := newFakePlatform()
	entered := make(chan struct{})
	release := make(chan struct{})
	refreshing := false
	platform.balanceFn = func(ctx context.Context, token string) (*domain.BalanceSummary, error) {
		if refreshing {
			close(entered)
			<-release
			return &domain.BalanceSummary{AvailableBalance: decimalFrom("10.00")}, nil
		}
		return &domain.BalanceSummary{AvailableBalance: decimalFrom("25.00")}, nil
	}
	svc := newTestService(platform)
	startSession(t, svc)

	refreshing = true
	refreshErr := make(chan error, 1)
	go func() {
		_, err := svc.RefreshSessionBalance(context.Background(), testToken, testUserID)
		refreshErr <- err
	}()
	<-entered

	// The workflow restarts while the refresh is still in flight. The
	// replacement session loads its own fresh snapshot.
	refreshing = false
	startSession(t, svc)

	close(release)
	if err := <-refreshErr; !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected the late refresh to be discarded, got %v", err)
	}

	view, err := svc.Session(testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.Balance.AvailableBalance.Equal(decimalFrom("25.00")) {
		t.Fatalf("expected the replacement session's own balance 25.00, got %s", view.Balance.AvailableBalance)
	}
}

func TestConcurrentStartAndReadsAreSafe(t *testing.T) {
	svc := newTestService(newFakePlatform())
	startSession(t, svc)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := svc.StartWithdrawal(context.Background(), testToken, testUserID); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if _, err := svc.Session(testUserID); err != nil && !errors.Is(err, ErrSessionNotFound) {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestStartWithdrawalReplacesExistingSession(t *testing.T) {
	svc := newTestService(newFakePlatform())
	advanceToAmount(t, svc)

	view := startSession(t, svc)
	if view.Step != domain.StepBank {
		t.Fatalf("expected restart to reset to %q, got %q", domain.StepBank, view.Step)
	}
	if view.Resolved != nil {
		t.Fatal("expected restart to drop the previous resolve result")
	}
}
