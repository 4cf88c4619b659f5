/**
 * @description
 * This file implements the withdrawal workflow state machine. A contributor
 * moves through bank -> amount -> confirm, linearly, with Back transitions
 * from amount to bank and from confirm to amount only. Each user has at most
 * one in-memory session; nothing about a session is persisted.
 *
 * Key features:
 * - One in-flight verification or submission per session, guarded by a busy
 *   flag. A second trigger is rejected, never run in parallel.
 * - Resolve attempts carry a token; a completion whose token has been
 *   superseded (the selection changed mid-verification) is discarded.
 * - The submission carries an idempotency key minted when the session first
 *   reaches confirm and re-minted when the amount changes. A retry after a
 *   transient failure reuses the key, so one user intent cannot pay out
 *   twice.
 * - Step failures are recoverable: the session stays in its current state
 *   and the error surfaces to the caller.
 */
package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/my-edutu/monetization-service/internal/domain"
	"github.com/my-edutu/monetization-service/pkg/rabbitmq"
	"github.com/shopspring/decimal"
)

// WithdrawalSession is one contributor's active withdrawal workflow.
type WithdrawalSession struct {
	userID string

	step domain.WithdrawalStep
	busy bool

	// resolveSeq is bumped on every resolve attempt and on every selection
	// change; a completion presenting an older token is stale and dropped.
	resolveSeq uint64

	banks    []domain.Bank
	linked   *domain.LinkedBank
	balance  *domain.BalanceSummary
	resolved *domain.BankResolveResult

	amount    decimal.Decimal
	amountSet bool

	idempotencyKey string
	keyAmount      decimal.Decimal

	lastActive time.Time
}

func (sess *WithdrawalSession) touch() {
	sess.lastActive = time.Now()
}

// SessionView is a read-only snapshot of a session handed to the API layer.
type SessionView struct {
	Step     domain.WithdrawalStep     `json:"step"`
	Banks    []domain.Bank             `json:"banks"`
	Linked   *domain.LinkedBank        `json:"linked_bank,omitempty"`
	Balance  *domain.BalanceSummary    `json:"balance,omitempty"`
	Resolved *domain.BankResolveResult `json:"resolved,omitempty"`
	Amount   *decimal.Decimal          `json:"amount,omitempty"`
	Summary  *domain.WithdrawalSummary `json:"summary,omitempty"`
}

func (sess *WithdrawalSession) view() *SessionView {
	v := &SessionView{
		Step:     sess.step,
		Banks:    sess.banks,
		Linked:   sess.linked,
		Balance:  sess.balance,
		Resolved: sess.resolved,
	}
	if sess.amountSet {
		amount := sess.amount
		v.Amount = &amount
	}
	if sess.step == domain.StepConfirm && sess.resolved != nil && sess.amountSet {
		v.Summary = &domain.WithdrawalSummary{
			Amount:  sess.amount,
			Account: *sess.resolved,
		}
	}
	return v
}

// StartWithdrawal creates (or replaces) the user's withdrawal session and
// loads the bank step's entry data: the bank registry, the linked bank if
// any, and a balance snapshot for the amount step. The availability floor is
// checked so an ineligible balance never reaches the amount step.
func (s *Service) StartWithdrawal(ctx context.Context, token, userID string) (*SessionView, error) {
	banks, err := s.platform.ListBanks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank list: %w", err)
	}
	linked, err := s.platform.GetLinkedBank(ctx, token)
	if err != nil {
		// A missing linked bank is not fatal to starting the flow; the
		// contributor can still resolve a fresh account.
		log.Printf("level=warn component=withdrawal msg=\"linked bank fetch failed; continuing without\" user_id=%s err=%v", userID, err)
		linked = nil
	}
	balance, err := s.platform.GetBalanceSummary(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}
	if balance.AvailableBalance.LessThan(domain.MinimumWithdrawal) {
		return nil, ErrInsufficientFunds
	}

	sess := &WithdrawalSession{
		userID:     userID,
		step:       domain.StepBank,
		banks:      banks,
		linked:     linked,
		balance:    balance,
		lastActive: time.Now(),
	}

	s.mu.Lock()
	s.sessions[userID] = sess
	view := sess.view()
	s.mu.Unlock()

	log.Printf("level=info component=withdrawal msg=\"session started\" user_id=%s banks=%d linked=%t", userID, len(banks), linked != nil)
	return view, nil
}

// Session returns the current snapshot of the user's session.
func (s *Service) Session(userID string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.view(), nil
}

// AbandonWithdrawal tears down the user's session, if any. Responses from
// calls still in flight for the torn-down session are discarded on arrival.
func (s *Service) AbandonWithdrawal(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// session fetches the live session for internal state transitions.
func (s *Service) session(userID string) (*WithdrawalSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// beginResolve validates the resolve preconditions under the lock and marks
// the session busy. It returns the session instance and the token the
// completion must present; both are checked again on completion.
func (s *Service) beginResolve(userID, bankCode, accountNumber string) (*WithdrawalSession, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, 0, ErrSessionNotFound
	}
	if sess.step != domain.StepBank {
		return nil, 0, ErrInvalidTransition
	}
	if sess.busy {
		return nil, 0, ErrOperationInFlight
	}
	if strings.TrimSpace(bankCode) == "" {
		return nil, 0, ErrBankNotSelected
	}
	if !validAccountNumber(strings.TrimSpace(accountNumber)) {
		return nil, 0, ErrInvalidAccountNumber
	}
	sess.busy = true
	sess.resolveSeq++
	sess.touch()
	return sess, sess.resolveSeq, nil
}

// completeResolve applies a resolve outcome to the session that initiated
// it. The outcome is discarded when that session is no longer the user's
// live one (abandoned or replaced mid-flight) or when its token has been
// superseded by a selection change; the live session only ever displays the
// result of its own last initiated attempt.
func (s *Service) completeResolve(sess *WithdrawalSession, token uint64, result *domain.BankResolveResult, resolveErr error) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[sess.userID]
	if !ok || current != sess {
		log.Printf("level=info component=withdrawal msg=\"resolve for replaced session discarded\" user_id=%s token=%d", sess.userID, token)
		return nil, ErrResolveSuperseded
	}
	if token != sess.resolveSeq {
		log.Printf("level=info component=withdrawal msg=\"stale resolve discarded\" user_id=%s token=%d current=%d", sess.userID, token, sess.resolveSeq)
		return nil, ErrResolveSuperseded
	}
	sess.busy = false
	sess.touch()
	if resolveErr != nil {
		// Verification failed: stay in the bank step, surface the error.
		return nil, resolveErr
	}
	sess.resolved = result
	sess.step = domain.StepAmount
	return sess.view(), nil
}

// InvalidateResolve marks any in-flight resolve stale. Called when the
// contributor changes the selected bank or account mid-verification.
func (s *Service) InvalidateResolve(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.resolveSeq++
	sess.busy = false
	sess.touch()
	return nil
}

// ResolveSessionAccount runs the bank step's verification: locally validated
// preconditions, then a registry resolve through the platform API. Success
// advances the session to the amount step; failure keeps it in bank.
func (s *Service) ResolveSessionAccount(ctx context.Context, token, userID, bankCode, accountNumber string) (*SessionView, error) {
	sess, resolveToken, err := s.beginResolve(userID, bankCode, accountNumber)
	if err != nil {
		return nil, err
	}

	result, resolveErr := s.ResolveAccount(ctx, token, userID, bankCode, accountNumber)
	return s.completeResolve(sess, resolveToken, result, resolveErr)
}

// SetWithdrawalAmount validates the amount step. The floor check runs before
// the balance check so each violation gets its specific message; success
// advances to confirm and mints (or re-mints) the idempotency key.
func (s *Service) SetWithdrawalAmount(userID string, amount decimal.Decimal) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.step != domain.StepAmount {
		return nil, ErrInvalidTransition
	}
	if sess.busy {
		return nil, ErrOperationInFlight
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if amount.LessThan(domain.MinimumWithdrawal) {
		return nil, ErrBelowMinimum
	}
	if sess.balance == nil || amount.GreaterThan(sess.balance.AvailableBalance) {
		return nil, ErrInsufficientFunds
	}

	sess.amount = amount
	sess.amountSet = true
	sess.step = domain.StepConfirm
	sess.touch()

	// A changed amount is a new user intent and gets a fresh key; retrying
	// the same amount after a transient failure keeps the old one.
	if sess.idempotencyKey == "" || !sess.keyAmount.Equal(amount) {
		sess.idempotencyKey = uuid.NewString()
		sess.keyAmount = amount
	}
	return sess.view(), nil
}

// RefreshSessionBalance re-fetches the balance snapshot. This is the
// explicit refresh control; entering the amount step never re-fetches on
// its own.
func (s *Service) RefreshSessionBalance(ctx context.Context, token, userID string) (*SessionView, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.platform.GetBalanceSummary(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh balance: %w", err)
	}

	// Re-lookup: the session may have been abandoned or replaced while the
	// fetch was in flight, in which case the late response is discarded
	// rather than written over a newer workflow instance.
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[userID]
	if !ok || current != sess {
		return nil, ErrSessionNotFound
	}
	sess.balance = balance
	sess.touch()
	return sess.view(), nil
}

// Back steps the session backwards: confirm -> amount, amount -> bank. The
// bank step is initial and has no Back. Resolved account data is kept when
// stepping confirm -> amount.
func (s *Service) Back(userID string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.busy {
		return nil, ErrOperationInFlight
	}
	switch sess.step {
	case domain.StepConfirm:
		sess.step = domain.StepAmount
	case domain.StepAmount:
		sess.step = domain.StepBank
		sess.resolved = nil
	default:
		return nil, ErrInvalidTransition
	}
	sess.touch()
	return sess.view(), nil
}

// beginSubmit validates the confirm step under the lock and snapshots the
// request to send.
func (s *Service) beginSubmit(userID string) (*WithdrawalSession, domain.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, domain.WithdrawalRequest{}, ErrSessionNotFound
	}
	if sess.step != domain.StepConfirm {
		return nil, domain.WithdrawalRequest{}, ErrInvalidTransition
	}
	if sess.busy {
		return nil, domain.WithdrawalRequest{}, ErrOperationInFlight
	}
	if sess.resolved == nil || !sess.amountSet {
		return nil, domain.WithdrawalRequest{}, ErrInvalidTransition
	}
	sess.busy = true
	sess.touch()
	return sess, domain.WithdrawalRequest{
		Amount:         sess.amount,
		BankCode:       sess.resolved.BankCode,
		AccountNumber:  sess.resolved.AccountNumber,
		AccountName:    sess.resolved.AccountName,
		IdempotencyKey: sess.idempotencyKey,
	}, nil
}

// SubmitWithdrawal performs the terminal submission. Success tears the
// session down and returns the receipt; failure leaves the session in
// confirm for an explicit retry, never an automatic one.
func (s *Service) SubmitWithdrawal(ctx context.Context, token, userID string) (*domain.WithdrawalReceipt, error) {
	sess, req, err := s.beginSubmit(userID)
	if err != nil {
		return nil, err
	}

	// A replayed submission with a recorded receipt short-circuits before
	// the write call reaches the platform.
	if s.idempotency != nil {
		if receipt, lookupErr := s.idempotency.GetReceipt(ctx, req.IdempotencyKey); lookupErr == nil && receipt != nil {
			log.Printf("level=info component=withdrawal msg=\"duplicate submission short-circuited\" user_id=%s key=%s", userID, req.IdempotencyKey)
			s.finishSubmit(sess, true)
			return receipt, nil
		}
	}

	receipt, submitErr := s.platform.RequestWithdrawal(ctx, token, req)
	if submitErr != nil {
		s.finishSubmit(sess, false)
		return nil, submitErr
	}

	if s.idempotency != nil {
		if putErr := s.idempotency.PutReceipt(ctx, req.IdempotencyKey, receipt, s.idempotencyTTL); putErr != nil {
			log.Printf("level=warn component=withdrawal msg=\"failed to record receipt\" user_id=%s key=%s err=%v", userID, req.IdempotencyKey, putErr)
		}
	}

	s.publishEvent(ctx, "withdrawal.submitted", rabbitmq.WithdrawalSubmittedEvent{
		UserID:    userID,
		Reference: receipt.Reference,
		Amount:    req.Amount.String(),
		BankCode:  req.BankCode,
		Timestamp: time.Now().UTC(),
	})

	s.finishSubmit(sess, true)
	log.Printf("level=info component=withdrawal outcome=submitted user_id=%s reference=%s", userID, receipt.Reference)
	return receipt, nil
}

// finishSubmit clears the busy flag and, on success, tears the session
// down. A session that was abandoned or replaced while the submission was
// in flight is left alone.
func (s *Service) finishSubmit(sess *WithdrawalSession, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[sess.userID]
	if !ok || current != sess {
		return
	}
	sess.busy = false
	sess.touch()
	if success {
		delete(s.sessions, sess.userID)
	}
}
