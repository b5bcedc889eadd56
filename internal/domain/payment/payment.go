package payment

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/events"
	"gearshare/internal/domain/shared/money"
)

var (
	ErrInvalidAmount     = errors.New("payment: amount must be positive")
	ErrInvalidState      = errors.New("payment: invalid state transition")
	ErrNotCompleted      = errors.New("payment: not completed")
	ErrRefundExceedsPaid = errors.New("payment: refund exceeds captured amount")
	ErrRetriesExhausted  = errors.New("payment: retries exhausted")
	ErrPaymentNotFound   = errors.New("payment: not found")
	ErrConcurrentUpdate  = errors.New("payment: concurrent update detected")
)

type PaymentID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Payment tracks one authorization attempt against the provider. A rental may
// accumulate superseded attempts; at most one is active. The hold is sized at
// rental amount plus deposit in a single provider intent, separated logically.
type Payment struct {
	ID               PaymentID
	RentalID         rental.RentalID
	ProviderIntentID string
	Amount           money.Money
	DepositAmount    money.Money
	Status           Status
	RetryCount       int
	DeclineCode      string
	DeclineMessage   string
	RefundedCents    int64
	PaidAt           time.Time
	FailedAt         time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id PaymentID) (*Payment, error)
	ByProviderIntent(ctx context.Context, intentID string) (*Payment, error)
	// LatestByRental returns the most recent attempt for the rental.
	LatestByRental(ctx context.Context, id rental.RentalID) (*Payment, error)
	Save(ctx context.Context, p *Payment) error
}

type CreateParams struct {
	ID               PaymentID
	RentalID         rental.RentalID
	ProviderIntentID string
	Amount           money.Money
	DepositAmount    money.Money
	Now              time.Time
}

// New persists intent: a fresh Pending attempt for the rental's charge.
func New(params CreateParams) (*Payment, error) {
	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if params.DepositAmount.Amount < 0 {
		return nil, money.ErrNegativeAmount
	}
	if params.DepositAmount.Amount > 0 && params.DepositAmount.Currency != params.Amount.Currency {
		return nil, money.ErrCurrencyMismatch
	}
	now := params.Now.UTC()
	p := &Payment{
		ID:               params.ID,
		RentalID:         params.RentalID,
		ProviderIntentID: params.ProviderIntentID,
		Amount:           params.Amount,
		DepositAmount:    params.DepositAmount,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	p.Record(HoldCreated{PaymentID: p.ID, RentalID: p.RentalID, Amount: p.Amount, Deposit: p.DepositAmount, At: now})
	return p, nil
}

// NextAttempt derives a fresh Pending attempt from a failed one. The attempt
// counter is carried forward so the retry bound survives across rows.
func (p *Payment) NextAttempt(id PaymentID, intentID string, maxAttempts int, now time.Time) (*Payment, error) {
	if p.Status != StatusFailed {
		return nil, ErrInvalidState
	}
	if p.RetryCount+1 >= maxAttempts {
		return nil, ErrRetriesExhausted
	}
	next, err := New(CreateParams{
		ID:               id,
		RentalID:         p.RentalID,
		ProviderIntentID: intentID,
		Amount:           p.Amount,
		DepositAmount:    p.DepositAmount,
		Now:              now,
	})
	if err != nil {
		return nil, err
	}
	next.RetryCount = p.RetryCount + 1
	return next, nil
}

// HoldTotal is the provider-side authorization size: rental charge plus deposit.
func (p *Payment) HoldTotal() money.Money {
	return money.Money{Amount: p.Amount.Amount + p.DepositAmount.Amount, Currency: p.Amount.Currency}
}

// MarkCompleted applies a "succeeded" provider notification. Only a Pending
// attempt may complete; a stale event against a Failed row must not upgrade it.
func (p *Payment) MarkCompleted(now time.Time) error {
	if p.Status != StatusPending {
		return ErrInvalidState
	}
	p.Status = StatusCompleted
	p.PaidAt = now.UTC()
	p.UpdatedAt = p.PaidAt
	p.Record(PaymentCompleted{PaymentID: p.ID, RentalID: p.RentalID, Amount: p.Amount, At: p.PaidAt})
	return nil
}

// MarkFailed applies a "failed" provider notification, preserving the decline
// reason. Only valid from Pending: a delayed failure must never downgrade a
// completed charge.
func (p *Payment) MarkFailed(code, message string, now time.Time) error {
	if p.Status != StatusPending {
		return ErrInvalidState
	}
	p.Status = StatusFailed
	p.DeclineCode = code
	p.DeclineMessage = message
	p.FailedAt = now.UTC()
	p.UpdatedAt = p.FailedAt
	p.Record(PaymentFailed{PaymentID: p.ID, RentalID: p.RentalID, Code: code, Message: message, At: p.FailedAt})
	return nil
}

// Refund records a compensating ledger entry against a completed payment. It
// does not touch the rental's state; the cancellation path owns that.
func (p *Payment) Refund(amount money.Money, now time.Time) error {
	if p.Status != StatusCompleted {
		return ErrNotCompleted
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.Currency != p.Amount.Currency {
		return money.ErrCurrencyMismatch
	}
	if p.RefundedCents+amount.Amount > p.Amount.Amount {
		return ErrRefundExceedsPaid
	}
	p.RefundedCents += amount.Amount
	p.UpdatedAt = now.UTC()
	p.Record(PaymentRefunded{PaymentID: p.ID, RentalID: p.RentalID, Amount: amount, At: p.UpdatedAt})
	return nil
}
