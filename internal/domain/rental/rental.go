package rental

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/events"
	"gearshare/internal/domain/shared/money"
)

var (
	ErrInvalidState       = errors.New("rental: invalid state transition")
	ErrRentalNotFound     = errors.New("rental: not found")
	ErrRenterRequired     = errors.New("rental: renter id required")
	ErrNotParticipant     = errors.New("rental: actor is not a party to this rental")
	ErrPaymentOutstanding = errors.New("rental: payment must be completed first")
	ErrConcurrentUpdate   = errors.New("rental: concurrent update detected")
)

type RentalID string

type State string

const (
	StatePending       State = "PENDING"
	StateApproved      State = "APPROVED"
	StateRejected      State = "REJECTED"
	StateCompleted     State = "COMPLETED"
	StateCancelled     State = "CANCELLED"
	StatePaymentFailed State = "PAYMENT_FAILED"
)

// Terminal reports whether a state admits no further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateRejected, StateCompleted, StateCancelled:
		return true
	}
	return false
}

// Active rentals occupy their interval for conflict checking.
func (s State) Active() bool {
	return s == StatePending || s == StateApproved
}

// Rental is the booking aggregate. It is created by a renter request and then
// driven by owner decisions, renter actions and payment reconciliation. Rentals
// are never physically deleted; Rejected/Cancelled stay around for audit.
type Rental struct {
	ID         RentalID
	ItemID     item.ItemID
	OwnerID    item.OwnerID
	RenterID   string
	Range      daterange.DateRange
	RentalType item.RentalType
	Total      money.Money
	State      State
	// LastDecline preserves the provider's decline reason for the renter.
	LastDecline string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id RentalID) (*Rental, error)
	Save(ctx context.Context, r *Rental) error
	ActiveOverlapping(ctx context.Context, id item.ItemID, dr daterange.DateRange) ([]*Rental, error)
	ListByRenter(ctx context.Context, renterID string) ([]*Rental, error)
	ListByOwner(ctx context.Context, ownerID item.OwnerID) ([]*Rental, error)
	PendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*Rental, error)
}

type CreateParams struct {
	ID         RentalID
	Item       *item.Item
	RenterID   string
	Range      daterange.DateRange
	RentalType item.RentalType
	Now        time.Time
}

// New prices the interval against the item's rate table and produces a Pending
// rental. The caller must have run the availability conflict check inside the
// same transaction scope.
func New(params CreateParams) (*Rental, error) {
	if params.RenterID == "" {
		return nil, ErrRenterRequired
	}
	if !params.Item.Active {
		return nil, item.ErrItemInactive
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	total, err := params.Item.Rates.Quote(params.RentalType, params.Range)
	if err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	r := &Rental{
		ID:         params.ID,
		ItemID:     params.Item.ID,
		OwnerID:    params.Item.Owner,
		RenterID:   params.RenterID,
		Range:      params.Range,
		RentalType: params.RentalType,
		Total:      total,
		State:      StatePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.Record(Requested{RentalID: r.ID, ItemID: r.ItemID, RenterID: r.RenterID, Range: r.Range, Total: r.Total, At: now})
	return r, nil
}

// Approve records the owner's acceptance. Only valid from Pending.
func (r *Rental) Approve(actor item.OwnerID, now time.Time) error {
	if actor != r.OwnerID {
		return ErrNotParticipant
	}
	if r.State != StatePending {
		return ErrInvalidState
	}
	r.transition(StateApproved, now)
	r.Record(Approved{RentalID: r.ID, At: r.UpdatedAt})
	return nil
}

// Reject records the owner's refusal. Only valid from Pending; terminal.
func (r *Rental) Reject(actor item.OwnerID, reason string, now time.Time) error {
	if actor != r.OwnerID {
		return ErrNotParticipant
	}
	if r.State != StatePending {
		return ErrInvalidState
	}
	r.transition(StateRejected, now)
	r.Record(Rejected{RentalID: r.ID, Reason: reason, At: r.UpdatedAt})
	return nil
}

// Cancel withdraws an active rental. Either party may cancel from Pending or
// Approved. Money movement (refund, deposit release) is the caller's duty and
// must be settled before the cancellation is complete.
func (r *Rental) Cancel(actorID string, reason string, now time.Time) error {
	if actorID != r.RenterID && actorID != string(r.OwnerID) {
		return ErrNotParticipant
	}
	if r.State != StatePending && r.State != StateApproved {
		return ErrInvalidState
	}
	r.transition(StateCancelled, now)
	r.Record(Cancelled{RentalID: r.ID, Reason: reason, At: r.UpdatedAt})
	return nil
}

// Expire cancels a Pending rental whose payment hold never completed. No-op
// guard: expiry goes through the same transition rules as any cancellation.
func (r *Rental) Expire(now time.Time) error {
	if r.State != StatePending {
		return ErrInvalidState
	}
	r.transition(StateCancelled, now)
	r.Record(Cancelled{RentalID: r.ID, Reason: "payment hold expired", At: r.UpdatedAt})
	return nil
}

// ConfirmPayment moves the rental forward when reconciliation reports a
// successful charge: Pending becomes Approved, Approved stays put. Terminal
// states are never resurrected, and PaymentFailed is rejected too: a success
// for a failed attempt is stale at the payment layer, so the rental gate
// mirrors it.
func (r *Rental) ConfirmPayment(now time.Time) error {
	switch r.State {
	case StatePending:
		r.transition(StateApproved, now)
		r.Record(Approved{RentalID: r.ID, At: r.UpdatedAt})
		return nil
	case StateApproved:
		return nil
	default:
		return ErrInvalidState
	}
}

// MarkPaymentFailed parks the rental after a failed charge. The renter may
// retry, bounded by the payment's attempt counter.
func (r *Rental) MarkPaymentFailed(reason string, now time.Time) error {
	if r.State != StatePending && r.State != StateApproved {
		return ErrInvalidState
	}
	r.LastDecline = reason
	r.transition(StatePaymentFailed, now)
	r.Record(PaymentFailed{RentalID: r.ID, Reason: reason, At: r.UpdatedAt})
	return nil
}

// RetryPayment returns a PaymentFailed rental to Pending for a fresh attempt.
func (r *Rental) RetryPayment(now time.Time) error {
	if r.State != StatePaymentFailed {
		return ErrInvalidState
	}
	r.transition(StatePending, now)
	r.Record(PaymentRetried{RentalID: r.ID, At: r.UpdatedAt})
	return nil
}

// Complete closes out an Approved rental. paymentCompleted reflects the linked
// payment's persisted status read within the same transaction.
func (r *Rental) Complete(paymentCompleted bool, platformFee, ownerPayout money.Money, now time.Time) error {
	if r.State != StateApproved {
		return ErrInvalidState
	}
	if !paymentCompleted {
		return ErrPaymentOutstanding
	}
	r.transition(StateCompleted, now)
	r.Record(Completed{RentalID: r.ID, Total: r.Total, PlatformFee: platformFee, OwnerPayout: ownerPayout, At: r.UpdatedAt})
	return nil
}

func (r *Rental) transition(next State, now time.Time) {
	r.State = next
	r.UpdatedAt = now.UTC()
}
