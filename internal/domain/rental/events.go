package rental

import (
	"time"

	"gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
)

type Requested struct {
	RentalID RentalID
	ItemID   item.ItemID
	RenterID string
	Range    daterange.DateRange
	Total    money.Money
	At       time.Time
}

func (e Requested) EventName() string     { return "rental.requested" }
func (e Requested) AggregateID() string   { return string(e.RentalID) }
func (e Requested) OccurredAt() time.Time { return e.At }

type Approved struct {
	RentalID RentalID
	At       time.Time
}

func (e Approved) EventName() string     { return "rental.approved" }
func (e Approved) AggregateID() string   { return string(e.RentalID) }
func (e Approved) OccurredAt() time.Time { return e.At }

type Rejected struct {
	RentalID RentalID
	Reason   string
	At       time.Time
}

func (e Rejected) EventName() string     { return "rental.rejected" }
func (e Rejected) AggregateID() string   { return string(e.RentalID) }
func (e Rejected) OccurredAt() time.Time { return e.At }

type Cancelled struct {
	RentalID RentalID
	Reason   string
	At       time.Time
}

func (e Cancelled) EventName() string     { return "rental.cancelled" }
func (e Cancelled) AggregateID() string   { return string(e.RentalID) }
func (e Cancelled) OccurredAt() time.Time { return e.At }

type PaymentFailed struct {
	RentalID RentalID
	Reason   string
	At       time.Time
}

func (e PaymentFailed) EventName() string     { return "rental.payment_failed" }
func (e PaymentFailed) AggregateID() string   { return string(e.RentalID) }
func (e PaymentFailed) OccurredAt() time.Time { return e.At }

type PaymentRetried struct {
	RentalID RentalID
	At       time.Time
}

func (e PaymentRetried) EventName() string     { return "rental.payment_retried" }
func (e PaymentRetried) AggregateID() string   { return string(e.RentalID) }
func (e PaymentRetried) OccurredAt() time.Time { return e.At }

type Completed struct {
	RentalID    RentalID
	Total       money.Money
	PlatformFee money.Money
	OwnerPayout money.Money
	At          time.Time
}

func (e Completed) EventName() string     { return "rental.completed" }
func (e Completed) AggregateID() string   { return string(e.RentalID) }
func (e Completed) OccurredAt() time.Time { return e.At }
