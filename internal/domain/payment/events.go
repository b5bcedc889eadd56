package payment

import (
	"time"

	"gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/money"
)

type HoldCreated struct {
	PaymentID PaymentID
	RentalID  rental.RentalID
	Amount    money.Money
	Deposit   money.Money
	At        time.Time
}

func (e HoldCreated) EventName() string     { return "payment.hold_created" }
func (e HoldCreated) AggregateID() string   { return string(e.PaymentID) }
func (e HoldCreated) OccurredAt() time.Time { return e.At }

type PaymentCompleted struct {
	PaymentID PaymentID
	RentalID  rental.RentalID
	Amount    money.Money
	At        time.Time
}

func (e PaymentCompleted) EventName() string     { return "payment.completed" }
func (e PaymentCompleted) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentCompleted) OccurredAt() time.Time { return e.At }

type PaymentFailed struct {
	PaymentID PaymentID
	RentalID  rental.RentalID
	Code      string
	Message   string
	At        time.Time
}

func (e PaymentFailed) EventName() string     { return "payment.failed" }
func (e PaymentFailed) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentFailed) OccurredAt() time.Time { return e.At }

type PaymentRefunded struct {
	PaymentID PaymentID
	RentalID  rental.RentalID
	Amount    money.Money
	At        time.Time
}

func (e PaymentRefunded) EventName() string     { return "payment.refunded" }
func (e PaymentRefunded) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentRefunded) OccurredAt() time.Time { return e.At }

type DepositHeldEvent struct {
	RentalID rental.RentalID
	Amount   money.Money
	At       time.Time
}

func (e DepositHeldEvent) EventName() string     { return "deposit.held" }
func (e DepositHeldEvent) AggregateID() string   { return string(e.RentalID) }
func (e DepositHeldEvent) OccurredAt() time.Time { return e.At }

type DepositChargedEvent struct {
	RentalID rental.RentalID
	Amount   money.Money
	At       time.Time
}

func (e DepositChargedEvent) EventName() string     { return "deposit.charged" }
func (e DepositChargedEvent) AggregateID() string   { return string(e.RentalID) }
func (e DepositChargedEvent) OccurredAt() time.Time { return e.At }

type DepositReleasedEvent struct {
	RentalID rental.RentalID
	Amount   money.Money
	At       time.Time
}

func (e DepositReleasedEvent) EventName() string     { return "deposit.released" }
func (e DepositReleasedEvent) AggregateID() string   { return string(e.RentalID) }
func (e DepositReleasedEvent) OccurredAt() time.Time { return e.At }
