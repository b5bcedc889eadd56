package item

import (
	"context"
	"errors"
	"strings"
	"time"

	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/events"
	"gearshare/internal/domain/shared/money"
)

var (
	ErrTitleRequired     = errors.New("item: title is required")
	ErrOwnerRequired     = errors.New("item: owner id is required")
	ErrNegativeRate      = errors.New("item: rates must be non-negative")
	ErrNegativeDeposit   = errors.New("item: deposit must be non-negative")
	ErrCurrencyRequired  = errors.New("item: currency is required")
	ErrNoRates           = errors.New("item: at least one rate must be set")
	ErrInvalidRentalType = errors.New("item: rate not offered for requested rental type")
	ErrItemNotFound      = errors.New("item: not found")
	ErrNotOwner          = errors.New("item: caller is not the owner")
	ErrItemInactive      = errors.New("item: not available for booking")
)

type ItemID string
type OwnerID string

// RentalType selects which rate family prices a rental.
type RentalType string

const (
	RentHourly RentalType = "HOURLY"
	RentDaily  RentalType = "DAILY"
	RentWeekly RentalType = "WEEKLY"
)

// RateTable holds the per-unit prices for an item in minor currency units.
// A zero rate means the owner does not offer that rental type.
type RateTable struct {
	HourlyCents int64
	DailyCents  int64
	WeeklyCents int64
	Currency    string
}

func (rt RateTable) validate() error {
	if rt.HourlyCents < 0 || rt.DailyCents < 0 || rt.WeeklyCents < 0 {
		return ErrNegativeRate
	}
	if rt.HourlyCents == 0 && rt.DailyCents == 0 && rt.WeeklyCents == 0 {
		return ErrNoRates
	}
	if len(rt.Currency) != 3 {
		return ErrCurrencyRequired
	}
	return nil
}

// Quote prices the interval using the requested rate family.
// Hourly rentals bill ceil(hours); daily bill max(1, days); weekly bill
// max(1, ceil(days/7)). Returns ErrInvalidRentalType when the family has no rate.
func (rt RateTable) Quote(rentalType RentalType, dr daterange.DateRange) (money.Money, error) {
	var units, rate int64
	switch rentalType {
	case RentHourly:
		rate = rt.HourlyCents
		units = int64(dr.Hours())
	case RentDaily:
		rate = rt.DailyCents
		units = int64(dr.Days())
		if units < 1 {
			units = 1
		}
	case RentWeekly:
		rate = rt.WeeklyCents
		units = int64((dr.Days() + 6) / 7)
		if units < 1 {
			units = 1
		}
	default:
		return money.Money{}, ErrInvalidRentalType
	}
	if rate == 0 {
		return money.Money{}, ErrInvalidRentalType
	}
	return money.New(rate*units, rt.Currency)
}

// Item is a rentable asset. Rates and deposit are owned by the listing side;
// the booking core reads them and never mutates them.
type Item struct {
	ID           ItemID
	Owner        OwnerID
	Title        string
	Description  string
	Category     string
	Rates        RateTable
	DepositCents int64
	Active       bool
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ItemID) (*Item, error)
	Save(ctx context.Context, it *Item) error
}

type CreateParams struct {
	ID           ItemID
	Owner        OwnerID
	Title        string
	Description  string
	Category     string
	Rates        RateTable
	DepositCents int64
	Now          time.Time
}

func New(params CreateParams) (*Item, error) {
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if err := params.Rates.validate(); err != nil {
		return nil, err
	}
	if params.DepositCents < 0 {
		return nil, ErrNegativeDeposit
	}
	now := params.Now.UTC()
	return &Item{
		ID:           params.ID,
		Owner:        params.Owner,
		Title:        params.Title,
		Description:  params.Description,
		Category:     params.Category,
		Rates:        params.Rates,
		DepositCents: params.DepositCents,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Deposit returns the security deposit as money, zero when the owner asks none.
func (i *Item) Deposit() money.Money {
	return money.Money{Amount: i.DepositCents, Currency: i.Rates.Currency}
}

// OwnedBy reports whether the given actor owns the item.
func (i *Item) OwnedBy(actor OwnerID) bool {
	return i.Owner == actor
}
