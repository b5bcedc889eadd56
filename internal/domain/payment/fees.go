package payment

import (
	"errors"
	"math"

	"gearshare/internal/domain/shared/money"
)

var ErrInvalidFeeRate = errors.New("payment: fee rate must be within [0, 1]")

// Split divides a captured charge between the platform and the item's owner.
// The two parts always sum to the total exactly.
type Split struct {
	PlatformFee money.Money
	OwnerPayout money.Money
}

// ComputeSplit is a pure function: the platform fee is total times rate rounded
// half-up to the nearest cent, the owner payout is the remainder. The rate is a
// configuration value supplied by the caller so it can vary per category or
// promotion.
func ComputeSplit(total money.Money, rate float64) (Split, error) {
	if rate < 0 || rate > 1 {
		return Split{}, ErrInvalidFeeRate
	}
	if total.Amount < 0 {
		return Split{}, ErrInvalidAmount
	}
	// The rate is applied on integer basis points so decimal half boundaries
	// round exactly; float multiplication under-represents products like
	// 100 x 0.145.
	rateBasisPoints := int64(math.Round(rate * 10000))
	fee := (total.Amount*rateBasisPoints + 5000) / 10000
	return Split{
		PlatformFee: money.Money{Amount: fee, Currency: total.Currency},
		OwnerPayout: money.Money{Amount: total.Amount - fee, Currency: total.Currency},
	}, nil
}
