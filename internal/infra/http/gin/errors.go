package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	domainavailability "gearshare/internal/domain/availability"
	domainitem "gearshare/internal/domain/item"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
	domainrange "gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
	mongodb "gearshare/internal/infra/db/mongo"
)

// respondError maps domain sentinels onto HTTP statuses. A conflict response
// carries the blocking rental and window ids so the client can show which
// dates are taken.
func respondError(c *gin.Context, err error) {
	var conflict *domainavailability.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":      conflict.Error(),
			"rental_ids": conflict.RentalIDs,
			"window_ids": conflict.WindowIDs,
		})
		return
	}
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainitem.ErrItemNotFound),
		errors.Is(err, domainrental.ErrRentalNotFound),
		errors.Is(err, domainpayment.ErrPaymentNotFound),
		errors.Is(err, domainpayment.ErrDepositNotFound),
		errors.Is(err, domainavailability.ErrWindowNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainitem.ErrNotOwner),
		errors.Is(err, domainrental.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, domainavailability.ErrOverlappingRange),
		errors.Is(err, domainrental.ErrInvalidState),
		errors.Is(err, domainrental.ErrPaymentOutstanding),
		errors.Is(err, domainrental.ErrConcurrentUpdate),
		errors.Is(err, domainpayment.ErrInvalidState),
		errors.Is(err, domainpayment.ErrRetriesExhausted),
		errors.Is(err, domainpayment.ErrConcurrentUpdate),
		errors.Is(err, domainpayment.ErrDepositAlreadyHeld),
		errors.Is(err, domainpayment.ErrDepositNotHeld),
		errors.Is(err, domainpayment.ErrDepositOvercharge),
		errors.Is(err, domainpayment.ErrRefundExceedsPaid),
		errors.Is(err, domainitem.ErrItemInactive),
		errors.Is(err, mongodb.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainitem.ErrInvalidRentalType),
		errors.Is(err, domainpayment.ErrInvalidAmount),
		errors.Is(err, domainrental.ErrRenterRequired),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, money.ErrNegativeAmount),
		errors.Is(err, domainpayment.ErrInvalidFeeRate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
