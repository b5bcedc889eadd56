package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gearshare/internal/app/commands"
	RentalApp "gearshare/internal/app/handlers/rental"
	"gearshare/internal/app/queries"
)

type RentalHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	// FeeRate is the platform share applied at completion.
	FeeRate float64
}

type requestRentalRequest struct {
	ItemID     string    `json:"item_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	RentalType string    `json:"rental_type"`
}

func (h RentalHandler) Request(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req requestRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := RentalApp.RequestRentalCommand{
		CommandID:       generateCommandID(),
		ItemID:          req.ItemID,
		RenterID:        user.ID,
		Start:           req.Start,
		End:             req.End,
		RentalType:      req.RentalType,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[RentalApp.RequestRentalCommand, *RentalApp.RequestRentalResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type decideRentalRequest struct {
	Reason string `json:"reason"`
}

func (h RentalHandler) Approve(c *gin.Context) {
	h.decide(c, true)
}

func (h RentalHandler) Reject(c *gin.Context) {
	h.decide(c, false)
}

func (h RentalHandler) decide(c *gin.Context, approve bool) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req decideRentalRequest
	_ = c.ShouldBindJSON(&req)
	cmd := RentalApp.DecideRentalCommand{
		RentalID: c.Param("id"),
		OwnerID:  user.ID,
		Approve:  approve,
		Reason:   req.Reason,
	}
	result, err := commands.Dispatch[RentalApp.DecideRentalCommand, *RentalApp.DecideRentalResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancelRentalRequest struct {
	Reason string `json:"reason"`
}

func (h RentalHandler) Cancel(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req cancelRentalRequest
	_ = c.ShouldBindJSON(&req)
	cmd := RentalApp.CancelRentalCommand{
		RentalID: c.Param("id"),
		ActorID:  user.ID,
		Reason:   req.Reason,
	}
	result, err := commands.Dispatch[RentalApp.CancelRentalCommand, *RentalApp.CancelRentalResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type completeRentalRequest struct {
	PayoutAccount string `json:"payout_account"`
}

func (h RentalHandler) Complete(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req completeRentalRequest
	_ = c.ShouldBindJSON(&req)
	cmd := RentalApp.CompleteRentalCommand{
		RentalID:      c.Param("id"),
		OwnerID:       user.ID,
		FeeRate:       h.FeeRate,
		PayoutAccount: req.PayoutAccount,
	}
	result, err := commands.Dispatch[RentalApp.CompleteRentalCommand, *RentalApp.CompleteRentalResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RentalHandler) ListMine(c *gin.Context) {
	h.list(c, false)
}

func (h RentalHandler) ListOwned(c *gin.Context) {
	h.list(c, true)
}

func (h RentalHandler) list(c *gin.Context, asOwner bool) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := RentalApp.ListRentalsQuery{ActorID: user.ID, AsOwner: asOwner}
	result, err := queries.Ask[RentalApp.ListRentalsQuery, RentalApp.RentalList](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ RentalHTTP = RentalHandler{}
