package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gearshare/internal/app/commands"
	ItemApp "gearshare/internal/app/handlers/item"
)

type ItemHandler struct {
	Commands commands.Bus
}

type createItemRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	HourlyCents  int64  `json:"hourly_cents"`
	DailyCents   int64  `json:"daily_cents"`
	WeeklyCents  int64  `json:"weekly_cents"`
	Currency     string `json:"currency"`
	DepositCents int64  `json:"deposit_cents"`
}

func (h ItemHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := ItemApp.CreateItemCommand{
		ItemID:       uuid.NewString(),
		OwnerID:      user.ID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		HourlyCents:  req.HourlyCents,
		DailyCents:   req.DailyCents,
		WeeklyCents:  req.WeeklyCents,
		Currency:     req.Currency,
		DepositCents: req.DepositCents,
	}
	result, err := commands.Dispatch[ItemApp.CreateItemCommand, *ItemApp.CreateItemResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h ItemHandler) SetActive(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := ItemApp.SetItemActiveCommand{
		ItemID:  c.Param("id"),
		OwnerID: user.ID,
		Active:  req.Active,
	}
	result, err := commands.Dispatch[ItemApp.SetItemActiveCommand, *ItemApp.SetItemActiveResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ItemHTTP = ItemHandler{}
