package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gearshare/internal/app/commands"
	AvailabilityApp "gearshare/internal/app/handlers/availability"
	"gearshare/internal/app/queries"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type addWindowRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (h AvailabilityHandler) AddWindow(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req addWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := AvailabilityApp.AddWindowCommand{
		WindowID: uuid.NewString(),
		ItemID:   c.Param("id"),
		OwnerID:  user.ID,
		Start:    req.Start,
		End:      req.End,
	}
	result, err := commands.Dispatch[AvailabilityApp.AddWindowCommand, *AvailabilityApp.AddWindowResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AvailabilityHandler) RemoveWindow(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := AvailabilityApp.RemoveWindowCommand{
		ItemID:   c.Param("id"),
		OwnerID:  user.ID,
		WindowID: c.Param("windowID"),
	}
	result, err := commands.Dispatch[AvailabilityApp.RemoveWindowCommand, *AvailabilityApp.RemoveWindowResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
		return
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
		return
	}
	q := AvailabilityApp.GetCalendarQuery{ItemID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[AvailabilityApp.GetCalendarQuery, AvailabilityApp.Calendar](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseTimeParam(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
