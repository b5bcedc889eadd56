package availability

import (
	"context"
	"time"

	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/queries"
	"gearshare/internal/app/uow"
	domainitem "gearshare/internal/domain/item"
	domainrange "gearshare/internal/domain/shared/daterange"
)

const getCalendarKey = "availability.calendar"

type GetCalendarQuery struct {
	ItemID string
	From   time.Time
	To     time.Time
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type CalendarEntry struct {
	Reference string    `json:"reference"`
	Kind      string    `json:"kind"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type Calendar struct {
	ItemID  string          `json:"item_id"`
	Entries []CalendarEntry `json:"entries"`
}

// GetCalendarHandler returns the item's occupied intervals: owner windows and
// active rentals inside the requested range.
type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (Calendar, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	dr, err := domainrange.New(q.From, q.To)
	if err != nil {
		return Calendar{}, err
	}
	itemID := domainitem.ItemID(q.ItemID)

	cal := Calendar{ItemID: q.ItemID, Entries: []CalendarEntry{}}

	windows, err := unit.Windows().OverlappingRange(ctx, itemID, dr)
	if err != nil {
		return Calendar{}, err
	}
	for _, w := range windows {
		cal.Entries = append(cal.Entries, CalendarEntry{
			Reference: w.ID,
			Kind:      "OWNER_WINDOW",
			Start:     w.Range.Start,
			End:       w.Range.End,
		})
	}

	rentals, err := unit.Rentals().ActiveOverlapping(ctx, itemID, dr)
	if err != nil {
		return Calendar{}, err
	}
	for _, r := range rentals {
		cal.Entries = append(cal.Entries, CalendarEntry{
			Reference: string(r.ID),
			Kind:      "RENTAL",
			Start:     r.Range.Start,
			End:       r.Range.End,
		})
	}

	return cal, nil
}

var _ queries.Handler[GetCalendarQuery, Calendar] = (*GetCalendarHandler)(nil)
