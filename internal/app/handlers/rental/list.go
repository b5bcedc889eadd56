package rental

import (
	"context"
	"time"

	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/queries"
	"gearshare/internal/app/uow"
	domainitem "gearshare/internal/domain/item"
	domainrental "gearshare/internal/domain/rental"
)

const listRentalsKey = "rental.list"

type ListRentalsQuery struct {
	ActorID string
	// AsOwner lists rentals against the actor's items instead of rentals the
	// actor requested.
	AsOwner bool
}

func (q ListRentalsQuery) Key() string { return listRentalsKey }

type RentalView struct {
	RentalID    string    `json:"rental_id"`
	ItemID      string    `json:"item_id"`
	State       string    `json:"state"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	TotalCents  int64     `json:"total_cents"`
	Currency    string    `json:"currency"`
	LastDecline string    `json:"last_decline,omitempty"`
}

type RentalList struct {
	Rentals []RentalView `json:"rentals"`
}

type ListRentalsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRentalsHandler) Handle(ctx context.Context, q ListRentalsQuery) (RentalList, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return RentalList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	var rentals []*domainrental.Rental
	if q.AsOwner {
		rentals, err = unit.Rentals().ListByOwner(ctx, domainitem.OwnerID(q.ActorID))
	} else {
		rentals, err = unit.Rentals().ListByRenter(ctx, q.ActorID)
	}
	if err != nil {
		return RentalList{}, err
	}

	list := RentalList{Rentals: make([]RentalView, 0, len(rentals))}
	for _, r := range rentals {
		list.Rentals = append(list.Rentals, RentalView{
			RentalID:    string(r.ID),
			ItemID:      string(r.ItemID),
			State:       string(r.State),
			Start:       r.Range.Start,
			End:         r.Range.End,
			TotalCents:  r.Total.Amount,
			Currency:    r.Total.Currency,
			LastDecline: r.LastDecline,
		})
	}
	return list, nil
}

var _ queries.Handler[ListRentalsQuery, RentalList] = (*ListRentalsHandler)(nil)
