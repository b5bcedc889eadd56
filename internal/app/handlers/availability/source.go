package availability

import (
	"context"

	domainavailability "gearshare/internal/domain/availability"
	domainitem "gearshare/internal/domain/item"
	domainrental "gearshare/internal/domain/rental"
	domainrange "gearshare/internal/domain/shared/daterange"
)

// rentalSource adapts the rental repository to the resolver's read port.
type rentalSource struct {
	repo domainrental.Repository
}

func (s rentalSource) ActiveOverlapping(ctx context.Context, id domainitem.ItemID, dr domainrange.DateRange) ([]domainavailability.RentalRef, error) {
	active, err := s.repo.ActiveOverlapping(ctx, id, dr)
	if err != nil {
		return nil, err
	}
	refs := make([]domainavailability.RentalRef, 0, len(active))
	for _, r := range active {
		refs = append(refs, domainavailability.RentalRef{ID: string(r.ID), Range: r.Range})
	}
	return refs, nil
}
