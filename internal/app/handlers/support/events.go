package support

import (
	"context"

	"gearshare/internal/app/outbox"
	"gearshare/internal/domain/shared/events"
)

// DrainEvents moves pending aggregate events into the outbox within the
// current unit of work and clears the recorders.
func DrainEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, recorders ...*events.EventRecorder) error {
	for _, rec := range recorders {
		if rec == nil {
			continue
		}
		pending := rec.PendingEvents()
		rec.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, box, encoder, pending); err != nil {
			return err
		}
	}
	return nil
}
