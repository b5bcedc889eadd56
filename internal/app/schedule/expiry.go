package schedule

import (
	"context"
	"log/slog"
	"time"

	"gearshare/internal/app/commands"
	rentalapp "gearshare/internal/app/handlers/rental"
)

// ExpiryWorker periodically cancels Pending rentals whose payment hold never
// completed within the configured window. The expiry itself runs through the
// command bus so it shares the transaction and outbox middleware with every
// other mutation.
type ExpiryWorker struct {
	Bus      commands.Bus
	Window   time.Duration
	Interval time.Duration
	Logger   *slog.Logger
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-w.Window)
	res, err := commands.Dispatch[rentalapp.ExpireRentalsCommand, *rentalapp.ExpireRentalsResult](
		ctx, w.Bus, rentalapp.ExpireRentalsCommand{Cutoff: cutoff},
	)
	if err != nil {
		w.log().Error("rental expiry sweep failed", "error", err)
		return
	}
	if res != nil && res.Expired > 0 {
		w.log().Info("expired stale pending rentals", "count", res.Expired, "cutoff", cutoff)
	}
}

func (w *ExpiryWorker) log() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
