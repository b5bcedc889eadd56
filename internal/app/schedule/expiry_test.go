package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/app/commands"
	rentalapp "gearshare/internal/app/handlers/rental"
)

func TestExpiryWorkerSweepsOnInterval(t *testing.T) {
	var sweeps atomic.Int32
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[rentalapp.ExpireRentalsCommand, *rentalapp.ExpireRentalsResult](bus,
		rentalapp.ExpireRentalsCommand{}.Key(),
		commands.HandlerFunc[rentalapp.ExpireRentalsCommand, *rentalapp.ExpireRentalsResult](
			func(ctx context.Context, cmd rentalapp.ExpireRentalsCommand) (*rentalapp.ExpireRentalsResult, error) {
				sweeps.Add(1)
				return &rentalapp.ExpireRentalsResult{Expired: 1}, nil
			}))

	w := &ExpiryWorker{Bus: bus, Window: time.Minute, Interval: 5 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, sweeps.Load())
}

func TestExpiryWorkerStopsOnCancel(t *testing.T) {
	w := &ExpiryWorker{Bus: commands.NewInMemoryBus(), Interval: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
