package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/middleware"
	"gearshare/internal/infra/storage/memory"
)

type replayedCommand struct {
	ID string
}

func (c replayedCommand) Key() string            { return "test.replayed" }
func (c replayedCommand) IdempotencyKey() string { return c.ID }
func (c replayedCommand) ResultPrototype() any   { return &replayedResult{} }

type replayedResult struct {
	Value string `json:"value"`
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	ctx := context.Background()
	base := commands.NewInMemoryBus()

	calls := 0
	commands.RegisterHandler[replayedCommand, *replayedResult](base, "test.replayed",
		commands.HandlerFunc[replayedCommand, *replayedResult](func(ctx context.Context, cmd replayedCommand) (*replayedResult, error) {
			calls++
			return &replayedResult{Value: "first"}, nil
		}))

	bus := middleware.ChainCommands(base, middleware.Idempotency(memory.NewIdempotencyStore(), nil))

	first, err := commands.Dispatch[replayedCommand, *replayedResult](ctx, bus, replayedCommand{ID: "key-1"})
	require.NoError(t, err)
	assert.Equal(t, "first", first.Value)

	second, err := commands.Dispatch[replayedCommand, *replayedResult](ctx, bus, replayedCommand{ID: "key-1"})
	require.NoError(t, err)
	assert.Equal(t, "first", second.Value)
	assert.Equal(t, 1, calls)

	_, err = commands.Dispatch[replayedCommand, *replayedResult](ctx, bus, replayedCommand{ID: "key-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyReplaysStoredError(t *testing.T) {
	ctx := context.Background()
	base := commands.NewInMemoryBus()

	calls := 0
	commands.RegisterHandler[replayedCommand, *replayedResult](base, "test.replayed",
		commands.HandlerFunc[replayedCommand, *replayedResult](func(ctx context.Context, cmd replayedCommand) (*replayedResult, error) {
			calls++
			return nil, errors.New("provider exploded")
		}))

	bus := middleware.ChainCommands(base, middleware.Idempotency(memory.NewIdempotencyStore(), nil))

	_, err := commands.Dispatch[replayedCommand, *replayedResult](ctx, bus, replayedCommand{ID: "key-1"})
	require.EqualError(t, err, "provider exploded")

	_, err = commands.Dispatch[replayedCommand, *replayedResult](ctx, bus, replayedCommand{ID: "key-1"})
	require.EqualError(t, err, "provider exploded")
	assert.Equal(t, 1, calls)
}

func TestIdempotencySkipsBlankKey(t *testing.T) {
	ctx := context.Background()
	base := commands.NewInMemoryBus()

	calls := 0
	commands.RegisterHandler[replayedCommand, *replayedResult](base, "test.replayed",
		commands.HandlerFunc[replayedCommand, *replayedResult](func(ctx context.Context, cmd replayedCommand) (*replayedResult, error) {
			calls++
			return &replayedResult{}, nil
		}))

	bus := middleware.ChainCommands(base, middleware.Idempotency(memory.NewIdempotencyStore(), nil))

	for range 3 {
		_, err := commands.Dispatch[replayedCommand, *replayedResult](ctx, bus, replayedCommand{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}
