package policies

import (
	"context"

	"gearshare/internal/domain/shared/money"
)

// PaymentIntent is the provider-side hold the core opens for a rental charge.
// ClientSecret is the opaque value the renter's client needs to complete
// authorization; the provider's credentials never cross this boundary.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// ProviderPort is the synchronous request/response side of the external payment
// provider. Notifications about these intents arrive separately through the
// webhook ingress. Implementations must not be called while holding per-item or
// per-rental locks: these are network calls.
type ProviderPort interface {
	CreateIntent(ctx context.Context, amount money.Money, metadata map[string]string) (PaymentIntent, error)
	CaptureIntent(ctx context.Context, intentID string, amount money.Money) error
	CancelIntent(ctx context.Context, intentID string) error
	RefundIntent(ctx context.Context, intentID string, amount money.Money) error
	CreateTransfer(ctx context.Context, amount money.Money, destinationAccount string, metadata map[string]string) (string, error)
}
