package payment

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrMalformedEvent = errors.New("payment: malformed provider event")

// EventKind is the closed set of provider notification kinds the core reacts
// to. Anything else maps to EventUnknown and is accepted and ignored so new
// provider event types never break ingestion.
type EventKind string

const (
	EventSucceeded EventKind = "succeeded"
	EventFailed    EventKind = "failed"
	EventUnknown   EventKind = "unknown"
)

// ProviderEvent is the parsed, typed form of a provider notification. The raw
// payload is never walked by string checks past this point.
type ProviderEvent struct {
	ID             string
	Kind           EventKind
	RawType        string
	IntentID       string
	DeclineCode    string
	DeclineMessage string
	ReceivedAt     time.Time
}

type providerEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID        string `json:"id"`
			LastError struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"last_payment_error"`
		} `json:"object"`
	} `json:"data"`
}

// ParseProviderEvent decodes the provider's JSON body into the tagged union.
// The event id and intent id are mandatory; the type maps onto a known kind or
// EventUnknown.
func ParseProviderEvent(raw []byte, now time.Time) (ProviderEvent, error) {
	var env providerEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ProviderEvent{}, ErrMalformedEvent
	}
	if env.ID == "" || env.Data.Object.ID == "" {
		return ProviderEvent{}, ErrMalformedEvent
	}
	ev := ProviderEvent{
		ID:         env.ID,
		RawType:    env.Type,
		IntentID:   env.Data.Object.ID,
		ReceivedAt: now.UTC(),
	}
	switch env.Type {
	case "payment_intent.succeeded":
		ev.Kind = EventSucceeded
	case "payment_intent.payment_failed":
		ev.Kind = EventFailed
		ev.DeclineCode = env.Data.Object.LastError.Code
		ev.DeclineMessage = env.Data.Object.LastError.Message
	default:
		ev.Kind = EventUnknown
	}
	return ev, nil
}
