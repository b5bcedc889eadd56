package inbox

import "context"

// Log is the durable record of provider notification ids already applied.
// Seen atomically records the id and reports whether it was present before,
// inside the caller's transaction scope, so each notification is applied at
// most once even under concurrent redelivery.
type Log interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}
