package policies

import "context"

// NotifierPort delivers user-facing notices (push/email). Delivery itself is an
// external collaborator; handlers only announce what happened.
type NotifierPort interface {
	Notify(ctx context.Context, userID string, kind string, payload map[string]string) error
}
