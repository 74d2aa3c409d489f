package notify

import "context"

// Sender delivers rendered messages to targets of one kind. Implemented
// by the chat-gateway adapters; consumed by the dispatcher.
type Sender interface {
	Kind() TargetKind
	Send(ctx context.Context, target Target, msg Message) error
}
