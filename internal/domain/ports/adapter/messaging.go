package adapter

import "context"

// Messenger posts outbound messages to the chat platform.
type Messenger interface {
	// PostMessage posts text to channel; a non-empty threadTS makes it a thread reply.
	// It returns the timestamp of the posted message.
	PostMessage(ctx context.Context, channel, text, threadTS string) (string, error)
}
