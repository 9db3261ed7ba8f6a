package conversation

import "context"

// Turn is one role/content element of the history handed to the responder.
// The last element is always the newest user turn.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Responder produces a single assistant reply for an ordered message history.
// The call blocks for the full network + generation latency; callers treat it
// as one suspend point and must not expect mid-flight cancellation beyond
// context expiry on the transport.
type Responder interface {
	GenerateReply(ctx context.Context, history []Turn) (string, error)
}

// HistoryFromMessages converts persisted messages into responder turns,
// preserving chronological order.
func HistoryFromMessages(messages []*Message) []Turn {
	history := make([]Turn, 0, len(messages))
	for _, msg := range messages {
		history = append(history, Turn{Role: msg.Role, Content: msg.Content})
	}
	return history
}
