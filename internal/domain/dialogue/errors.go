package dialogue

import "errors"

// Tracker errors.
var (
	// ErrUnknownConversation is returned when a turn references a
	// conversation id the tracker does not hold.
	ErrUnknownConversation = errors.New("unknown conversation")

	// ErrConversationExpired is returned when a turn arrives after the
	// conversation's idle timeout. The caller should start over.
	ErrConversationExpired = errors.New("conversation expired")

	// ErrNotResolved is returned when consuming a conversation that is still
	// missing fields.
	ErrNotResolved = errors.New("conversation not resolved")
)
