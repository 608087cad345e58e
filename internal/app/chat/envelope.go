/*
Package chat contains the relay core: the room registry (Manager), the per-room broadcast
relay (Room) and the per-connection control flow (Client).

This file defines the Envelope, the only payload exchanged over the real-time channel.
*/
package chat

const (
	// MessageJoined is the text of the synthetic envelope broadcast when a participant joins.
	MessageJoined = "got connected"

	// MessageLeft is the text of the synthetic envelope broadcast when a participant leaves.
	MessageLeft = "left"
)

// Envelope is a chat line or a join/leave notification.
// Clients send it with only Message set; Sender is always stamped server-side.
type Envelope struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// NewEnvelope builds an envelope from sender with the given text.
func NewEnvelope(sender, message string) Envelope {
	return Envelope{Sender: sender, Message: message}
}
