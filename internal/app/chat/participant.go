package chat

import "roomrelay/internal/pkg/randx"

// sendBufferSize is the capacity of a participant's outbound queue.
const sendBufferSize = 256

// Participant is one live connection bound to a username inside exactly one Room.
// The pointer itself is the connection handle: two connections with the same username are
// distinct participants.
type Participant struct {
	// ID uniquely identifies the connection for logging.
	ID string

	// Username is the display name stamped on every envelope this participant sends.
	Username string

	// send queues encoded envelopes for the connection's write pump.
	// It is closed by the owning Room's run loop only.
	send chan []byte

	// closed records whether send has been closed; owned by the Room's run loop.
	closed bool
}

// NewParticipant creates a participant with a fresh ID and an empty outbound queue.
func NewParticipant(username string) *Participant {
	return newParticipant(username, sendBufferSize)
}

func newParticipant(username string, buffer int) *Participant {
	return &Participant{
		ID:       randx.ParticipantID(),
		Username: username,
		send:     make(chan []byte, buffer),
	}
}

// Outbound returns the queue of encoded envelopes to write to the connection.
// The channel is closed when the participant leaves, is dropped as too slow, or the room stops.
func (p *Participant) Outbound() <-chan []byte {
	return p.send
}

// closeSend closes the outbound queue once. Must only be called from the Room's run loop.
func (p *Participant) closeSend() {
	if p.closed {
		return
	}
	p.closed = true
	close(p.send)
}
