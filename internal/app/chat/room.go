/*
Package chat contains the relay core: the room registry (Manager), the per-room broadcast
relay (Room) and the per-connection control flow (Client).

This file defines the Room, the broadcast domain of one chat session. Each Room is owned by a
single Run goroutine which serialises joins, leaves and broadcasts, so membership never changes
in the middle of a fan-out.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/logx"
)

// DefaultIdleTimeout is how long a created room waits for its first participant.
const DefaultIdleTimeout = 5 * time.Minute

// Reasons a Room stops running.
const (
	ReasonEmpty    = "empty"
	ReasonIdle     = "idle"
	ReasonRemoved  = "removed"
	ReasonShutdown = "shutdown"
)

// RoomCleanupMsg asks the Manager to drop a Room whose Run loop has finished.
type RoomCleanupMsg struct {
	Room   *Room
	Reason string
}

type joinRequest struct {
	participant *Participant
	result      chan struct{}
}

type leaveResult struct {
	removed   bool
	remaining int
}

type leaveRequest struct {
	participant *Participant
	result      chan leaveResult
}

type broadcastRequest struct {
	payload []byte
	result  chan int
}

// Room is a single live chat session identified by its token.
type Room struct {
	// Token is the short identifier the room is registered under.
	Token string

	// participants in join order. Written only by Run; mu guards reads from other goroutines.
	participants []*Participant
	mu           sync.RWMutex

	register   chan joinRequest
	unregister chan leaveRequest
	broadcast  chan broadcastRequest

	// cleanupChan notifies the Manager once Run has finished.
	cleanupChan chan<- RoomCleanupMsg

	stopChan   chan struct{}
	stopOnce   sync.Once
	stopReason string

	// done is closed when Run has finished; closeReason is set before.
	done        chan struct{}
	closeReason string

	// idleTimeout bounds how long the room may stay empty before its first join.
	idleTimeout time.Duration

	logger zerolog.Logger
}

// NewRoom creates a Room. The caller must start Run.
func NewRoom(token string, idleTimeout time.Duration, cleanupChan chan<- RoomCleanupMsg) *Room {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	return &Room{
		Token:       token,
		register:    make(chan joinRequest),
		unregister:  make(chan leaveRequest),
		broadcast:   make(chan broadcastRequest),
		cleanupChan: cleanupChan,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		idleTimeout: idleTimeout,
		logger:      logx.Component("room").With().Str("room_token", token).Logger(),
	}
}

// Join registers p as a participant.
// It fails with ErrRoomNotFound when the room has already closed; a closed room is never
// reopened. The caller broadcasts the join notification afterwards.
func (r *Room) Join(p *Participant) *errs.CustomError {
	req := joinRequest{participant: p, result: make(chan struct{}, 1)}

	select {
	case r.register <- req:
	case <-r.done:
		return errs.NewError(errs.ErrRoomNotFound)
	}

	<-req.result
	return nil
}

// Leave removes exactly p from the room.
// removed is false when p was not a member (or the room already closed); remaining is the
// membership count after the call. Removing the last participant closes the room.
func (r *Room) Leave(p *Participant) (removed bool, remaining int) {
	req := leaveRequest{participant: p, result: make(chan leaveResult, 1)}

	select {
	case r.unregister <- req:
	case <-r.done:
		return false, 0
	}

	res := <-req.result
	return res.removed, res.remaining
}

// Broadcast delivers env to every current participant and returns the number of delivery
// attempts, one per member. Delivery to each member is independent: a member whose queue is
// full is dropped without affecting the others.
func (r *Room) Broadcast(env Envelope) int {
	payload, err := json.Marshal(env)
	if err != nil {
		r.logger.Error().Err(err).Msg("Error marshaling envelope for broadcast.")
		return 0
	}

	req := broadcastRequest{payload: payload, result: make(chan int, 1)}

	select {
	case r.broadcast <- req:
	case <-r.done:
		return 0
	}

	return <-req.result
}

// Stop closes the room immediately for the given reason. Safe to call repeatedly.
func (r *Room) Stop(reason string) {
	r.stopOnce.Do(func() {
		r.logger.Info().Str("reason", reason).Msg("Received stop signal. Stopping room immediately.")
		r.stopReason = reason
		close(r.stopChan)
	})
}

// Done is closed once the room has stopped running.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Closed reports whether the room has stopped running.
func (r *Room) Closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// CloseReason returns why the room stopped, or "" while it is running.
func (r *Room) CloseReason() string {
	if !r.Closed() {
		return ""
	}
	return r.closeReason
}

// Size returns the current number of participants.
func (r *Room) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.participants)
}

// Usernames returns the display names of the current participants in join order.
func (r *Room) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.participants))
	for _, p := range r.participants {
		names = append(names, p.Username)
	}
	return names
}

// Run is the room's event loop. It returns when the last participant leaves, when the room
// stays unjoined past its idle timeout, or when Stop is called.
func (r *Room) Run() {
	reason := ReasonShutdown
	defer func() { r.finish(reason) }()

	idleTimer := time.NewTimer(r.idleTimeout)
	defer idleTimer.Stop()
	idleC := idleTimer.C

	for {
		select {
		case req := <-r.register:
			if idleC != nil {
				idleTimer.Stop()
				idleC = nil
			}

			r.mu.Lock()
			r.participants = append(r.participants, req.participant)
			total := len(r.participants)
			r.mu.Unlock()

			r.logger.Info().
				Str("participant_id", req.participant.ID).
				Str("username", req.participant.Username).
				Int("total_participants", total).
				Msg("Participant joined room.")

			req.result <- struct{}{}

		case req := <-r.unregister:
			removed := r.removeParticipant(req.participant)
			remaining := r.Size()

			if removed {
				r.logger.Info().
					Str("participant_id", req.participant.ID).
					Int("total_participants", remaining).
					Msg("Participant left room.")
			} else {
				r.logger.Debug().
					Str("participant_id", req.participant.ID).
					Msg("Ignoring leave for participant that is not a member.")
			}

			req.result <- leaveResult{removed: removed, remaining: remaining}

			if removed && remaining == 0 {
				r.logger.Info().Msg("Room is empty. Shutting down Room.Run() loop.")
				reason = ReasonEmpty
				return
			}

		case req := <-r.broadcast:
			req.result <- r.fanOut(req.payload)

		case <-idleC:
			r.logger.Info().Msgf("Room was not joined within %s. Shutting down Room.Run() loop.", r.idleTimeout)
			reason = ReasonIdle
			return

		case <-r.stopChan:
			reason = r.stopReason
			return
		}
	}
}

// fanOut enqueues payload for every participant. Must only run on the Run goroutine.
func (r *Room) fanOut(payload []byte) int {
	attempts := 0

	for _, p := range r.participants {
		attempts++

		if p.closed {
			continue
		}

		select {
		case p.send <- payload:
		default:
			r.logger.Warn().
				Str("participant_id", p.ID).
				Msg("Participant send queue full, dropping connection.")
			p.closeSend()
		}
	}

	return attempts
}

// removeParticipant deletes p, keeping join order. Must only run on the Run goroutine.
func (r *Room) removeParticipant(p *Participant) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, member := range r.participants {
		if member == p {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			p.closeSend()
			return true
		}
	}

	return false
}

// finish releases every remaining participant, marks the room done and notifies the Manager.
func (r *Room) finish(reason string) {
	r.mu.Lock()
	for _, p := range r.participants {
		p.closeSend()
	}
	r.participants = nil
	r.mu.Unlock()

	r.closeReason = reason
	close(r.done)

	r.logger.Info().Str("reason", reason).Msg("Room Run loop finished. Notifying Manager for cleanup.")

	// The owner keeps cleanupChan open until Run has returned.
	select {
	case r.cleanupChan <- RoomCleanupMsg{Room: r, Reason: reason}:
	default:
		r.logger.Warn().Msg("Manager cleanup channel blocked/full. Skipping cleanup notification.")
	}
}
