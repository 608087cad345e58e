/*
Package chat contains the relay core: the room registry (Manager), the per-room broadcast
relay (Room) and the per-connection control flow (Client).

This file defines the Manager, the registry mapping room tokens to live Rooms. It is created
once in main and injected into the HTTP handlers.
*/
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roomrelay/internal/configs"
	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/logx"
)

const (
	cleanupBufferSize = 64
	journalTimeout    = 5 * time.Second
)

// Manager owns the token→Room map and every Room's lifecycle.
type Manager struct {
	// rooms stores every live Room, keyed by token.
	rooms map[string]*Room

	// stopped is set by Shutdown; no rooms are created afterwards.
	stopped bool

	// mu protects rooms and stopped.
	mu sync.RWMutex

	tokens      *TokenGenerator
	idleTimeout time.Duration
	journal     Journal

	// cleanup receives notifications from Rooms whose Run loop has finished.
	cleanup chan RoomCleanupMsg

	// wg tracks the cleanup loop, roomsWG every Room.Run, journalWG in-flight journal writes.
	wg        sync.WaitGroup
	roomsWG   sync.WaitGroup
	journalWG sync.WaitGroup

	logger zerolog.Logger
}

// NewManager creates a Manager and starts its cleanup loop. journal may be nil.
func NewManager(cfg *configs.AppConfig, journal Journal) *Manager {
	if journal == nil {
		journal = nopJournal{}
	}

	m := &Manager{
		rooms:       make(map[string]*Room),
		tokens:      NewTokenGenerator(),
		idleTimeout: cfg.RoomIdleTimeout,
		journal:     journal,
		cleanup:     make(chan RoomCleanupMsg, cleanupBufferSize),
		logger:      logx.Component("Manager"),
	}

	m.wg.Add(1)
	go m.runCleanupLoop()

	return m
}

// runCleanupLoop drops rooms that report their Run loop has finished.
func (m *Manager) runCleanupLoop() {
	defer m.wg.Done()

	m.logger.Info().Msg("Cleanup loop started.")

	for msg := range m.cleanup {
		m.releaseRoom(msg.Room, msg.Reason)
	}

	m.logger.Info().Msg("Cleanup loop stopped.")
}

// CreateRoom allocates a fresh token, registers an empty Room under it and starts the room.
// Token generation and insertion happen under one lock, so two concurrent calls can never
// receive the same token.
func (m *Manager) CreateRoom() (*Room, *errs.CustomError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil, errs.NewError(errs.ErrUnknown)
	}

	token, err := m.tokens.Generate(func(candidate string) bool {
		existing, taken := m.rooms[candidate]
		if taken && existing.Closed() {
			// closed room whose cleanup notification was dropped
			delete(m.rooms, candidate)
			return false
		}
		return taken
	})
	if err != nil {
		m.logger.Error().Err(err).Int("live_rooms", len(m.rooms)).Msg("Failed to allocate room token.")
		return nil, errs.NewError(errs.ErrRoomTokenExhausted)
	}

	room := NewRoom(token, m.idleTimeout, m.cleanup)
	m.rooms[token] = room

	m.roomsWG.Add(1)
	go func() {
		defer m.roomsWG.Done()
		room.Run()
	}()

	m.record(token, EventRoomOpened, "")
	m.logger.Info().Str("room_token", token).Msg("New Room created and started.")

	return room, nil
}

// GetRoom returns the live Room registered under token, or nil.
// Matching is exact and case-sensitive. A room that has closed but is not yet removed is
// reported as absent.
func (m *Manager) GetRoom(token string) *Room {
	m.mu.RLock()
	room, ok := m.rooms[token]
	m.mu.RUnlock()

	if !ok || room.Closed() {
		return nil
	}
	return room
}

// RemoveRoom deletes the room registered under token and stops it.
// It is a no-op when no such room exists.
func (m *Manager) RemoveRoom(token string) {
	m.mu.Lock()
	room, ok := m.rooms[token]
	if ok {
		delete(m.rooms, token)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	room.Stop(ReasonRemoved)
	m.record(token, EventRoomClosed, ReasonRemoved)
	m.logger.Info().Str("room_token", token).Msg("Room removed.")
}

// releaseRoom deletes room only if its token still maps to that same Room, so a late or
// duplicate cleanup can never remove a newer room that reuses the token.
func (m *Manager) releaseRoom(room *Room, reason string) bool {
	m.mu.Lock()
	current, ok := m.rooms[room.Token]
	if !ok || current != room {
		m.mu.Unlock()
		return false
	}
	delete(m.rooms, room.Token)
	m.mu.Unlock()

	room.Stop(reason)
	m.record(room.Token, EventRoomClosed, reason)
	m.logger.Info().Str("room_token", room.Token).Str("reason", reason).Msg("Room successfully removed.")

	return true
}

// Count returns the number of registered rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.rooms)
}

// record writes a lifecycle event to the journal without blocking the caller.
func (m *Manager) record(token, kind, reason string) {
	event := RoomEvent{Token: token, Kind: kind, Reason: reason, OccurredAt: time.Now().UTC()}

	m.journalWG.Add(1)
	go func() {
		defer m.journalWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()

		if err := m.journal.RecordRoomEvent(ctx, event); err != nil {
			m.logger.Warn().Err(err).
				Str("room_token", token).
				Str("kind", kind).
				Msg("Failed to write room journal entry.")
		}
	}()
}

// Shutdown stops every room and waits until every Run loop has returned, including rooms
// removed earlier, so no room can still be sending on the cleanup channel when it is closed.
// It then stops the cleanup loop and waits for pending journal writes.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down Manager cleanup loop...")

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true

	for token, room := range m.rooms {
		room.Stop(ReasonShutdown)
		m.record(token, EventRoomClosed, ReasonShutdown)
	}
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()

	m.roomsWG.Wait()

	close(m.cleanup)
	m.wg.Wait()
	m.journalWG.Wait()

	m.logger.Info().Msg("Manager shutdown complete.")
}
