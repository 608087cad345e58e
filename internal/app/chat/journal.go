package chat

import (
	"context"
	"time"
)

// Kinds of room lifecycle events.
const (
	EventRoomOpened = "opened"
	EventRoomClosed = "closed"
)

// RoomEvent is one entry of the room lifecycle journal. It never carries message content.
type RoomEvent struct {
	Token      string
	Kind       string
	Reason     string
	OccurredAt time.Time
}

// Journal records room lifecycle events for auditing. It is write-only: rooms are never
// restored from it.
type Journal interface {
	RecordRoomEvent(ctx context.Context, event RoomEvent) error
}

type nopJournal struct{}

func (nopJournal) RecordRoomEvent(context.Context, RoomEvent) error { return nil }
