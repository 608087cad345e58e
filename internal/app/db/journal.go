package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"roomrelay/internal/app/chat"
)

const insertRoomEvent = `
INSERT INTO room_events (room_token, kind, reason, occurred_at)
VALUES ($1, $2, $3, $4)`

// execer is the subset of *pgxpool.Pool used by RoomJournal.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// RoomJournal writes room lifecycle events to the room_events table.
type RoomJournal struct {
	db execer
}

// NewRoomJournal returns a journal writing through db (normally a *pgxpool.Pool).
func NewRoomJournal(db execer) *RoomJournal {
	return &RoomJournal{db: db}
}

// RecordRoomEvent inserts one event. A duplicate of an already stored event is not an error.
func (j *RoomJournal) RecordRoomEvent(ctx context.Context, event chat.RoomEvent) error {
	_, err := j.db.Exec(ctx, insertRoomEvent, event.Token, event.Kind, event.Reason, event.OccurredAt)
	if err != nil {
		if isDuplicateEvent(err) {
			return nil
		}
		return fmt.Errorf("insert room event %s/%s: %w", event.Token, event.Kind, err)
	}
	return nil
}

var _ chat.Journal = (*RoomJournal)(nil)
