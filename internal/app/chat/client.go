/*
Package chat contains the relay core: the room registry (Manager), the per-room broadcast
relay (Room) and the per-connection control flow (Client).

This file defines the Client, the control flow of one WebSocket connection: it joins the
Room, pumps envelopes in both directions and cleans up when the transport goes away.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roomrelay/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 8192

	// WsCloseCodeSessionNotFound tells the client the room closed before the connection could join it.
	WsCloseCodeSessionNotFound = 4004
)

// Client binds one WebSocket connection to a Participant in a Room.
type Client struct {
	manager     *Manager
	room        *Room
	conn        *websocket.Conn
	participant *Participant

	cleanupOnce sync.Once

	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection. username must already be resolved.
func NewClient(manager *Manager, room *Room, wsConn *websocket.Conn, username string) *Client {
	participant := NewParticipant(username)

	return &Client{
		manager:     manager,
		room:        room,
		conn:        wsConn,
		participant: participant,
		logger: logx.Component("client").With().
			Str("participant_id", participant.ID).
			Str("room_token", room.Token).
			Logger(),
	}
}

// Serve joins the room, announces the participant and blocks in the read loop until the
// connection ends. If the room closed in the meantime the connection is refused with
// WsCloseCodeSessionNotFound.
func (c *Client) Serve() {
	if joinErr := c.room.Join(c.participant); joinErr != nil {
		c.logger.Info().Msg("Room closed before the connection could join. Rejecting.")
		c.reject(WsCloseCodeSessionNotFound, joinErr.Message)
		return
	}

	go c.WritePump()

	c.room.Broadcast(NewEnvelope(c.participant.Username, MessageJoined))

	c.ReadPump()
}

// ReadPump reads envelopes from the connection until it fails or closes, then cleans up.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundMessage(messageBytes)
	}
}

// processInboundMessage parses one frame as an envelope, stamps the bound username as its
// sender and relays it to the room.
func (c *Client) processInboundMessage(messageBytes []byte) {
	var inbound Envelope
	if err := json.Unmarshal(messageBytes, &inbound); err != nil {
		c.logger.Warn().Err(err).
			Int("message_len", len(messageBytes)).
			Msg("Client sent invalid JSON")
		return
	}

	if inbound.Sender != "" && inbound.Sender != c.participant.Username {
		c.logger.Warn().
			Str("claimed_sender", inbound.Sender).
			Msg("Client-supplied sender ignored")
	}

	c.room.Broadcast(NewEnvelope(c.participant.Username, inbound.Message))
}

// cleanupOnDisconnect leaves the room, announces the departure and releases an emptied room.
// It runs at most once per connection.
func (c *Client) cleanupOnDisconnect() {
	c.cleanupOnce.Do(func() {
		c.logger.Info().Msg("Client connection cleanup starting.")

		removed, remaining := c.room.Leave(c.participant)
		if removed {
			c.room.Broadcast(NewEnvelope(c.participant.Username, MessageLeft))
		}

		if removed && remaining == 0 {
			c.manager.releaseRoom(c.room, ReasonEmpty)
		}

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error")
		}
	})
}

// WritePump writes queued envelopes and periodic pings until the outbound queue is closed or
// a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	outbound := c.participant.Outbound()

	for {
		select {
		case message, ok := <-outbound:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one queued envelope, or a close frame once the queue is closed.
// It returns false when the pump should stop.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a heartbeat ping. It returns false when the write failed.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// reject sends a close frame with code and reason, then closes the connection.
func (c *Client) reject(code int, reason string) {
	closeMessage := websocket.FormatCloseMessage(code, reason)

	if err := c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to send rejection close frame.")
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}
