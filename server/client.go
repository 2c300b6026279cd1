package main

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16

	// binaryMarker is the first byte of queued binary frames. Text and
	// binary share one send channel; the marker tells WritePump which
	// frame type to emit and is stripped before the write.
	binaryMarker = 0xFF
)

// Client owns one WebSocket connection. It decodes inbound frames into
// typed commands for the game loop and relays outbound messages from its
// send buffer. It never touches game state directly.
type Client struct {
	hub        *Hub
	game       *Game
	conn       *websocket.Conn
	send       chan []byte
	playerID   string
	remoteAddr string
	limiter    *rate.Limiter
	closeOnce  sync.Once
}

// NewClient creates a Client for an upgraded connection. The player ID is
// allocated by the HTTP handler before either pump starts, so it is never
// written concurrently.
func NewClient(hub *Hub, game *Game, conn *websocket.Conn, remoteAddr, playerID string) *Client {
	return &Client{
		hub:        hub,
		game:       game,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		playerID:   playerID,
		remoteAddr: remoteAddr,
		limiter:    rate.NewLimiter(rate.Limit(maxMessagesPerSec), maxMessagesPerSec),
	}
}

// ReadPump reads messages from the WebSocket connection until it drops,
// then funnels the session into the game's single cleanup path.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.game.Post(leaveCmd{id: c.playerID})
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("addr", c.remoteAddr).Msg("ws read error")
			}
			break
		}

		if !c.limiter.Allow() {
			log.Warn().Str("addr", c.remoteAddr).Msg("rate limit exceeded, disconnecting")
			break
		}

		c.handleMessage(message)
	}
}

// WritePump drains the send buffer onto the socket and keeps the
// connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind := websocket.TextMessage
			if len(message) > 0 && message[0] == binaryMarker {
				kind = websocket.BinaryMessage
				message = message[1:]
			}
			if err := c.conn.WriteMessage(kind, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close tears the connection down. Idempotent; callable from the game
// loop, either pump, or the HTTP handler.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// SendJSON marshals msg and queues it as a text frame
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("marshal error")
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client.
// Non-blocking: a slow client drops messages instead of stalling the
// loop, and the recover absorbs a racing Close.
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		CountDroppedSend()
	}
}

// SendBinary queues pre-marshaled bytes as a binary frame
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = binaryMarker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
		CountDroppedSend()
	}
}

// handleMessage decodes one inbound frame and posts the matching command.
// Malformed or non-finite payloads drop that single message; the
// connection stays open.
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug().Err(err).Str("addr", c.remoteAddr).Msg("unparsable message dropped")
		return
	}
	CountMessageIn(env.T)

	switch env.T {
	case MsgPlayerUpdate:
		msg, err := parsePlayerUpdate(env.D)
		if err != nil {
			log.Debug().Err(err).Str("player", c.playerID).Msg("player_update dropped")
			return
		}
		c.game.Post(playerUpdateCmd{id: c.playerID, pos: *msg.Position, rot: *msg.Rotation})
	case MsgShoot:
		msg, err := parseShoot(env.D)
		if err != nil {
			log.Debug().Err(err).Str("player", c.playerID).Msg("shoot dropped")
			return
		}
		c.game.Post(shootCmd{id: c.playerID, dir: *msg.Direction, start: *msg.StartPos})
	case MsgRequestReload:
		c.game.Post(reloadCmd{id: c.playerID})
	}
}
