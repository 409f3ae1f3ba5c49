package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// Populated once the client has joined or rejoined a match.
	sessionID string
	matchID   string
	playerID  string
}

// readPump pumps messages from the websocket connection to the hub. It runs
// in its own goroutine per connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
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
				c.hub.logger.Debug("websocket read error", zap.Error(err))
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the websocket
// connection. It runs in its own goroutine per connection.
func (c *Client) writePump() {
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
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("invalid message format")
		return
	}

	switch envelope.Type {
	case "join":
		var msg JoinMsg
		if err := json.Unmarshal(envelope.Raw, &msg); err != nil {
			c.sendError("invalid join message")
			return
		}
		c.hub.handleJoin(c, msg)
	case "rejoin":
		var msg RejoinMsg
		if err := json.Unmarshal(envelope.Raw, &msg); err != nil {
			c.sendError("invalid rejoin message")
			return
		}
		c.hub.handleRejoin(c, msg)
	case "action":
		var msg ActionMsg
		if err := json.Unmarshal(envelope.Raw, &msg); err != nil {
			c.sendError("invalid action message")
			return
		}
		c.hub.handleAction(c, msg)
	case "answer":
		var msg AnswerMsg
		if err := json.Unmarshal(envelope.Raw, &msg); err != nil {
			c.sendError("invalid answer message")
			return
		}
		c.hub.handleAnswer(c, msg)
	default:
		c.sendError("unknown message type: " + envelope.Type)
	}
}

// enqueue hands an outbound message to the write pump, dropping it when the
// client's buffer is full rather than blocking the caller.
func (c *Client) enqueue(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) sendError(message string) {
	c.enqueue(ErrorMsg{Type: "error", Message: message})
}
