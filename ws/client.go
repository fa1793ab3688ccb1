package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"namaste-memory-server/auth"
	"namaste-memory-server/session"
	"namaste-memory-server/sessionerrors"
	"namaste-memory-server/wsutil"
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

// Client is a middleman between the websocket connection and the player's session.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Name    string
	UserID  string
	Session *session.Session
}

// ReadPump pumps messages from the websocket connection to the session.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "tag", "ws", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}
	if c.Session == nil {
		c.sendError("No session.")
		return
	}

	switch envelope.Type {
	case "auth":
		c.handleAuth(envelope.Raw)
	case "set_name":
		c.handleSetName(envelope.Raw)
	case "start_game":
		c.handleStartGame(envelope.Raw)
	case "flip_card":
		c.handleFlipCard(envelope.Raw)
	case "restart":
		c.handleRestart()
	case "play_again":
		c.handlePlayAgain(envelope.Raw)
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleAuth(raw json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Token == "" {
		c.sendError("Invalid auth message.")
		return
	}
	if !c.Hub.Auth.Configured() {
		c.sendError("Server auth not configured.")
		return
	}
	claims, err := c.Hub.Auth.Validate(msg.Token)
	if err != nil {
		slog.Warn("token validation failed", "tag", "ws", "err", err)
		c.sendError("Invalid or expired token.")
		return
	}
	c.UserID = auth.UserIDFromClaims(claims)
	c.Name = auth.FirstNameFromClaims(claims)
	c.Session.SetPlayer(c.Name, c.UserID)
	slog.Info("client authenticated", "tag", "ws", "session", c.Session.ID, "user", c.UserID)
}

func (c *Client) handleSetName(raw json.RawMessage) {
	var msg SetNameMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid set_name message.")
		return
	}

	name, err := session.ValidateName(msg.Name, c.Hub.Config.MaxNameLength)
	if err != nil {
		c.sendError("Name must be between 1 and " + strconv.Itoa(c.Hub.Config.MaxNameLength) + " characters.")
		return
	}

	c.Name = name
	c.Session.SetPlayer(c.Name, c.UserID)
}

func (c *Client) handleStartGame(raw json.RawMessage) {
	var msg StartGameMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid start_game message.")
		return
	}
	c.start(session.Mode(msg.Mode))
}

func (c *Client) handleFlipCard(raw json.RawMessage) {
	var msg FlipCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid flip_card message.")
		return
	}
	if err := c.Session.Tap(msg.ID); err != nil {
		c.sendSessionError(err)
	}
}

func (c *Client) handleRestart() {
	if err := c.Session.Restart(); err != nil {
		c.sendSessionError(err)
	}
}

func (c *Client) handlePlayAgain(raw json.RawMessage) {
	var msg PlayAgainMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid play_again message.")
		return
	}
	mode := session.Mode(msg.Mode)
	if mode == "" {
		mode = c.Session.Mode()
	}
	c.start(mode)
}

func (c *Client) start(mode session.Mode) {
	if err := c.Session.Start(mode); err != nil {
		c.sendSessionError(err)
	}
}

func (c *Client) sendSessionError(err error) {
	switch {
	case errors.Is(err, sessionerrors.ErrUnknownMode):
		c.sendError("Unknown game mode.")
	case errors.Is(err, sessionerrors.ErrNoActiveRound):
		c.sendError("No round in progress.")
	case errors.Is(err, sessionerrors.ErrSessionClosed):
		c.sendError("Session closed.")
	default:
		slog.Error("session action failed", "tag", "ws", "session", c.Session.ID, "err", err)
		c.sendError("Internal error.")
	}
}

func (c *Client) sendError(message string) {
	wsutil.SendJSON(c.Send, ErrorMsg{Type: "error", Message: message})
}
