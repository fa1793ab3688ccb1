package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"namaste-memory-server/auth"
	"namaste-memory-server/config"
	"namaste-memory-server/session"
)

// Hub maintains the set of active clients and their sessions.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Sessions   *session.Manager
	Config     *config.Config
	Auth       *auth.Validator

	upgrader websocket.Upgrader
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, sessions *session.Manager, validator *auth.Validator) *Hub {
	h := &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Sessions:   sessions,
		Config:     cfg,
		Auth:       validator,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin allows requests without an Origin header and origins listed in
// AllowedOrigins; "*" allows all.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.Config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	slog.Warn("rejected websocket origin", "tag", "ws", "origin", origin)
	return false
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run returns and no longer accepts new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "hub")
			return
		case client := <-h.Register:
			h.Clients[client] = true
			slog.Info("client connected", "tag", "hub", "clients", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				// Closing the session stops its timers before the send channel goes away.
				if client.Session != nil {
					h.Sessions.Remove(client.Session.ID)
				}
				close(client.Send)
				slog.Info("client disconnected", "tag", "hub", "clients", len(h.Clients))
			}
		}
	}
}

// ServeWS handles WebSocket upgrade requests and creates a new Client with its own session.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "ws", "err", err)
		return
	}

	send := make(chan []byte, 256)
	client := &Client{
		Hub:     h,
		Conn:    conn,
		Send:    send,
		Name:    auth.DefaultName,
		Session: h.Sessions.NewSession(send),
	}
	client.Session.SetPlayer(client.Name, "")

	h.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
