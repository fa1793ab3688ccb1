package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"namaste-memory-server/config"
	"namaste-memory-server/session"
)

// setupTestServerWithConfig creates a test HTTP server with the given config.
func setupTestServerWithConfig(t *testing.T, cfg *config.Config) (*httptest.Server, *app, func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	a := newApp(ctx, cfg, session.Options{}, nil)

	server := httptest.NewServer(a.handler)
	cleanup := func() {
		server.Close()
		a.sessions.CloseAll()
		cancel()
	}
	return server, a, cleanup
}

// setupTestServer creates a test HTTP server with the full game server stack and short delays.
func setupTestServer(t *testing.T) (*httptest.Server, *app, func()) {
	t.Helper()

	cfg := config.Defaults()
	cfg.RevealDurationMS = 50
	cfg.MismatchDelayMS = 30
	cfg.ResultDelayMS = 30
	cfg.WSPort = 0 // not used when using httptest
	return setupTestServerWithConfig(t, cfg)
}

// connectWS creates a WebSocket connection to the test server.
func connectWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	return conn
}

// readMsg reads a JSON message from the WebSocket and returns it as a map.
func readMsg(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal: %v\ndata: %s", err, string(data))
	}
	return msg
}

// readUntil reads messages until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]interface{} {
	t.Helper()
	for {
		msg := readMsg(t, conn)
		if msg["type"] == msgType {
			return msg
		}
	}
}

// readSettledState reads game_state messages until input is unlocked with no face-up cards.
func readSettledState(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	for {
		msg := readUntil(t, conn, "game_state")
		locked, _ := msg["inputLocked"].(bool)
		revealed, _ := msg["revealed"].([]interface{})
		if !locked && len(revealed) == 0 {
			return msg
		}
	}
}

// sendMsg sends a JSON message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msg interface{}) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
}

// pairsFromReveal reads the pair keys shown during the initial reveal and groups card ids by key.
func pairsFromReveal(t *testing.T, state map[string]interface{}) [][2]int {
	t.Helper()
	byKey := make(map[int][]int)
	var keys []int
	for _, raw := range state["cards"].([]interface{}) {
		card := raw.(map[string]interface{})
		pk, ok := card["pairKey"].(float64)
		if !ok {
			t.Fatalf("expected pairKey on revealed card %v", card)
		}
		key := int(pk)
		if _, seen := byKey[key]; !seen {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], int(card["id"].(float64)))
	}
	pairs := make([][2]int, 0, len(keys))
	for _, k := range keys {
		if len(byKey[k]) != 2 {
			t.Fatalf("expected two cards for pair %d, got %v", k, byKey[k])
		}
		pairs = append(pairs, [2]int{byKey[k][0], byKey[k][1]})
	}
	return pairs
}

func TestIntegration_FullGame(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	sendMsg(t, conn, map[string]string{"type": "set_name", "name": "Asha"})
	sendMsg(t, conn, map[string]string{"type": "start_game", "mode": "solo"})

	started := readMsg(t, conn)
	if started["type"] != "session_started" {
		t.Fatalf("expected session_started, got %v", started["type"])
	}
	if started["mode"] != "solo" {
		t.Errorf("expected mode solo, got %v", started["mode"])
	}

	// The first state is the full reveal: every card face-up and input locked.
	reveal := readUntil(t, conn, "game_state")
	if locked, _ := reveal["inputLocked"].(bool); !locked {
		t.Error("expected input locked during reveal")
	}
	pairs := pairsFromReveal(t, reveal)
	if len(pairs) != 6 {
		t.Fatalf("expected 6 pairs, got %d", len(pairs))
	}

	readSettledState(t, conn)

	for _, p := range pairs {
		sendMsg(t, conn, map[string]interface{}{"type": "flip_card", "id": p[0]})
		sendMsg(t, conn, map[string]interface{}{"type": "flip_card", "id": p[1]})
	}

	over := readUntil(t, conn, "game_over")
	if over["result"] != "win" {
		t.Errorf("expected result win, got %v", over["result"])
	}
	if over["turns"] != float64(6) || over["errors"] != float64(0) {
		t.Errorf("expected 6 turns and 0 errors, got %v/%v", over["turns"], over["errors"])
	}
	if over["action"] != "Play Again" {
		t.Errorf("expected Play Again action, got %v", over["action"])
	}
}

func TestIntegration_LoseAndPlayAgain(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	sendMsg(t, conn, map[string]string{"type": "start_game", "mode": "against_console"})
	reveal := readUntil(t, conn, "game_state")
	pairs := pairsFromReveal(t, reveal)
	readSettledState(t, conn)

	// Two cards from different pairs always mismatch.
	a, b := pairs[0][0], pairs[1][0]
	for i := 0; i < 3; i++ {
		sendMsg(t, conn, map[string]interface{}{"type": "flip_card", "id": a})
		sendMsg(t, conn, map[string]interface{}{"type": "flip_card", "id": b})
		fb := readUntil(t, conn, "feedback")
		if fb["kind"] != "mismatch" {
			t.Fatalf("expected mismatch feedback, got %v", fb["kind"])
		}
		if i < 2 {
			readSettledState(t, conn)
		}
	}

	over := readUntil(t, conn, "game_over")
	if over["result"] != "lose" {
		t.Fatalf("expected result lose, got %v", over["result"])
	}

	// Taps after game over are rejected: the round is no longer running.
	sendMsg(t, conn, map[string]interface{}{"type": "flip_card", "id": a})
	errMsg := readUntil(t, conn, "error")
	if errMsg["message"] != "No round in progress." {
		t.Errorf("expected no-round error, got %v", errMsg["message"])
	}

	sendMsg(t, conn, map[string]string{"type": "play_again"})
	started := readUntil(t, conn, "session_started")
	if started["mode"] != "against_console" {
		t.Errorf("expected play_again to keep mode against_console, got %v", started["mode"])
	}
	state := readUntil(t, conn, "game_state")
	if state["errors"] != float64(0) || state["turns"] != float64(0) {
		t.Errorf("expected a fresh round, got turns=%v errors=%v", state["turns"], state["errors"])
	}
}

func TestIntegration_ErrorOnNameTooLong(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	sendMsg(t, conn, map[string]string{"type": "set_name", "name": strings.Repeat("a", 25)})
	msg := readMsg(t, conn)
	if msg["type"] != "error" {
		t.Fatalf("expected error, got %v", msg["type"])
	}
}

func TestIntegration_FlipCardNotInGame(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	sendMsg(t, conn, map[string]interface{}{"type": "flip_card", "id": 1})
	msg := readMsg(t, conn)
	if msg["type"] != "error" {
		t.Fatalf("expected error, got %v", msg["type"])
	}
}

func TestIntegration_UnknownModeAndType(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	sendMsg(t, conn, map[string]string{"type": "start_game", "mode": "speedrun"})
	msg := readMsg(t, conn)
	if msg["type"] != "error" || msg["message"] != "Unknown game mode." {
		t.Errorf("expected unknown mode error, got %v", msg)
	}

	sendMsg(t, conn, map[string]string{"type": "use_power_up"})
	msg = readMsg(t, conn)
	if msg["type"] != "error" {
		t.Errorf("expected error for unknown type, got %v", msg["type"])
	}
}

func TestIntegration_AuthNotConfigured(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	defer conn.Close()

	sendMsg(t, conn, map[string]string{"type": "auth", "token": "abc"})
	msg := readMsg(t, conn)
	if msg["message"] != "Server auth not configured." {
		t.Errorf("expected auth not configured error, got %v", msg)
	}
}

func TestIntegration_DisconnectClosesSession(t *testing.T) {
	server, a, cleanup := setupTestServer(t)
	defer cleanup()

	conn := connectWS(t, server)
	sendMsg(t, conn, map[string]string{"type": "start_game"})
	readUntil(t, conn, "session_started")
	if a.sessions.Count() != 1 {
		t.Fatalf("expected 1 session, got %d", a.sessions.Count())
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for a.sessions.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected session to be removed after disconnect, still %d", a.sessions.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
