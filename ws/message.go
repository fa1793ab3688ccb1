package ws

import "encoding/json"

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	// Unmarshal just the type field
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// AuthMsg optionally identifies the player with a Neon Auth JWT.
type AuthMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// SetNameMsg is sent by the client to declare a display name.
type SetNameMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// StartGameMsg starts a round in the chosen mode.
type StartGameMsg struct {
	Type string `json:"type"`
	Mode string `json:"mode"`
}

// FlipCardMsg is sent by the client to tap a card by id.
type FlipCardMsg struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
}

// PlayAgainMsg starts a new round after game over. Mode defaults to the last one played.
type PlayAgainMsg struct {
	Type string `json:"type"`
	Mode string `json:"mode,omitempty"`
}

// --- Server-to-Client messages ---
// Round messages (session_started, game_state, feedback, timer, game_over) are
// defined next to the code that produces them in the session and game packages.

// ErrorMsg is sent when a client action is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
