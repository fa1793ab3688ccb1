package session

import (
	"fmt"
	"strings"

	"namaste-memory-server/sessionerrors"
)

// Mode is the label a player picks when starting a round. Modes do not change
// how the round is played.
type Mode string

const (
	ModeSolo           Mode = "solo"
	ModeWithAFriend    Mode = "with_a_friend"
	ModeAgainstConsole Mode = "against_console"
)

// ModeInfo describes a mode for the selection screen.
type ModeInfo struct {
	Mode        Mode   `json:"mode"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var modes = []ModeInfo{
	{Mode: ModeSolo, Title: "SOLO", Description: "Play at your own pace"},
	{Mode: ModeWithAFriend, Title: "WITH A FRIEND", Description: "Cooperative gameplay"},
	{Mode: ModeAgainstConsole, Title: "AGAINST THE CONSOLE", Description: "Challenge the AI"},
}

// Modes returns the selectable modes in display order.
func Modes() []ModeInfo {
	out := make([]ModeInfo, len(modes))
	copy(out, modes)
	return out
}

// ParseMode accepts a mode name case-insensitively; an empty string means solo.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeSolo, nil
	}
	for _, m := range modes {
		if string(m.Mode) == s {
			return m.Mode, nil
		}
	}
	return "", fmt.Errorf("%w: %q", sessionerrors.ErrUnknownMode, s)
}
