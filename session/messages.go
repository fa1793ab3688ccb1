package session

import (
	"fmt"

	"namaste-memory-server/game"
)

// SessionStartedMsg confirms a new round and echoes the mode and timing the client should expect.
type SessionStartedMsg struct {
	Type             string `json:"type"`
	SessionID        string `json:"sessionId"`
	RoundID          string `json:"roundId"`
	Mode             Mode   `json:"mode"`
	TotalPairs       int    `json:"totalPairs"`
	MaxErrors        int    `json:"maxErrors"`
	RevealDurationMS int    `json:"revealDurationMs"`
}

// FeedbackMsg carries the match/mismatch signal for haptic or sound feedback.
type FeedbackMsg struct {
	Type    string `json:"type"`
	Kind    string `json:"kind"`
	CardIDs []int  `json:"cardIds"`
}

// TimerMsg is pushed on every session timer tick.
type TimerMsg struct {
	Type           string `json:"type"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
	Elapsed        string `json:"elapsed"`
}

// GameOverMsg presents the outcome of a round.
type GameOverMsg struct {
	Type           string `json:"type"`
	RoundID        string `json:"roundId"`
	Result         string `json:"result"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Action         string `json:"action"`
	Turns          int    `json:"turns"`
	Errors         int    `json:"errors"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
	Elapsed        string `json:"elapsed"`
}

func buildGameOver(roundID string, out game.Outcome, elapsed int) GameOverMsg {
	msg := GameOverMsg{
		Type:           "game_over",
		RoundID:        roundID,
		Result:         out.Result.String(),
		Turns:          out.Turns,
		Errors:         out.Errors,
		ElapsedSeconds: elapsed,
		Elapsed:        game.FormatElapsed(elapsed),
	}
	if out.Result == game.ResultWon {
		msg.Title = "🧘 Namaste!"
		msg.Message = fmt.Sprintf("Game complete!\nTurns: %d\nErrors: %d", out.Turns, out.Errors)
		msg.Action = "Play Again"
	} else {
		msg.Title = "❌ Game Over"
		msg.Message = fmt.Sprintf("You reached %d errors.\nTry again to find inner peace.", game.MaxErrors)
		msg.Action = "Try Again"
	}
	return msg
}
