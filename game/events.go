package game

// Phase is the controller's position in the per-round state machine.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseRevealing
	PhasePlaying
	PhaseComparing // two mismatched cards face-up, waiting for the auto-clear
	PhaseWon
	PhaseLost
)

// String returns the protocol string for a Phase.
func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseRevealing:
		return "revealing"
	case PhasePlaying:
		return "playing"
	case PhaseComparing:
		return "comparing"
	case PhaseWon:
		return "won"
	case PhaseLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Terminal reports whether only Reset can leave this phase.
func (p Phase) Terminal() bool {
	return p == PhaseWon || p == PhaseLost
}

// Result is the terminal outcome of a round.
type Result int

const (
	ResultWon Result = iota
	ResultLost
)

// String returns the protocol string for a Result.
func (r Result) String() string {
	switch r {
	case ResultWon:
		return "win"
	case ResultLost:
		return "lose"
	default:
		return "unknown"
	}
}

// Outcome is passed to the completion callback once per finished round.
// Turns and Errors are the final counts; for a loss they are informational only.
type Outcome struct {
	Result     Result
	Turns      int
	Errors     int
	Generation uint64
}

// EventType enumerates the signals a controller emits to its listener.
type EventType int

const (
	EventRoundStarted EventType = iota
	EventRevealEnded
	EventCardFlipped
	EventMatch
	EventMismatch
	EventMismatchCleared
	EventRoundWon
	EventRoundLost
	EventStaleTaskDropped // a delayed task from a superseded round fired and was ignored
)

// String returns the protocol string for an EventType.
func (t EventType) String() string {
	switch t {
	case EventRoundStarted:
		return "round_started"
	case EventRevealEnded:
		return "reveal_ended"
	case EventCardFlipped:
		return "card_flipped"
	case EventMatch:
		return "match"
	case EventMismatch:
		return "mismatch"
	case EventMismatchCleared:
		return "mismatch_cleared"
	case EventRoundWon:
		return "round_won"
	case EventRoundLost:
		return "round_lost"
	case EventStaleTaskDropped:
		return "stale_task_dropped"
	default:
		return "unknown"
	}
}

// Event is a state-change notification. Generation identifies the round it belongs to.
type Event struct {
	Type       EventType
	Generation uint64
	CardIDs    []int
}
