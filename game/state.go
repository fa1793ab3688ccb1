package game

// CardState is how a card currently appears to the player.
type CardState int

const (
	Hidden CardState = iota
	Revealed
	Matched
)

// String returns the string representation of a CardState.
func (cs CardState) String() string {
	switch cs {
	case Hidden:
		return "hidden"
	case Revealed:
		return "revealed"
	case Matched:
		return "matched"
	default:
		return "unknown"
	}
}

// CardView is the client-facing representation of a card.
// Labels and PairKey are only included when the card is revealed or matched.
type CardView struct {
	ID           int    `json:"id"`
	State        string `json:"state"`
	FaceLabel    string `json:"faceLabel,omitempty"`
	MeaningLabel string `json:"meaningLabel,omitempty"`
	PairKey      *int   `json:"pairKey,omitempty"`
}

// GameStateMsg is the full round state pushed to the player after every change.
type GameStateMsg struct {
	Type           string     `json:"type"`
	RoundID        string     `json:"roundId,omitempty"`
	Mode           string     `json:"mode,omitempty"`
	Cards          []CardView `json:"cards"`
	Revealed       []int      `json:"revealed"`
	Matched        []int      `json:"matched"`
	Turns          int        `json:"turns"`
	Errors         int        `json:"errors"`
	MaxErrors      int        `json:"maxErrors"`
	InputLocked    bool       `json:"inputLocked"`
	Phase          string     `json:"phase"`
	ElapsedSeconds int        `json:"elapsedSeconds"`
}

// StateOf returns how the card with the given id appears in the snapshot.
func (s Snapshot) StateOf(id int) CardState {
	if contains(s.Matched, id) {
		return Matched
	}
	if contains(s.Revealed, id) {
		return Revealed
	}
	return Hidden
}

// BuildCardViews constructs the client-facing card list in deck order.
// Hidden cards do not expose their labels or pair key.
func BuildCardViews(s Snapshot) []CardView {
	views := make([]CardView, len(s.Deck))
	for i, card := range s.Deck {
		state := s.StateOf(card.ID)
		cv := CardView{ID: card.ID, State: state.String()}
		if state != Hidden {
			pairKey := card.PairKey
			cv.FaceLabel = card.FaceLabel
			cv.MeaningLabel = card.MeaningLabel
			cv.PairKey = &pairKey
		}
		views[i] = cv
	}
	return views
}

// BuildStateMsg builds the game_state message for a snapshot and the session's elapsed time.
func BuildStateMsg(s Snapshot, elapsedSeconds int) GameStateMsg {
	revealed := s.Revealed
	if revealed == nil {
		revealed = []int{}
	}
	matched := s.Matched
	if matched == nil {
		matched = []int{}
	}
	return GameStateMsg{
		Type:           "game_state",
		Cards:          BuildCardViews(s),
		Revealed:       revealed,
		Matched:        matched,
		Turns:          s.Turns,
		Errors:         s.Errors,
		MaxErrors:      MaxErrors,
		InputLocked:    s.InputLocked,
		Phase:          s.Phase.String(),
		ElapsedSeconds: elapsedSeconds,
	}
}
