package session

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"namaste-memory-server/config"
	"namaste-memory-server/game"
	"namaste-memory-server/sessionerrors"
	"namaste-memory-server/wsutil"
)

// TelemetrySink is called to record turn and round events. Optional; may be nil.
type TelemetrySink interface {
	RecordTurn(roundID string, turn int, matched bool, errorsAfter int)
	RecordRound(roundID, userID, mode, result string, turns, errors, elapsedSeconds int)
}

// Options are shared by every session a Manager creates.
type Options struct {
	Config    *config.Config
	Clock     clockwork.Clock
	Rand      *rand.Rand
	Telemetry TelemetrySink
}

// Session hosts one player's rounds: it owns a game controller and a session timer,
// starts rounds on request, and pushes state, feedback, timer and outcome messages
// to the player's send channel.
type Session struct {
	ID   string
	Send chan []byte

	opts  Options
	timer *game.SessionTimer

	mu      sync.Mutex
	ctrl    *game.Controller
	name    string
	userID  string
	mode    Mode
	roundID string
	active  bool // a round has started and its completion has not been presented yet
	closed  bool
}

// New creates an idle session. No round runs until Start is called.
func New(id string, send chan []byte, opts Options) *Session {
	if opts.Config == nil {
		opts.Config = config.Defaults()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	s := &Session{ID: id, Send: send, opts: opts}
	s.timer = game.NewSessionTimer(opts.Clock, opts.Config.TickInterval(), s.handleTick)
	return s
}

// SetPlayer records the display name and, when authenticated, the user id.
func (s *Session) SetPlayer(name, userID string) {
	s.mu.Lock()
	s.name = name
	s.userID = userID
	s.mu.Unlock()
}

// ValidateName trims name and checks it is 1 to maxLen characters long.
func ValidateName(name string, maxLen int) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 1 || n > maxLen {
		return "", fmt.Errorf("%w: must be between 1 and %d characters", sessionerrors.ErrNameInvalid, maxLen)
	}
	return name, nil
}

// Name returns the player's display name.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Start begins a new round in the given mode: the controller is reset (or created)
// and the timer is zeroed and activated.
func (s *Session) Start(mode Mode) error {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return sessionerrors.ErrSessionClosed
	}
	var unfinished *roundRecord
	if s.active {
		unfinished = s.unfinishedRoundLocked()
	}
	s.mode = mode
	s.roundID = uuid.NewString()
	s.active = true
	ctrl := s.ctrl
	roundID := s.roundID
	s.mu.Unlock()

	s.record(unfinished)

	// The controller emits events synchronously from Reset/NewController, so it must
	// not be called with s.mu held.
	if ctrl == nil {
		ctrl = game.NewController(game.ControllerOptions{
			Clock:          s.opts.Clock,
			Rand:           s.opts.Rand,
			RevealDuration: s.opts.Config.RevealDuration(),
			MismatchDelay:  s.opts.Config.MismatchDelay(),
			ResultDelay:    s.opts.Config.ResultDelay(),
			OnEnd:          s.handleEnd,
			OnEvent:        s.handleEvent,
		})
		s.mu.Lock()
		s.ctrl = ctrl
		s.mu.Unlock()
	} else {
		ctrl.Reset()
	}

	s.timer.Reset()
	s.timer.SetActive(true)

	slog.Info("round started", "tag", "session", "session", s.ID, "round", roundID, "mode", string(mode))

	wsutil.SendJSON(s.Send, SessionStartedMsg{
		Type:             "session_started",
		SessionID:        s.ID,
		RoundID:          roundID,
		Mode:             mode,
		TotalPairs:       game.TotalPairs,
		MaxErrors:        game.MaxErrors,
		RevealDurationMS: s.opts.Config.RevealDurationMS,
	})
	s.pushState()
	return nil
}

// Restart starts a fresh round in the current mode.
func (s *Session) Restart() error {
	s.mu.Lock()
	mode := s.mode
	s.mu.Unlock()
	if mode == "" {
		return sessionerrors.ErrNoActiveRound
	}
	return s.Start(mode)
}

// Tap forwards a card tap to the running round. Taps the controller cannot apply
// are ignored silently; only the absence of a round is an error.
func (s *Session) Tap(cardID int) error {
	s.mu.Lock()
	ctrl := s.ctrl
	active := s.active
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return sessionerrors.ErrSessionClosed
	}
	if !active || ctrl == nil {
		return sessionerrors.ErrNoActiveRound
	}
	ctrl.CardTapped(cardID)
	return nil
}

// Active reports whether a round is running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Mode returns the mode of the current or last round.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// RoundID returns the id of the current or last round.
func (s *Session) RoundID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roundID
}

// Elapsed returns the session timer's count.
func (s *Session) Elapsed() int {
	return s.timer.Elapsed()
}

// Snapshot returns the controller's state, or false when no round was ever started.
func (s *Session) Snapshot() (game.Snapshot, bool) {
	s.mu.Lock()
	ctrl := s.ctrl
	s.mu.Unlock()
	if ctrl == nil {
		return game.Snapshot{}, false
	}
	return ctrl.Snapshot(), true
}

// Close tears down the controller and timer. An unfinished round is recorded as abandoned.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	var unfinished *roundRecord
	if s.active {
		unfinished = s.unfinishedRoundLocked()
	}
	s.active = false
	ctrl := s.ctrl
	s.mu.Unlock()

	s.record(unfinished)

	if ctrl != nil {
		ctrl.Close()
	}
	s.timer.Close()
}

type roundRecord struct {
	roundID, userID, mode, result string
	turns, errors, elapsed        int
}

// unfinishedRoundLocked captures the round being discarded before its outcome was
// presented. A round still in play is abandoned; one already won or lost keeps its
// result. Caller holds mu.
func (s *Session) unfinishedRoundLocked() *roundRecord {
	if s.opts.Telemetry == nil || s.ctrl == nil {
		return nil
	}
	snap := s.ctrl.Snapshot()
	result := "abandoned"
	switch snap.Phase {
	case game.PhaseWon:
		result = game.ResultWon.String()
	case game.PhaseLost:
		result = game.ResultLost.String()
	}
	return &roundRecord{
		roundID: s.roundID,
		userID:  s.userID,
		mode:    string(s.mode),
		result:  result,
		turns:   snap.Turns,
		errors:  snap.Errors,
		elapsed: s.timer.Elapsed(),
	}
}

// record hands r to the telemetry sink. Must not be called with mu held.
func (s *Session) record(r *roundRecord) {
	if r == nil || s.opts.Telemetry == nil {
		return
	}
	s.opts.Telemetry.RecordRound(r.roundID, r.userID, r.mode, r.result, r.turns, r.errors, r.elapsed)
}

func (s *Session) handleEvent(e game.Event) {
	s.mu.Lock()
	ctrl := s.ctrl
	roundID := s.roundID
	closed := s.closed
	s.mu.Unlock()
	if ctrl == nil || closed || e.Type == game.EventStaleTaskDropped {
		return
	}

	switch e.Type {
	case game.EventMatch, game.EventMismatch:
		wsutil.SendJSON(s.Send, FeedbackMsg{Type: "feedback", Kind: e.Type.String(), CardIDs: e.CardIDs})
		if s.opts.Telemetry != nil {
			snap := ctrl.Snapshot()
			s.opts.Telemetry.RecordTurn(roundID, snap.Turns, e.Type == game.EventMatch, snap.Errors)
		}
	}
	s.pushState()
}

func (s *Session) handleEnd(out game.Outcome) {
	s.mu.Lock()
	ctrl := s.ctrl
	if s.closed || ctrl == nil || !s.active {
		s.mu.Unlock()
		return
	}
	if ctrl.Generation() != out.Generation {
		// A reset raced the completion delay.
		s.mu.Unlock()
		return
	}
	s.active = false
	roundID := s.roundID
	userID := s.userID
	mode := s.mode
	s.mu.Unlock()

	s.timer.SetActive(false)
	elapsed := s.timer.Elapsed()

	slog.Info("round finished", "tag", "session", "session", s.ID, "round", roundID,
		"result", out.Result.String(), "turns", out.Turns, "errors", out.Errors, "elapsed", game.FormatElapsed(elapsed))

	wsutil.SendJSON(s.Send, buildGameOver(roundID, out, elapsed))
	if s.opts.Telemetry != nil {
		s.opts.Telemetry.RecordRound(roundID, userID, string(mode), out.Result.String(), out.Turns, out.Errors, elapsed)
	}
}

func (s *Session) handleTick(elapsed int) {
	wsutil.SendJSON(s.Send, TimerMsg{Type: "timer", ElapsedSeconds: elapsed, Elapsed: game.FormatElapsed(elapsed)})
}

func (s *Session) pushState() {
	s.mu.Lock()
	ctrl := s.ctrl
	roundID := s.roundID
	mode := s.mode
	s.mu.Unlock()
	if ctrl == nil {
		return
	}
	msg := game.BuildStateMsg(ctrl.Snapshot(), s.timer.Elapsed())
	msg.RoundID = roundID
	msg.Mode = string(mode)
	wsutil.SendJSON(s.Send, msg)
}
