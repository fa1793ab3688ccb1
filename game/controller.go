package game

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Default delays for the round's timed windows.
const (
	DefaultRevealDuration = 1000 * time.Millisecond
	DefaultMismatchDelay  = 600 * time.Millisecond
	DefaultResultDelay    = 500 * time.Millisecond
)

// ControllerOptions configures a Controller. Zero durations fall back to the defaults.
type ControllerOptions struct {
	// Clock drives every delay. Defaults to the real clock; tests pass a fake one.
	Clock clockwork.Clock
	// Rand shuffles the deck. Nil uses the math/rand package source.
	Rand *rand.Rand

	RevealDuration time.Duration
	MismatchDelay  time.Duration
	ResultDelay    time.Duration

	// OnEnd is called once per finished round, ResultDelay after the terminal condition.
	OnEnd func(Outcome)
	// OnEvent receives feedback signals. It is called without the controller lock held.
	OnEvent func(Event)
}

// Controller owns one round of the memory game at a time: the shuffled deck,
// the face-up and matched sets, turn/error counters, and the timed reveal windows.
//
// Every scheduled delay captures the generation of the round that created it.
// Reset increments the generation, so delays left over from a discarded round
// find a mismatch when they fire and do nothing.
type Controller struct {
	mu    sync.Mutex
	clock clockwork.Clock
	rng   *rand.Rand

	revealDuration time.Duration
	mismatchDelay  time.Duration
	resultDelay    time.Duration

	onEnd   func(Outcome)
	onEvent func(Event)

	generation uint64
	phase      Phase
	deck       []Card
	revealed   []int // face-up and not matched, in flip order
	matched    []int
	turns      int
	errors     int
	locked     bool
}

// NewController creates a controller and starts its first round.
func NewController(opts ControllerOptions) *Controller {
	c := &Controller{
		clock:          opts.Clock,
		rng:            opts.Rand,
		revealDuration: opts.RevealDuration,
		mismatchDelay:  opts.MismatchDelay,
		resultDelay:    opts.ResultDelay,
		onEnd:          opts.OnEnd,
		onEvent:        opts.OnEvent,
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.revealDuration <= 0 {
		c.revealDuration = DefaultRevealDuration
	}
	if c.mismatchDelay <= 0 {
		c.mismatchDelay = DefaultMismatchDelay
	}
	if c.resultDelay <= 0 {
		c.resultDelay = DefaultResultDelay
	}

	c.mu.Lock()
	events := c.startRound()
	c.mu.Unlock()
	c.emit(events)
	return c
}

// Reset discards the current round and starts a fresh one.
// Pending delays from the discarded round become inert.
func (c *Controller) Reset() {
	c.mu.Lock()
	events := c.startRound()
	c.mu.Unlock()
	c.emit(events)
}

// Close invalidates all pending delays and locks input without starting a new round.
func (c *Controller) Close() {
	c.mu.Lock()
	c.generation++
	c.locked = true
	c.phase = PhaseInitializing
	c.mu.Unlock()
}

// startRound implements the shared initialization/reset protocol. Caller holds mu.
func (c *Controller) startRound() []Event {
	c.generation++
	c.phase = PhaseInitializing

	c.deck = NewDeck(c.rng)
	c.revealed = make([]int, 0, len(c.deck))
	for _, card := range c.deck {
		c.revealed = append(c.revealed, card.ID)
	}
	c.matched = make([]int, 0, len(c.deck))
	c.turns = 0
	c.errors = 0
	c.locked = true
	c.phase = PhaseRevealing

	gen := c.generation
	c.schedule(c.revealDuration, gen, "reveal_end", func() []Event {
		c.revealed = make([]int, 0, 2)
		c.locked = false
		c.phase = PhasePlaying
		return []Event{{Type: EventRevealEnded, Generation: gen}}
	})

	slog.Debug("round started", "tag", "game", "generation", gen)
	return []Event{{Type: EventRoundStarted, Generation: gen}}
}

// CardTapped flips the card with the given id. Taps that cannot apply (input locked,
// card already face-up or matched, two cards already face-up, unknown id) are ignored.
func (c *Controller) CardTapped(id int) {
	c.mu.Lock()
	events := c.tap(id)
	c.mu.Unlock()
	c.emit(events)
}

func (c *Controller) tap(id int) []Event {
	if c.locked || len(c.revealed) >= 2 || contains(c.revealed, id) || contains(c.matched, id) {
		return nil
	}
	card, ok := findCard(c.deck, id)
	if !ok {
		return nil
	}
	gen := c.generation

	if len(c.revealed) == 0 {
		c.revealed = append(c.revealed, id)
		return []Event{{Type: EventCardFlipped, Generation: gen, CardIDs: []int{id}}}
	}

	// Second card of the turn: compare against the first.
	firstID := c.revealed[0]
	first, _ := findCard(c.deck, firstID)
	c.revealed = append(c.revealed, id)
	c.turns++

	events := []Event{{Type: EventCardFlipped, Generation: gen, CardIDs: []int{id}}}
	pair := []int{firstID, id}

	if first.PairKey == card.PairKey {
		c.matched = append(c.matched, firstID, id)
		c.revealed = make([]int, 0, 2)
		events = append(events, Event{Type: EventMatch, Generation: gen, CardIDs: pair})
	} else {
		c.errors++
		c.phase = PhaseComparing
		events = append(events, Event{Type: EventMismatch, Generation: gen, CardIDs: pair})
		c.schedule(c.mismatchDelay, gen, "mismatch_clear", func() []Event {
			c.revealed = make([]int, 0, 2)
			if c.phase == PhaseComparing {
				c.phase = PhasePlaying
			}
			return []Event{{Type: EventMismatchCleared, Generation: gen, CardIDs: pair}}
		})
	}

	return append(events, c.checkTermination()...)
}

// checkTermination runs after every change to matched or errors. Win is checked
// before loss. Input locks as soon as a terminal condition is detected. Caller holds mu.
func (c *Controller) checkTermination() []Event {
	if c.phase.Terminal() {
		return nil
	}

	var evType EventType
	out := Outcome{Turns: c.turns, Errors: c.errors, Generation: c.generation}
	switch {
	case len(c.matched) == 2*TotalPairs:
		c.phase = PhaseWon
		out.Result = ResultWon
		evType = EventRoundWon
	case c.errors >= MaxErrors:
		c.phase = PhaseLost
		out.Result = ResultLost
		evType = EventRoundLost
	default:
		return nil
	}
	c.locked = true

	slog.Debug("round finished", "tag", "game", "generation", out.Generation,
		"result", out.Result.String(), "turns", out.Turns, "errors", out.Errors)

	gen := c.generation
	c.clock.AfterFunc(c.resultDelay, func() {
		c.mu.Lock()
		stale := gen != c.generation
		c.mu.Unlock()
		if stale {
			c.dropStale("result", gen)
			return
		}
		if c.onEnd != nil {
			c.onEnd(out)
		}
	})
	return []Event{{Type: evType, Generation: gen}}
}

// schedule runs apply after d, under the lock, only if the round that scheduled it
// is still the current one. Caller holds mu.
func (c *Controller) schedule(d time.Duration, gen uint64, task string, apply func() []Event) {
	c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			c.dropStale(task, gen)
			return
		}
		events := apply()
		c.mu.Unlock()
		c.emit(events)
	})
}

func (c *Controller) dropStale(task string, gen uint64) {
	slog.Debug("dropping stale task", "tag", "game", "task", task, "generation", gen)
	c.emit([]Event{{Type: EventStaleTaskDropped, Generation: gen}})
}

func (c *Controller) emit(events []Event) {
	if c.onEvent == nil {
		return
	}
	for _, e := range events {
		c.onEvent(e)
	}
}

// Snapshot is a consistent copy of the controller's round state.
type Snapshot struct {
	Generation  uint64
	Phase       Phase
	Deck        []Card
	Revealed    []int
	Matched     []int
	Turns       int
	Errors      int
	InputLocked bool
}

// Snapshot returns a copy of the current round state taken under the lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Generation:  c.generation,
		Phase:       c.phase,
		Deck:        append([]Card(nil), c.deck...),
		Revealed:    append([]int(nil), c.revealed...),
		Matched:     append([]int(nil), c.matched...),
		Turns:       c.turns,
		Errors:      c.errors,
		InputLocked: c.locked,
	}
}

// Deck returns the round's cards in shuffled order.
func (c *Controller) Deck() []Card {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Card(nil), c.deck...)
}

// Revealed returns the ids currently face-up and not matched, in flip order.
func (c *Controller) Revealed() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.revealed...)
}

// Matched returns the ids confirmed matched, in the order their pairs were found.
func (c *Controller) Matched() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.matched...)
}

func (c *Controller) TurnCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turns
}

func (c *Controller) ErrorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors
}

func (c *Controller) InputLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Generation returns the id of the current round. It increases on every Reset and Close.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
