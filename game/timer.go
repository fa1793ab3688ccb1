package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTickInterval is the SessionTimer's tick period.
const DefaultTickInterval = time.Second

// SessionTimer counts elapsed seconds while its active flag is set.
type SessionTimer struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	interval time.Duration
	onTick   func(elapsed int)

	elapsed int
	active  bool
	run     uint64 // incremented on every start/stop; ticks from an older run are dropped
	stop    chan struct{}
}

// NewSessionTimer returns an inactive timer. onTick, if set, is called after every
// increment with the new elapsed value, without the timer's lock held.
func NewSessionTimer(clock clockwork.Clock, interval time.Duration, onTick func(elapsed int)) *SessionTimer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &SessionTimer{clock: clock, interval: interval, onTick: onTick}
}

// SetActive starts the repeating tick on a false->true transition and stops it on
// true->false. The elapsed count is kept across stops.
func (t *SessionTimer) SetActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if active == t.active {
		return
	}
	t.active = active
	t.run++
	if !active {
		close(t.stop)
		t.stop = nil
		return
	}

	t.stop = make(chan struct{})
	ticker := t.clock.NewTicker(t.interval)
	go t.loop(ticker, t.stop, t.run)
}

func (t *SessionTimer) loop(ticker clockwork.Ticker, stop <-chan struct{}, run uint64) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			t.mu.Lock()
			if run != t.run {
				t.mu.Unlock()
				return
			}
			t.elapsed++
			elapsed := t.elapsed
			t.mu.Unlock()
			if t.onTick != nil {
				t.onTick(elapsed)
			}
		}
	}
}

// Reset sets the elapsed count to zero without changing whether the timer runs.
func (t *SessionTimer) Reset() {
	t.mu.Lock()
	t.elapsed = 0
	t.mu.Unlock()
}

// Elapsed returns the number of whole seconds counted so far.
func (t *SessionTimer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Active reports whether the timer is currently ticking.
func (t *SessionTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Close stops the timer. It is equivalent to SetActive(false).
func (t *SessionTimer) Close() {
	t.SetActive(false)
}

// FormatElapsed renders seconds as mm:ss. Minutes are not capped.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
