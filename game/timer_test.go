package game

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func newTestTimer() (*SessionTimer, *clockwork.FakeClock, chan int) {
	fc := clockwork.NewFakeClock()
	ticks := make(chan int, 16)
	timer := NewSessionTimer(fc, time.Second, func(elapsed int) { ticks <- elapsed })
	return timer, fc, ticks
}

func waitForTick(t *testing.T, ticks <-chan int, want int) {
	t.Helper()
	select {
	case got := <-ticks:
		if got != want {
			t.Fatalf("expected tick with elapsed=%d, got %d", want, got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for tick %d", want)
	}
}

func expectNoTick(t *testing.T, ticks <-chan int) {
	t.Helper()
	select {
	case got := <-ticks:
		t.Fatalf("expected no tick, got elapsed=%d", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSessionTimer_InactiveByDefault(t *testing.T) {
	timer, fc, ticks := newTestTimer()

	if timer.Active() {
		t.Error("expected new timer to be inactive")
	}
	fc.Advance(3 * time.Second)
	expectNoTick(t, ticks)
	if timer.Elapsed() != 0 {
		t.Errorf("expected elapsed=0, got %d", timer.Elapsed())
	}
}

func TestSessionTimer_CountsWhileActive(t *testing.T) {
	timer, fc, ticks := newTestTimer()
	timer.SetActive(true)
	defer timer.Close()

	for i := 1; i <= 3; i++ {
		fc.Advance(time.Second)
		waitForTick(t, ticks, i)
	}
	if timer.Elapsed() != 3 {
		t.Errorf("expected elapsed=3, got %d", timer.Elapsed())
	}

	fc.Advance(999 * time.Millisecond)
	expectNoTick(t, ticks)
}

func TestSessionTimer_StopKeepsCount(t *testing.T) {
	timer, fc, ticks := newTestTimer()
	timer.SetActive(true)

	fc.Advance(time.Second)
	waitForTick(t, ticks, 1)

	timer.SetActive(false)
	if timer.Active() {
		t.Error("expected timer inactive after SetActive(false)")
	}
	fc.Advance(5 * time.Second)
	expectNoTick(t, ticks)
	if timer.Elapsed() != 1 {
		t.Errorf("expected elapsed to stay at 1 while inactive, got %d", timer.Elapsed())
	}

	// Resuming continues from the kept count.
	timer.SetActive(true)
	defer timer.Close()
	fc.Advance(time.Second)
	waitForTick(t, ticks, 2)
}

func TestSessionTimer_ResetKeepsRunningStatus(t *testing.T) {
	timer, fc, ticks := newTestTimer()
	timer.SetActive(true)
	defer timer.Close()

	fc.Advance(time.Second)
	waitForTick(t, ticks, 1)
	fc.Advance(time.Second)
	waitForTick(t, ticks, 2)

	timer.Reset()
	if timer.Elapsed() != 0 {
		t.Errorf("expected elapsed=0 after reset, got %d", timer.Elapsed())
	}
	if !timer.Active() {
		t.Error("expected reset not to stop the timer")
	}

	fc.Advance(time.Second)
	waitForTick(t, ticks, 1)

	timer.SetActive(false)
	timer.Reset()
	if timer.Active() {
		t.Error("expected reset not to start a stopped timer")
	}
}

func TestSessionTimer_RepeatedSetActiveIsNoop(t *testing.T) {
	timer, fc, ticks := newTestTimer()
	timer.SetActive(true)
	timer.SetActive(true)
	defer timer.Close()

	fc.Advance(time.Second)
	waitForTick(t, ticks, 1)
	expectNoTick(t, ticks)

	timer.SetActive(false)
	timer.SetActive(false)
	timer.Close()
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "00:00"},
		{9, "00:09"},
		{75, "01:15"},
		{3600, "60:00"},
		{-4, "00:00"},
	}

	for _, test := range tests {
		if got := FormatElapsed(test.seconds); got != test.expected {
			t.Errorf("FormatElapsed(%d) = %q, want %q", test.seconds, got, test.expected)
		}
	}
}
