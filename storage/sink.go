package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	sinkQueueSize       = 256
	defaultWriteTimeout = 5 * time.Second
)

type sinkJob struct {
	turn  *TurnRecord
	round *RoundRecord
}

// Sink queues telemetry writes so game callbacks never wait on the database.
// Writes are dropped with a warning when the queue is full.
type Sink struct {
	store   TelemetryStore
	timeout time.Duration
	jobs    chan sinkJob
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewSink returns a Sink writing to store. Call Run to start the writer.
func NewSink(store TelemetryStore, timeout time.Duration) *Sink {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &Sink{
		store:   store,
		timeout: timeout,
		jobs:    make(chan sinkJob, sinkQueueSize),
		done:    make(chan struct{}),
	}
}

// RecordTurn queues one turn row.
func (s *Sink) RecordTurn(roundID string, turn int, matched bool, errorsAfter int) {
	s.enqueue(sinkJob{turn: &TurnRecord{RoundID: roundID, Turn: turn, Matched: matched, ErrorsAfter: errorsAfter}})
}

// RecordRound queues one round row.
func (s *Sink) RecordRound(roundID, userID, mode, result string, turns, errors, elapsedSeconds int) {
	s.enqueue(sinkJob{round: &RoundRecord{
		ID:             roundID,
		UserID:         userID,
		Mode:           mode,
		Result:         result,
		Turns:          turns,
		Errors:         errors,
		ElapsedSeconds: elapsedSeconds,
	}})
}

func (s *Sink) enqueue(j sinkJob) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.jobs <- j:
	default:
		slog.Warn("telemetry queue full, dropping record", "tag", "storage")
	}
}

// Run writes queued records until Close is called and the queue drains, or ctx is cancelled.
// Should be run as a goroutine, once. Wait blocks until it returns.
func (s *Sink) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-s.jobs:
			if !ok {
				return
			}
			s.write(ctx, j)
		}
	}
}

func (s *Sink) write(ctx context.Context, j sinkJob) {
	wctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	switch {
	case j.turn != nil:
		if err := s.store.InsertTurn(wctx, *j.turn); err != nil {
			slog.Error("InsertTurn", "tag", "storage", "round", j.turn.RoundID, "err", err)
		}
	case j.round != nil:
		if err := s.store.InsertRound(wctx, *j.round); err != nil {
			slog.Error("InsertRound", "tag", "storage", "round", j.round.ID, "err", err)
		}
	}
}

// Close stops accepting records. Records already queued are still written by Run;
// call Wait before closing the store.
func (s *Sink) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
}

// Wait blocks until Run has written every queued record and returned, or ctx is done.
func (s *Sink) Wait(ctx context.Context) error {
	if s == nil {
		return nil
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
