package storage

import "context"

// TelemetryStore abstracts persistence for round telemetry.
// Implementations can be swapped for testing (mocks) or different backends.
type TelemetryStore interface {
	// Write
	InsertRound(ctx context.Context, r RoundRecord) error
	InsertTurn(ctx context.Context, t TurnRecord) error

	// Read (admin only)
	GetUserRole(ctx context.Context, userID string) (string, error)
	GetRoundMetrics(ctx context.Context) (*RoundMetrics, error)

	// Lifecycle
	Close()
}

// Ensure *Store implements TelemetryStore at compile time.
var _ TelemetryStore = (*Store)(nil)
