package storage

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Round results stored in the round table.
const (
	ResultWin       = "win"
	ResultLose      = "lose"
	ResultAbandoned = "abandoned"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS round (
	id              UUID PRIMARY KEY,
	played_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	user_id         TEXT NOT NULL DEFAULT '',
	mode            TEXT NOT NULL,
	result          TEXT NOT NULL,
	turns           INT NOT NULL,
	errors          INT NOT NULL,
	elapsed_seconds INT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_round_user_id ON round(user_id);
CREATE INDEX IF NOT EXISTS idx_round_played_at ON round(played_at);
CREATE TABLE IF NOT EXISTS round_turn (
	id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	round_id     UUID NOT NULL,
	turn         INT NOT NULL,
	matched      BOOLEAN NOT NULL,
	errors_after INT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_round_turn_round_id ON round_turn(round_id);
`

// Store persists round telemetry. Turn rows are written while a round is running,
// before its round row exists, so round_turn carries no foreign key.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the telemetry tables exist.
// If databaseURL is empty, NewStore returns (nil, nil) and no persistence occurs.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	for _, q := range strings.Split(strings.TrimSpace(createTableSQL), ";") {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, err := pool.Exec(ctx, q); err != nil {
			pool.Close()
			return nil, err
		}
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// RoundRecord is one finished or abandoned round.
type RoundRecord struct {
	ID             string
	UserID         string
	Mode           string
	Result         string
	Turns          int
	Errors         int
	ElapsedSeconds int
}

// TurnRecord is one completed turn (a second card flip) of a round.
type TurnRecord struct {
	RoundID     string
	Turn        int
	Matched     bool
	ErrorsAfter int
}

// InsertRound writes one round row. A repeated id is ignored.
func (s *Store) InsertRound(ctx context.Context, r RoundRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO round (id, user_id, mode, result, turns, errors, elapsed_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`,
		r.ID, r.UserID, r.Mode, r.Result, r.Turns, r.Errors, r.ElapsedSeconds)
	return err
}

// InsertTurn writes one turn row.
func (s *Store) InsertTurn(ctx context.Context, t TurnRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO round_turn (round_id, turn, matched, errors_after) VALUES ($1, $2, $3, $4)`,
		t.RoundID, t.Turn, t.Matched, t.ErrorsAfter)
	return err
}

// GetUserRole returns the role of the given user from neon_auth.user (e.g. "admin").
// Returns "" if the user is not found or the store is disabled.
func (s *Store) GetUserRole(ctx context.Context, userID string) (string, error) {
	if s == nil || s.pool == nil || userID == "" {
		return "", nil
	}
	var role string
	// Table name "user" is reserved in PostgreSQL, so quote it.
	err := s.pool.QueryRow(ctx, `SELECT role FROM neon_auth."user" WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return role, nil
}

// RoundMetrics holds aggregated metrics for the admin dashboard.
type RoundMetrics struct {
	Rounds                int           `json:"rounds"`
	Wins                  int           `json:"wins"`
	Losses                int           `json:"losses"`
	Abandoned             int           `json:"abandoned"`
	WinRatePct            float64       `json:"win_rate_pct"`
	AvgTurns              float64       `json:"avg_turns"`
	AvgErrors             float64       `json:"avg_errors"`
	AvgElapsedSeconds     float64       `json:"avg_elapsed_seconds"`
	ActivePlayersLastWeek int           `json:"active_players_last_week"`
	MatchRatePct          float64       `json:"match_rate_pct"`
	ByMode                []ModeMetrics `json:"by_mode"`
}

// ModeMetrics is the per-mode slice of RoundMetrics.
type ModeMetrics struct {
	Mode       string  `json:"mode"`
	Rounds     int     `json:"rounds"`
	Wins       int     `json:"wins"`
	WinRatePct float64 `json:"win_rate_pct"`
}

// GetRoundMetrics aggregates the round and round_turn tables.
// Averages cover finished rounds only; abandoned rounds are counted separately.
func (s *Store) GetRoundMetrics(ctx context.Context) (*RoundMetrics, error) {
	out := &RoundMetrics{ByMode: []ModeMetrics{}}
	if s == nil || s.pool == nil {
		return out, nil
	}

	var avgTurns, avgErrors, avgElapsed *float64
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE result = $1),
			COUNT(*) FILTER (WHERE result = $2),
			COUNT(*) FILTER (WHERE result = $3),
			AVG(turns) FILTER (WHERE result <> $3),
			AVG(errors) FILTER (WHERE result <> $3),
			AVG(elapsed_seconds) FILTER (WHERE result <> $3)
		FROM round`, ResultWin, ResultLose, ResultAbandoned).
		Scan(&out.Rounds, &out.Wins, &out.Losses, &out.Abandoned, &avgTurns, &avgErrors, &avgElapsed)
	if err != nil {
		return nil, err
	}
	out.AvgTurns = round2(deref(avgTurns))
	out.AvgErrors = round2(deref(avgErrors))
	out.AvgElapsedSeconds = round2(deref(avgElapsed))
	out.WinRatePct = winRatePct(out.Wins, out.Wins+out.Losses)

	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT user_id) FROM round
		WHERE user_id <> '' AND played_at >= now() - interval '7 days'`).
		Scan(&out.ActivePlayersLastWeek); err != nil {
		return nil, err
	}

	var turns, matched int
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE matched) FROM round_turn`).
		Scan(&turns, &matched); err != nil {
		return nil, err
	}
	out.MatchRatePct = winRatePct(matched, turns)

	rows, err := s.pool.Query(ctx, `
		SELECT mode, COUNT(*), COUNT(*) FILTER (WHERE result = $1), COUNT(*) FILTER (WHERE result IN ($1, $2))
		FROM round GROUP BY mode ORDER BY mode`, ResultWin, ResultLose)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m ModeMetrics
		var finished int
		if err := rows.Scan(&m.Mode, &m.Rounds, &m.Wins, &finished); err != nil {
			return nil, err
		}
		m.WinRatePct = winRatePct(m.Wins, finished)
		out.ByMode = append(out.ByMode, m)
	}
	return out, rows.Err()
}

// winRatePct returns part/total as a percentage rounded to two decimals, 0 when total is 0.
func winRatePct(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(100 * float64(part) / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
