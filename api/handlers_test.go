package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"namaste-memory-server/config"
	"namaste-memory-server/game"
	"namaste-memory-server/storage"
)

type fakeValidator struct {
	tokens map[string]string // token -> user id
}

func (f *fakeValidator) Configured() bool { return true }

func (f *fakeValidator) Validate(token string) (jwt.MapClaims, error) {
	if id, ok := f.tokens[token]; ok {
		return jwt.MapClaims{"sub": id}, nil
	}
	return nil, errors.New("invalid token")
}

type fakeMetricsStore struct {
	roles map[string]string
}

func (f *fakeMetricsStore) GetUserRole(ctx context.Context, userID string) (string, error) {
	return f.roles[userID], nil
}

func (f *fakeMetricsStore) GetRoundMetrics(ctx context.Context) (*storage.RoundMetrics, error) {
	return &storage.RoundMetrics{Rounds: 4, Wins: 3, Losses: 1, WinRatePct: 75, ByMode: []storage.ModeMetrics{}}, nil
}

func newTestRouter() http.Handler {
	validator := &fakeValidator{tokens: map[string]string{"admin-token": "u-admin", "user-token": "u-user"}}
	store := &fakeMetricsStore{roles: map[string]string{"u-admin": "admin"}}
	return NewRouter(NewHandler(config.Defaults(), validator, store, nil), nil)
}

func get(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCatalog(t *testing.T) {
	rec := get(t, newTestRouter(), "/api/catalog", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp CatalogResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.MaxErrors != game.MaxErrors || resp.TotalPairs != game.TotalPairs {
		t.Errorf("expected maxErrors=%d totalPairs=%d, got %d/%d", game.MaxErrors, game.TotalPairs, resp.MaxErrors, resp.TotalPairs)
	}
	if len(resp.Cards) != 2*game.TotalPairs {
		t.Errorf("expected %d cards, got %d", 2*game.TotalPairs, len(resp.Cards))
	}
	if len(resp.Modes) != 3 {
		t.Errorf("expected 3 modes, got %d", len(resp.Modes))
	}
	if resp.MismatchDelayMS != 600 {
		t.Errorf("expected mismatchDelayMs=600, got %d", resp.MismatchDelayMS)
	}
}

func TestMetricsRequiresAdmin(t *testing.T) {
	router := newTestRouter()

	if rec := get(t, router, "/api/metrics", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
	if rec := get(t, router, "/api/metrics", "bogus"); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with invalid token, got %d", rec.Code)
	}
	if rec := get(t, router, "/api/metrics", "user-token"); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", rec.Code)
	}

	rec := get(t, router, "/api/metrics", "admin-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
	var m storage.RoundMetrics
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Rounds != 4 || m.WinRatePct != 75 {
		t.Errorf("unexpected metrics %+v", m)
	}
}

func TestMetricsWithTelemetryDisabled(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]string{"admin-token": "u-admin"}}
	router := NewRouter(NewHandler(config.Defaults(), validator, nil, nil), nil)

	if rec := get(t, router, "/api/metrics", "admin-token"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when telemetry is disabled, got %d", rec.Code)
	}
}

func TestHealthAndNotFound(t *testing.T) {
	router := newTestRouter()

	rec := get(t, router, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var health HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil || health.Status != "ok" {
		t.Errorf("expected status ok, got %+v (%v)", health, err)
	}

	if rec := get(t, router, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/catalog", nil)
	req.Header.Set("Origin", "https://yoga.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected Access-Control-Allow-Origin=*, got %q", got)
	}
}

func TestCatalogReportsEffectiveDurations(t *testing.T) {
	t.Setenv("REVEAL_DURATION_MS", "0")
	t.Setenv("TICK_INTERVAL_MS", "100")
	cfg := config.Load("")
	router := NewRouter(NewHandler(cfg, &fakeValidator{}, nil, nil), nil)

	rec := get(t, router, "/api/catalog", "")
	var resp CatalogResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RevealDurationMS != int(game.DefaultRevealDuration.Milliseconds()) {
		t.Errorf("expected revealDurationMs=%d, got %d", game.DefaultRevealDuration.Milliseconds(), resp.RevealDurationMS)
	}
	if resp.TickIntervalMS != 1000 {
		t.Errorf("expected tickIntervalMs=1000, got %d", resp.TickIntervalMS)
	}
}
