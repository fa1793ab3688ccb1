package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"namaste-memory-server/auth"
	"namaste-memory-server/config"
	"namaste-memory-server/game"
	"namaste-memory-server/session"
	"namaste-memory-server/storage"
)

const adminRole = "admin"

// TokenValidator is what the handlers need from auth.Validator.
type TokenValidator interface {
	Configured() bool
	Validate(token string) (jwt.MapClaims, error)
}

// MetricsStore is the read side of storage.TelemetryStore used by the admin endpoint.
type MetricsStore interface {
	GetUserRole(ctx context.Context, userID string) (string, error)
	GetRoundMetrics(ctx context.Context) (*storage.RoundMetrics, error)
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Config   *config.Config
	Auth     TokenValidator
	Store    MetricsStore
	Sessions *session.Manager
}

// NewHandler creates a new API handler with the given dependencies. metrics may be nil
// when telemetry is disabled.
func NewHandler(cfg *config.Config, validator TokenValidator, metrics MetricsStore, sessions *session.Manager) *Handler {
	return &Handler{
		Config:   cfg,
		Auth:     validator,
		Store:    metrics,
		Sessions: sessions,
	}
}

// CatalogResponse is the JSON structure for /api/catalog.
type CatalogResponse struct {
	TotalPairs       int                `json:"totalPairs"`
	MaxErrors        int                `json:"maxErrors"`
	RevealDurationMS int                `json:"revealDurationMs"`
	MismatchDelayMS  int                `json:"mismatchDelayMs"`
	ResultDelayMS    int                `json:"resultDelayMs"`
	TickIntervalMS   int                `json:"tickIntervalMs"`
	Cards            []game.Card        `json:"cards"`
	Modes            []session.ModeInfo `json:"modes"`
}

// Catalog returns the constants, card catalog and modes a client renders from.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CatalogResponse{
		TotalPairs:       game.TotalPairs,
		MaxErrors:        game.MaxErrors,
		RevealDurationMS: h.Config.RevealDurationMS,
		MismatchDelayMS:  h.Config.MismatchDelayMS,
		ResultDelayMS:    h.Config.ResultDelayMS,
		TickIntervalMS:   h.Config.TickIntervalMS,
		Cards:            game.Catalog(),
		Modes:            session.Modes(),
	})
}

// Metrics returns aggregated round telemetry. Admins only.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	userID := h.extractUserID(r)
	if userID == "" {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}
	if h.Store == nil {
		http.Error(w, "telemetry disabled", http.StatusServiceUnavailable)
		return
	}

	role, err := h.Store.GetUserRole(r.Context(), userID)
	if err != nil {
		slog.Error("GetUserRole", "tag", "api", "err", err)
		http.Error(w, "failed to check role", http.StatusInternalServerError)
		return
	}
	if role != adminRole {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	m, err := h.Store.GetRoundMetrics(r.Context())
	if err != nil {
		slog.Error("GetRoundMetrics", "tag", "api", "err", err)
		http.Error(w, "failed to load metrics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HealthResponse is the JSON structure for /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// Health reports liveness and the number of open sessions.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.Sessions != nil {
		resp.Sessions = h.Sessions.Count()
	}
	writeJSON(w, http.StatusOK, resp)
}

// extractUserID validates the Authorization header and returns the user ID, or empty string on failure.
func (h *Handler) extractUserID(r *http.Request) string {
	if h.Auth == nil || !h.Auth.Configured() {
		return ""
	}
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return ""
	}
	claims, err := h.Auth.Validate(token)
	if err != nil {
		return ""
	}
	return auth.UserIDFromClaims(claims)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "tag", "api", "err", err)
	}
}
