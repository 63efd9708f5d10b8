package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"github.com/fortuna/puckline/internal/backfill"
	"github.com/fortuna/puckline/internal/pbp"
	"github.com/fortuna/puckline/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JobService is the scrape job queue.
type JobService interface {
	Enqueue(ctx context.Context, req backfill.Request) (*backfill.Job, error)
	GetJob(ctx context.Context, jobID string) (*backfill.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*backfill.Job, error)
	Cancel(ctx context.Context, jobID string) (*backfill.Job, error)
	GetStatus(ctx context.Context) (*backfill.StatusSummary, error)
}

// GameStore reads stored game records.
type GameStore interface {
	GetGame(ctx context.Context, gameID string) (*store.GameRecordRow, error)
	ListGames(ctx context.Context, season string, limit int) ([]*store.GameRecordRow, error)
	ListEvents(ctx context.Context, gameID, eventType string) ([]pbp.Row, error)
}

// HandLookup resolves a player's shooting hand.
type HandLookup interface {
	Handedness(ctx context.Context, playerID int) (string, error)
}

// LiveStatus reports the games being polled live.
type LiveStatus interface {
	GetStatus() map[string]interface{}
}

// Deps are the optional collaborators of the handlers. A nil field disables
// the routes that need it.
type Deps struct {
	Jobs   JobService
	Games  GameStore
	Hands  HandLookup
	Live   LiveStatus
	Health func() error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	jobs   JobService
	games  GameStore
	hands  HandLookup
	live   LiveStatus
	health func() error
}

// NewHandler creates a new handler
func NewHandler(deps Deps) *Handler {
	return &Handler{
		jobs:   deps.Jobs,
		games:  deps.Games,
		hands:  deps.Hands,
		live:   deps.Live,
		health: deps.Health,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status":  "healthy",
		"service": "puckline",
		"storage": "memory",
	}
	if h.games != nil {
		payload["storage"] = "postgres"
	}
	if h.health != nil {
		if err := h.health(); err != nil {
			payload["status"] = "degraded"
			payload["details"] = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, payload)
			return
		}
	}
	respondJSON(w, http.StatusOK, payload)
}

// ListGames returns stored games, newest first
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	if h.games == nil {
		respondError(w, http.StatusServiceUnavailable, "Game storage is not configured", nil)
		return
	}
	limit := queryInt(r, "limit", 50, 500)
	games, err := h.games.ListGames(r.Context(), r.URL.Query().Get("season"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch games", err)
		return
	}

	out := make([]map[string]interface{}, 0, len(games))
	for _, g := range games {
		out = append(out, gamePayload(g))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"games": out})
}

// GetGame returns a stored game's metadata
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	if h.games == nil {
		respondError(w, http.StatusServiceUnavailable, "Game storage is not configured", nil)
		return
	}
	gameID := mux.Vars(r)["gameID"]

	game, err := h.games.GetGame(r.Context(), gameID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Game not found", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch game", err)
		return
	}

	respondJSON(w, http.StatusOK, gamePayload(game))
}

// GetGameEvents returns the reconciled rows of a stored game
func (h *Handler) GetGameEvents(w http.ResponseWriter, r *http.Request) {
	if h.games == nil {
		respondError(w, http.StatusServiceUnavailable, "Game storage is not configured", nil)
		return
	}
	gameID := mux.Vars(r)["gameID"]

	if _, err := h.games.GetGame(r.Context(), gameID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Game not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to fetch game", err)
		return
	}

	rows, err := h.games.ListEvents(r.Context(), gameID, r.URL.Query().Get("type"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch events", err)
		return
	}
	if rows == nil {
		rows = []pbp.Row{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id": gameID,
		"count":   len(rows),
		"events":  rows,
	})
}

// GetHandedness returns a player's shooting hand
func (h *Handler) GetHandedness(w http.ResponseWriter, r *http.Request) {
	if h.hands == nil {
		respondError(w, http.StatusServiceUnavailable, "Player lookup is not configured", nil)
		return
	}
	playerID, err := strconv.Atoi(mux.Vars(r)["playerID"])
	if err != nil || playerID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid player ID", err)
		return
	}

	hand, err := h.hands.Handedness(r.Context(), playerID)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to look up player", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"player_id":  playerID,
		"handedness": hand,
	})
}

// LivePolling returns the live poller state
func (h *Handler) LivePolling(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		respondError(w, http.StatusServiceUnavailable, "Live polling is not running", nil)
		return
	}
	respondJSON(w, http.StatusOK, h.live.GetStatus())
}

func gamePayload(g *store.GameRecordRow) map[string]interface{} {
	payload := map[string]interface{}{
		"game_id":           g.GameID,
		"season":            g.Season,
		"home_team":         g.HomeTeam,
		"away_team":         g.AwayTeam,
		"home_score":        g.HomeScore,
		"away_score":        g.AwayScore,
		"event_count":       g.EventCount,
		"located_count":     g.LocatedCount,
		"coordinate_source": g.CoordinateSource,
		"live":              g.Live,
		"updated_at":        g.UpdatedAt,
	}
	if g.GameDate.Valid {
		payload["game_date"] = g.GameDate.Time.Format("2006-01-02")
	}
	if g.HomeTeamName.Valid {
		payload["home_team_name"] = g.HomeTeamName.String
	}
	if g.AwayTeamName.Valid {
		payload["away_team_name"] = g.AwayTeamName.String
	}
	if g.Warning.Valid {
		payload["game_warning"] = g.Warning.String
	}
	return payload
}

func queryInt(r *http.Request, key string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
